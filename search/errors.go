package search

import "errors"

var (
	// ErrInvalidRequest is wrapped by every request validation error.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrInvalidNextToken reports a malformed page token or one issued
	// for a different request.
	ErrInvalidNextToken = errors.New("invalid next token")

	// ErrResourceTypeNotFound reports a resource type the catalog does not serve.
	ErrResourceTypeNotFound = errors.New("resource type not found")
)
