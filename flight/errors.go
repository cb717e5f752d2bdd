package flight

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/sagesearch/auth"
	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
	"github.com/hugr-lab/sagesearch/search"
)

// ErrInvalidTicket is returned when a DoGet ticket cannot be decoded.
var ErrInvalidTicket = errors.New("invalid ticket")

// statusCode maps a handler error to its gRPC code.
func statusCode(err error) codes.Code {
	if _, ok := status.FromError(err); ok {
		return status.Code(err)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, filter.ErrInvalidFilter),
		errors.Is(err, search.ErrInvalidRequest),
		errors.Is(err, search.ErrInvalidNextToken),
		errors.Is(err, ErrInvalidTicket):
		return codes.InvalidArgument
	case errors.Is(err, search.ErrResourceTypeNotFound),
		errors.Is(err, catalog.ErrResourceNotFound):
		return codes.NotFound
	case errors.Is(err, auth.ErrPermissionDenied):
		return codes.PermissionDenied
	case errors.Is(err, auth.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, catalog.ErrReadOnly):
		return codes.Unimplemented
	}
	return codes.Internal
}

// toStatus converts err to a gRPC status error. Errors that already carry
// a status pass through unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(statusCode(err), err.Error())
}
