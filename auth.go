package sagesearch

import (
	"context"

	"github.com/hugr-lab/sagesearch/auth"
)

// Authenticator validates bearer tokens and returns user identity.
// This is re-exported from the auth package for convenience.
type Authenticator = auth.Authenticator

// ResourceAuthorizer restricts identities to resource types.
// This is re-exported from the auth package for convenience.
type ResourceAuthorizer = auth.ResourceAuthorizer

// BearerAuth creates an Authenticator from a validation function.
// This is the simplest way to add authentication to your search server.
//
// Example:
//
//	auth := sagesearch.BearerAuth(func(token string) (string, error) {
//	    user, err := validateWithMyBackend(token)
//	    if err != nil {
//	        return "", sagesearch.ErrUnauthorized
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return auth.BearerAuth(validateFunc)
}

// WithResourceACL restricts an Authenticator to per-identity resource types.
// The identity "*" applies to everyone.
//
// Example:
//
//	auth := sagesearch.WithResourceACL(sagesearch.BearerAuth(validate), map[string][]string{
//	    "ml-team": {"TrainingJob", "Model"},
//	})
func WithResourceACL(authenticator Authenticator, acl map[string][]string) Authenticator {
	return auth.WithResourceACL(authenticator, acl)
}

// NoAuth returns an Authenticator that allows all requests without validation.
// Useful for development and testing. DO NOT use in production.
func NoAuth() Authenticator {
	return auth.NoAuth()
}

// IdentityFromContext retrieves the authenticated user identity from context.
// Returns empty string if no identity is set (unauthenticated request).
// Catalog implementations can use it to scope the resources they return.
func IdentityFromContext(ctx context.Context) string {
	return auth.IdentityFromContext(ctx)
}
