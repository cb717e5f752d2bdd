package auth

import (
	"context"
	"fmt"
)

// bearerAuthenticator wraps a user-provided validation function.
type bearerAuthenticator struct {
	validateFunc func(token string) (identity string, err error)
}

// BearerAuth creates an Authenticator from a validation function.
// This is the simplest way to add authentication.
//
// Example:
//
//	auth := BearerAuth(func(token string) (string, error) {
//	    user, err := validateWithMyBackend(token)
//	    if err != nil {
//	        return "", sagesearch.ErrUnauthorized
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validateFunc func(token string) (identity string, err error)) Authenticator {
	return &bearerAuthenticator{
		validateFunc: validateFunc,
	}
}

// Authenticate implements Authenticator for bearerAuthenticator.
// Calls the user-provided validation function with the token.
func (b *bearerAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return b.validateFunc(token)
}

// resourceACL restricts an Authenticator to per-identity resource types.
type resourceACL struct {
	Authenticator
	allowed map[string]map[string]struct{}
}

// WithResourceACL wraps an Authenticator with a static access list mapping
// identities to the resource types they may search. Identities missing
// from the list are denied every resource type; the identity "*" applies
// to everyone.
//
// Example:
//
//	auth := WithResourceACL(BearerAuth(validate), map[string][]string{
//	    "ml-team": {"TrainingJob", "Model"},
//	    "*":       {"Endpoint"},
//	})
func WithResourceACL(authenticator Authenticator, acl map[string][]string) Authenticator {
	allowed := make(map[string]map[string]struct{}, len(acl))
	for identity, types := range acl {
		set := make(map[string]struct{}, len(types))
		for _, rt := range types {
			set[rt] = struct{}{}
		}
		allowed[identity] = set
	}
	return &resourceACL{Authenticator: authenticator, allowed: allowed}
}

// AuthorizeResource implements ResourceAuthorizer.
func (a *resourceACL) AuthorizeResource(ctx context.Context, resourceType string) error {
	identity := IdentityFromContext(ctx)
	for _, key := range []string{identity, "*"} {
		if _, ok := a.allowed[key][resourceType]; ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %q may not access %s", ErrPermissionDenied, identity, resourceType)
}
