package sagesearch

import (
	"errors"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/sagesearch/auth"
	"github.com/hugr-lab/sagesearch/catalog"
)

// ServerConfig contains configuration for the search Flight server.
type ServerConfig struct {
	// Catalog provides the searchable resources and their schemas.
	// REQUIRED: MUST NOT be nil.
	Catalog catalog.Catalog

	// Auth provides authentication logic.
	// OPTIONAL: If nil, no authentication (all requests allowed).
	// If it also implements auth.ResourceAuthorizer, every request is
	// checked against the resource type it touches.
	Auth auth.Authenticator

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// Note: If LogLevel is specified, a new logger will be created with that level.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: If nil, uses Info level.
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level

	// MaxMessageSize sets maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses gRPC default (4MB).
	MaxMessageSize int

	// Address is the server's public address (e.g., "localhost:50051").
	// OPTIONAL: If empty, FlightEndpoint locations will not include URI.
	Address string

	// Parallelism bounds concurrent filter evaluation per search.
	// OPTIONAL: If 0, uses GOMAXPROCS.
	Parallelism int

	// DefaultMaxResults is the page size of searches that set no MaxResults.
	// OPTIONAL: If 0, uses 50. MUST NOT exceed 100.
	DefaultMaxResults int
}

// Standard errors returned by the sagesearch package.
var (
	// ErrUnauthorized indicates authentication failed.
	// Return this from Authenticator.Authenticate() for invalid tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidConfig indicates ServerConfig validation failed.
	ErrInvalidConfig = errors.New("invalid server config")

	// ErrDuplicateResourceType indicates two catalogs serve the same resource type.
	ErrDuplicateResourceType = errors.New("resource type served by more than one catalog")
)

// logger resolves the configured logger.
func (c ServerConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if c.LogLevel == nil {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: *c.LogLevel,
	}))
}
