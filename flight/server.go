// Package flight provides the Arrow Flight RPC handlers of the search service.
package flight

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/sagesearch/auth"
	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/search"
)

// Server implements the Flight service handlers.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer

	searcher      *search.Searcher
	catalog       catalog.Catalog
	authenticator auth.Authenticator
	allocator     memory.Allocator
	logger        *slog.Logger
	address       string // Server's public address for FlightEndpoint locations
}

// NewServer creates a new Flight server answering searches with searcher
// over cat. The address parameter specifies the server's public address
// for FlightEndpoint locations.
func NewServer(searcher *search.Searcher, cat catalog.Catalog, allocator memory.Allocator, logger *slog.Logger, address string) *Server {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		searcher:  searcher,
		catalog:   cat,
		allocator: allocator,
		logger:    logger,
		address:   address,
	}
}

// WithAuthenticator enables per-resource-type authorization when the
// authenticator implements auth.ResourceAuthorizer.
func (s *Server) WithAuthenticator(a auth.Authenticator) *Server {
	s.authenticator = a
	return s
}

// RegisterFlightServer registers the Flight service on the provided gRPC server.
// This follows the standard gRPC service registration pattern.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}

// authorize checks that the caller may access a resource type.
func (s *Server) authorize(ctx context.Context, rt catalog.ResourceType) error {
	if err := auth.AuthorizeResource(ctx, s.authenticator, string(rt)); err != nil {
		s.logger.Debug("Resource type access denied",
			"resource_type", rt,
			"identity", auth.IdentityFromContext(ctx),
			"trace_id", TraceIDFromContext(ctx),
		)
		return toStatus(err)
	}
	return nil
}

// endpoint builds the single FlightEndpoint for a ticket.
func (s *Server) endpoint(ticket []byte) *flight.FlightEndpoint {
	ep := &flight.FlightEndpoint{Ticket: &flight.Ticket{Ticket: ticket}}
	if s.address != "" {
		ep.Location = []*flight.Location{{Uri: "grpc://" + s.address}}
	}
	return ep
}
