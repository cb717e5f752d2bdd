package sagesearch

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/sagesearch/auth"
	"github.com/hugr-lab/sagesearch/flight"
	"github.com/hugr-lab/sagesearch/search"
)

// Server is a search Flight service registered on a gRPC server.
type Server struct {
	searcher *search.Searcher
	flight   *flight.Server
}

// NewServer registers the search Flight service handlers on the provided gRPC server.
// This is the main entry point for the sagesearch package.
//
// The function:
//  1. Validates the ServerConfig
//  2. Creates the searcher and the Flight service implementation
//  3. Registers it on grpcServer
//
// Returns error if config is invalid (e.g., nil Catalog).
// Does NOT start the gRPC server - user controls lifecycle via grpcServer.Serve().
// Call Close after the gRPC server has stopped.
//
// For authentication and request tracing, create the gRPC server with ServerOptions:
//
//	config := sagesearch.ServerConfig{
//	    Catalog: cat,
//	    Auth:    sagesearch.BearerAuth(validateToken),
//	}
//	grpcServer := grpc.NewServer(sagesearch.ServerOptions(config)...)
//	srv, err := sagesearch.NewServer(grpcServer, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) (*Server, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	logger := config.logger()

	searcher, err := search.New(config.Catalog, search.Options{
		Parallelism:       config.Parallelism,
		DefaultMaxResults: config.DefaultMaxResults,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	flightServer := flight.NewServer(searcher, config.Catalog, allocator, logger, config.Address).
		WithAuthenticator(config.Auth)
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("Search Flight server registered",
		"has_auth", config.Auth != nil,
		"max_message_size", config.MaxMessageSize,
		"address", config.Address,
	)

	return &Server{searcher: searcher, flight: flightServer}, nil
}

// Searcher returns the searcher answering the server's requests.
// Useful for in-process searches against the same catalog.
func (s *Server) Searcher() *search.Searcher {
	return s.searcher
}

// Close releases the searcher.
func (s *Server) Close() {
	s.searcher.Close()
}

// validateConfig checks that required ServerConfig fields are valid.
func validateConfig(config ServerConfig) error {
	if config.Catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must not be negative")
	}
	if config.DefaultMaxResults < 0 || config.DefaultMaxResults > search.MaxResultsLimit {
		return fmt.Errorf("default max results must be in 1..%d", search.MaxResultsLimit)
	}
	return nil
}

// ServerOptions returns gRPC server options with the request metadata and
// authentication interceptors. The metadata interceptor runs first so
// authentication failures are logged with a trace ID.
//
// Example:
//
//	config := sagesearch.ServerConfig{
//	    Catalog: cat,
//	    Auth:    sagesearch.BearerAuth(validateToken),
//	}
//	grpcServer := grpc.NewServer(sagesearch.ServerOptions(config)...)
//	sagesearch.NewServer(grpcServer, config)
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	logger := config.logger()

	unary := []grpc.UnaryServerInterceptor{flight.UnaryServerInterceptor(logger)}
	stream := []grpc.StreamServerInterceptor{flight.StreamServerInterceptor(logger)}
	if config.Auth != nil {
		unary = append(unary, auth.UnaryServerInterceptor(config.Auth))
		stream = append(stream, auth.StreamServerInterceptor(config.Auth))
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}

	return opts
}
