// Package sagesearch provides a high-level API for building Apache Arrow Flight
// servers that answer SageMaker-style Search requests over a catalog of
// ML resources (training jobs, endpoints, models, pipelines and more).
//
// The sagesearch package simplifies building search servers by:
//   - Registering Flight service handlers on an existing grpc.Server
//   - Providing a fluent catalog builder API for static resource catalogs
//   - Supporting dynamic catalog implementations via interfaces
//   - Handling authentication with bearer tokens and per-resource-type access lists
//   - Paginating results with opaque, request-bound NextTokens
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//	    "net"
//
//	    "google.golang.org/grpc"
//
//	    "github.com/hugr-lab/sagesearch"
//	    "github.com/hugr-lab/sagesearch/catalog"
//	)
//
//	func main() {
//	    cat, err := sagesearch.NewCatalogBuilder().
//	        ResourceType(catalog.TrainingJob).
//	            Document("arn:aws:sagemaker:us-east-1:123456789012:training-job/a", map[string]any{
//	                "TrainingJobStatus": "Completed",
//	                "CreationTime":      "2024-05-01T10:00:00Z",
//	                "Metrics":           map[string]any{"accuracy": 0.93},
//	            }).
//	        Build()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    config := sagesearch.ServerConfig{Catalog: cat}
//	    grpcServer := grpc.NewServer(sagesearch.ServerOptions(config)...)
//	    srv, err := sagesearch.NewServer(grpcServer, config)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer srv.Close()
//
//	    lis, _ := net.Listen("tcp", ":50051")
//	    grpcServer.Serve(lis)
//	}
//
// # Searching
//
// Clients search with a JSON request in the SageMaker wire shape, sent as a
// CMD FlightDescriptor to GetFlightInfo (then DoGet on the returned ticket)
// or as the body of the "search" DoAction:
//
//	{
//	  "Resource": "TrainingJob",
//	  "SearchExpression": {
//	    "Filters": [{"Name": "Metrics.accuracy", "Operator": "GreaterThan", "Value": "0.9"}],
//	    "SubExpressions": [{"Operator": "Or", "Filters": [...]}]
//	  },
//	  "SortBy": "CreationTime",
//	  "SortOrder": "Descending",
//	  "MaxResults": 10
//	}
//
// Filters are validated against the declared type of each property (Text,
// Number or Timestamp) before any resource is evaluated.
//
// # Architecture
//
//   - filter: FilterExpression parsing, validation and evaluation
//   - catalog: Catalog interface, resource types, default property schemas
//   - search: request execution, sorting and pagination
//   - store/duck: DuckDB-backed writable catalog with filter pushdown
//   - flight: Arrow Flight RPC handlers
//   - auth: bearer token authentication and resource type authorization
//
// Users can either:
//   - Use the CatalogBuilder fluent API for static catalogs
//   - Open a store/duck Store for a persistent, writable catalog
//   - Implement the catalog.Catalog interface for dynamic catalogs
//   - Combine several catalogs with MultiCatalog
//
// # Server Lifecycle
//
// The package registers Flight service handlers on a user-provided grpc.Server
// but does NOT manage server lifecycle (start/stop/listen). This gives users
// full control over:
//   - TLS configuration via grpc.Creds()
//   - Server options and interceptors
//   - Graceful shutdown via grpcServer.GracefulStop()
//
// # Authentication
//
// Bearer token authentication is supported via the BearerAuth helper.
// WithResourceACL additionally restricts identities to resource types:
//
//	auth := sagesearch.WithResourceACL(sagesearch.BearerAuth(func(token string) (string, error) {
//	    if token == "secret-api-key" {
//	        return "ml-team", nil
//	    }
//	    return "", sagesearch.ErrUnauthorized
//	}), map[string][]string{"ml-team": {"TrainingJob", "Model"}})
//
// # Logging
//
// The package logs through log/slog. Pass ServerConfig.Logger or
// ServerConfig.LogLevel, or configure slog.SetDefault().
//
// # Context Cancellation
//
// Searches respect ctx.Done(): candidate evaluation stops and the RPC
// returns Canceled when the client disconnects.
package sagesearch
