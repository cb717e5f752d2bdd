package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/search"
)

// GetFlightInfo validates a search and returns a ticket for it.
//
// Descriptors:
//   - CMD: JSON search request ({"Resource": ..., "SearchExpression": ...})
//   - PATH: [resourceType], an unfiltered search of that type
//
// The request is validated (resource type served, expression compiles,
// sort and page options valid) so errors surface before DoGet.
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	ctx = EnrichContextMetadata(ctx)

	s.logger.Debug("GetFlightInfo called",
		"type", desc.GetType(),
		"cmd_size", len(desc.GetCmd()),
		"path_length", len(desc.GetPath()),
	)

	var req *search.Request
	switch desc.GetType() {
	case flight.DescriptorCMD:
		r, err := search.ParseRequest(desc.GetCmd())
		if err != nil {
			return nil, toStatus(err)
		}
		req = r
	case flight.DescriptorPATH:
		path := desc.GetPath()
		if len(path) != 1 {
			return nil, status.Error(codes.InvalidArgument, "path must contain exactly 1 element: [resource_type]")
		}
		rt, ok := catalog.ParseResourceType(path[0])
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown resource type: %s", path[0])
		}
		req = &search.Request{Resource: rt}
	default:
		return nil, status.Error(codes.InvalidArgument, "descriptor must be CMD or PATH type")
	}

	if err := s.authorize(ctx, req.Resource); err != nil {
		return nil, err
	}
	if err := s.searcher.Validate(ctx, *req); err != nil {
		s.logger.Debug("Search request rejected",
			"resource_type", req.Resource,
			"trace_id", TraceIDFromContext(ctx),
			"error", err,
		)
		return nil, toStatus(err)
	}

	ticket, err := EncodeTicket(*req)
	if err != nil {
		s.logger.Error("Failed to encode ticket", "resource_type", req.Resource, "error", err)
		return nil, status.Errorf(codes.Internal, "failed to encode ticket: %v", err)
	}

	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(ResultSchema, s.allocator),
		FlightDescriptor: desc,
		Endpoint:         []*flight.FlightEndpoint{s.endpoint(ticket)},
		TotalRecords:     -1, // Unknown until searched
		TotalBytes:       -1,
	}, nil
}
