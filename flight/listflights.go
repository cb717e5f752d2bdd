package flight

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/sagesearch/auth"
	"github.com/hugr-lab/sagesearch/search"
)

// ListFlights returns one FlightInfo per searchable resource type.
// Each descriptor path is [resourceType]; its ticket runs an unfiltered
// search of that type with default sort and page size.
//
// Criteria, when set, is a case-insensitive resource type prefix.
// Resource types the caller may not access are omitted.
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	ctx := EnrichContextMetadata(stream.Context())
	prefix := strings.ToLower(string(criteria.GetExpression()))

	s.logger.Debug("ListFlights called", "criteria", prefix)

	types, err := s.catalog.ResourceTypes(ctx)
	if err != nil {
		s.logger.Error("Failed to get resource types", "error", err)
		return status.Errorf(codes.Internal, "failed to get resource types: %v", err)
	}

	schemaBytes := flight.SerializeSchema(ResultSchema, s.allocator)
	sent := 0
	for _, rt := range types {
		if !strings.HasPrefix(strings.ToLower(string(rt)), prefix) {
			continue
		}
		if auth.AuthorizeResource(ctx, s.authenticator, string(rt)) != nil {
			continue
		}

		ticket, err := EncodeTicket(search.Request{Resource: rt})
		if err != nil {
			return status.Errorf(codes.Internal, "failed to encode ticket: %v", err)
		}
		info := &flight.FlightInfo{
			Schema: schemaBytes,
			FlightDescriptor: &flight.FlightDescriptor{
				Type: flight.DescriptorPATH,
				Path: []string{string(rt)},
			},
			Endpoint:     []*flight.FlightEndpoint{s.endpoint(ticket)},
			TotalRecords: -1, // Unknown until searched
			TotalBytes:   -1,
		}
		if err := stream.Send(info); err != nil {
			s.logger.Error("Failed to send FlightInfo", "resource_type", rt, "error", err)
			return status.Errorf(codes.Internal, "failed to send flight info: %v", err)
		}
		sent++
	}

	s.logger.Debug("ListFlights completed", "flights", sent)
	return nil
}
