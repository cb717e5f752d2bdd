package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DoGet runs the search encoded in the ticket and streams one page of
// results as Arrow record batches of ResultSchema.
// The page's NextToken travels in the stream schema metadata under
// MetadataNextToken; clients fetch the next page with a ticket for the same
// request carrying that token.
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("DoGet called", "ticket_size", len(ticket.GetTicket()))

	req, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		s.logger.Error("Failed to decode ticket", "error", err)
		return toStatus(err)
	}
	if err := s.authorize(ctx, req.Resource); err != nil {
		return err
	}

	resp, err := s.searcher.Search(ctx, *req)
	if err != nil {
		code := statusCode(err)
		if code == codes.Internal {
			s.logger.Error("Search failed",
				"resource_type", req.Resource,
				"trace_id", TraceIDFromContext(ctx),
				"error", err,
			)
		}
		return status.Error(code, err.Error())
	}

	schema := resultSchema(resp.NextToken)
	record, err := buildResultRecord(s.allocator, schema, resp.Results)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to build results: %v", err)
	}
	defer record.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(schema), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	if err := ctx.Err(); err != nil {
		return status.Error(codes.Canceled, "request cancelled")
	}
	if err := writer.Write(record); err != nil {
		s.logger.Error("Failed to write record batch",
			"resource_type", req.Resource,
			"error", err,
		)
		return status.Errorf(codes.Internal, "failed to write results: %v", err)
	}

	s.logger.Debug("DoGet completed",
		"resource_type", req.Resource,
		"rows", record.NumRows(),
		"has_next_page", resp.NextToken != "",
		"trace_id", TraceIDFromContext(ctx),
	)
	return nil
}
