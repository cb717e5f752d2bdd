package flight

import (
	"encoding/json"
	"fmt"

	"github.com/hugr-lab/sagesearch/search"
)

// ticketVersion is bumped when TicketData changes incompatibly.
const ticketVersion = 1

// TicketData represents the decoded content of a Flight ticket: the
// search request DoGet runs.
type TicketData struct {
	Version int             `json:"v"`
	Request json.RawMessage `json:"request"`
}

// EncodeTicket creates an opaque ticket for a search request.
// The ticket is JSON-encoded for simplicity and transparency.
func EncodeTicket(req search.Request) ([]byte, error) {
	if !req.Resource.IsValid() {
		return nil, fmt.Errorf("%w: unknown resource type %q", ErrInvalidTicket, req.Resource)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket request: %w", err)
	}
	data, err := json.Marshal(TicketData{Version: ticketVersion, Request: body})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return data, nil
}

// DecodeTicket parses an opaque ticket back into its search request.
func DecodeTicket(ticketBytes []byte) (*search.Request, error) {
	if len(ticketBytes) == 0 {
		return nil, fmt.Errorf("%w: ticket cannot be empty", ErrInvalidTicket)
	}

	var ticket TicketData
	if err := json.Unmarshal(ticketBytes, &ticket); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if ticket.Version != ticketVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidTicket, ticket.Version)
	}
	if len(ticket.Request) == 0 {
		return nil, fmt.Errorf("%w: missing request", ErrInvalidTicket)
	}

	req, err := search.ParseRequest(ticket.Request)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}
	return req, nil
}
