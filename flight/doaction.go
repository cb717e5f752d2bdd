package flight

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
	"github.com/hugr-lab/sagesearch/internal/msgpack"
	"github.com/hugr-lab/sagesearch/internal/serialize"
	"github.com/hugr-lab/sagesearch/search"
)

// Action types served by DoAction. Bodies and results are MessagePack.
const (
	ActionSearch               = "search"
	ActionValidateFilter       = "validate_filter"
	ActionEvaluateFilter       = "evaluate_filter"
	ActionGetSearchSuggestions = "get_search_suggestions"
	ActionListResourceTypes    = "list_resource_types"
	ActionDescribeSchema       = "describe_schema"
	ActionIndexResource        = "index_resource"
	ActionDeleteResource       = "delete_resource"
)

var actionTypes = []*flight.ActionType{
	{Type: ActionSearch, Description: "Run one page of a search. Body: search request (MessagePack or JSON)."},
	{Type: ActionValidateFilter, Description: "Check a search expression or filter against a resource type schema."},
	{Type: ActionEvaluateFilter, Description: "Evaluate one filter against one resource by ARN."},
	{Type: ActionGetSearchSuggestions, Description: "Suggest searchable property names for a prefix."},
	{Type: ActionListResourceTypes, Description: "List resource types and declared properties as compressed Arrow IPC."},
	{Type: ActionDescribeSchema, Description: "Describe the searchable properties of a resource type."},
	{Type: ActionIndexResource, Description: "Store a resource document (writable catalogs only)."},
	{Type: ActionDeleteResource, Description: "Remove a resource by ARN (writable catalogs only)."},
}

// ListActions lists the action types DoAction serves.
func (s *Server) ListActions(_ *flight.Empty, stream flight.FlightService_ListActionsServer) error {
	for _, at := range actionTypes {
		if err := stream.Send(at); err != nil {
			return status.Errorf(codes.Internal, "failed to send action type: %v", err)
		}
	}
	return nil
}

// DoAction executes a server action.
func (s *Server) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("DoAction called",
		"type", action.GetType(),
		"body_size", len(action.GetBody()),
		"trace_id", TraceIDFromContext(ctx),
	)

	switch action.GetType() {
	case ActionSearch:
		return s.handleSearch(ctx, action, stream)
	case ActionValidateFilter:
		return s.handleValidateFilter(ctx, action, stream)
	case ActionEvaluateFilter:
		return s.handleEvaluateFilter(ctx, action, stream)
	case ActionGetSearchSuggestions:
		return s.handleSearchSuggestions(ctx, action, stream)
	case ActionListResourceTypes:
		return s.handleListResourceTypes(ctx, stream)
	case ActionDescribeSchema:
		return s.handleDescribeSchema(ctx, action, stream)
	case ActionIndexResource:
		return s.handleIndexResource(ctx, action, stream)
	case ActionDeleteResource:
		return s.handleDeleteResource(ctx, action, stream)
	default:
		return status.Errorf(codes.Unimplemented, "unknown action type: %s", action.GetType())
	}
}

// sendResult encodes v as MessagePack and sends it as the single result.
func (s *Server) sendResult(stream flight.FlightService_DoActionServer, action string, v any) error {
	body, err := msgpack.Encode(v)
	if err != nil {
		s.logger.Error("Failed to encode action result", "action", action, "error", err)
		return status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	if err := stream.Send(&flight.Result{Body: body}); err != nil {
		s.logger.Error("Failed to send action result", "action", action, "error", err)
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}
	return nil
}

// decodeParams decodes a MessagePack action body into params.
func decodeParams(action *flight.Action, params any) error {
	if err := msgpack.Decode(action.GetBody(), params); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid %s parameters: %v", action.GetType(), err)
	}
	return nil
}

// resourceType parses a resource type parameter.
func resourceType(name string) (catalog.ResourceType, error) {
	rt, ok := catalog.ParseResourceType(name)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "unknown resource type: %q", name)
	}
	return rt, nil
}

// SearchResult is the result of the search action.
type SearchResult struct {
	Results   []ResultItem `msgpack:"results"`
	NextToken string       `msgpack:"next_token,omitempty"`
}

// handleSearch runs one page of a search.
//
// Request format: a search request, either JSON (SageMaker wire shape) or
// MessagePack with the same keys:
//
//	{
//	  "Resource": "TrainingJob",
//	  "SearchExpression": {"Filters": [{"Name": "Metrics.accuracy", "Operator": "GreaterThan", "Value": "0.9"}]},
//	  "SortBy": "Metrics.accuracy",
//	  "MaxResults": 10
//	}
func (s *Server) handleSearch(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	req, err := decodeSearchRequest(action.GetBody())
	if err != nil {
		return toStatus(err)
	}
	if err := s.authorize(ctx, req.Resource); err != nil {
		return err
	}

	resp, err := s.searcher.Search(ctx, *req)
	if err != nil {
		if statusCode(err) == codes.Internal {
			s.logger.Error("Search failed", "resource_type", req.Resource, "error", err)
		}
		return toStatus(err)
	}

	return s.sendResult(stream, action.GetType(), SearchResult{
		Results:   resultItems(resp.Results),
		NextToken: resp.NextToken,
	})
}

// decodeSearchRequest accepts JSON or MessagePack. MessagePack bodies are
// converted to JSON first so operators and numeric values are read the same
// way in both encodings.
func decodeSearchRequest(body []byte) (*search.Request, error) {
	if len(body) > 0 && body[0] == '{' {
		return search.ParseRequest(body)
	}

	data, err := msgpack.ToJSON(body)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid search parameters: %v", err)
	}
	if data == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid search parameters: empty body")
	}
	return search.ParseRequest(data)
}

// parseExpression reads an optional MessagePack search expression.
func parseExpression(raw msgpack.RawMessage) (*filter.SearchExpression, error) {
	data, err := msgpack.ToJSON(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid search expression: %v", err)
	}
	if data == nil {
		return nil, nil
	}
	expr, err := filter.Parse(data)
	if err != nil {
		return nil, invalidInput(err)
	}
	return expr, nil
}

// parseFilter reads a MessagePack filter object.
func parseFilter(raw msgpack.RawMessage) (filter.Filter, error) {
	data, err := msgpack.ToJSON(raw)
	if err != nil {
		return filter.Filter{}, status.Errorf(codes.InvalidArgument, "invalid filter: %v", err)
	}
	if data == nil {
		return filter.Filter{}, status.Error(codes.InvalidArgument, "filter is required")
	}
	f, err := filter.ParseFilter(data)
	if err != nil {
		return filter.Filter{}, invalidInput(err)
	}
	return f, nil
}

// invalidInput marks a syntax error from the filter parser as a bad
// request. Semantic errors already wrap filter.ErrInvalidFilter.
func invalidInput(err error) error {
	if errors.Is(err, filter.ErrInvalidFilter) {
		return err
	}
	return fmt.Errorf("%w: %w", search.ErrInvalidRequest, err)
}

// ValidateResult is the result of the validate_filter action.
type ValidateResult struct {
	Valid bool   `msgpack:"valid"`
	Error string `msgpack:"error,omitempty"`
}

// handleValidateFilter checks an expression or a single filter against the
// schema of a resource type. Invalid input is reported in the result, not
// as an RPC error.
//
// Request format (MessagePack):
//
//	{
//	  "resource": "TrainingJob",
//	  "search_expression": {"Filters": [...]},   // or
//	  "filter": {"Name": "TrainingJobStatus", "Operator": "Equals", "Value": "Completed"}
//	}
func (s *Server) handleValidateFilter(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var params struct {
		Resource         string             `msgpack:"resource"`
		SearchExpression msgpack.RawMessage `msgpack:"search_expression"`
		Filter           msgpack.RawMessage `msgpack:"filter"`
	}
	if err := decodeParams(action, &params); err != nil {
		return err
	}
	rt, err := resourceType(params.Resource)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, rt); err != nil {
		return err
	}

	err = s.validateParams(ctx, rt, params.SearchExpression, params.Filter)

	result := ValidateResult{Valid: true}
	if err != nil {
		switch statusCode(err) {
		case codes.InvalidArgument:
			result = ValidateResult{Error: err.Error()}
		default:
			return toStatus(err)
		}
	}
	return s.sendResult(stream, action.GetType(), result)
}

// validateParams parses the expression or filter of a validate_filter call
// and validates it. A filter takes precedence over an expression.
func (s *Server) validateParams(ctx context.Context, rt catalog.ResourceType, rawExpr, rawFilter msgpack.RawMessage) error {
	req := search.Request{Resource: rt}
	if len(rawFilter) > 0 {
		f, err := parseFilter(rawFilter)
		if err != nil {
			return err
		}
		expr := filter.AllOf(f)
		req.SearchExpression = &expr
	} else {
		expr, err := parseExpression(rawExpr)
		if err != nil {
			return err
		}
		req.SearchExpression = expr
	}
	return s.searcher.Validate(ctx, req)
}

// EvaluateResult is the result of the evaluate_filter action.
type EvaluateResult struct {
	Matched bool `msgpack:"matched"`
}

// handleEvaluateFilter decides one filter against one stored resource.
//
// Request format (MessagePack):
//
//	{
//	  "arn": "arn:aws:sagemaker:...:training-job/a",
//	  "filter": {"Name": "Metrics.accuracy", "Operator": "GreaterThan", "Value": "0.9"}
//	}
func (s *Server) handleEvaluateFilter(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var params struct {
		ARN    string             `msgpack:"arn"`
		Filter msgpack.RawMessage `msgpack:"filter"`
	}
	if err := decodeParams(action, &params); err != nil {
		return err
	}
	f, err := parseFilter(params.Filter)
	if err != nil {
		return toStatus(err)
	}

	res, err := s.catalog.Resource(ctx, params.ARN)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to get resource: %v", err)
	}
	if res == nil {
		return status.Errorf(codes.NotFound, "resource not found: %s", params.ARN)
	}
	if err := s.authorize(ctx, res.Type); err != nil {
		return err
	}

	matched, err := s.searcher.Evaluate(ctx, params.ARN, f)
	if err != nil {
		return toStatus(err)
	}
	return s.sendResult(stream, action.GetType(), EvaluateResult{Matched: matched})
}

// SuggestionsResult is the result of the get_search_suggestions action.
type SuggestionsResult struct {
	Suggestions []string `msgpack:"suggestions"`
}

// handleSearchSuggestions returns property names starting with a hint.
//
// Request format (MessagePack):
//
//	{
//	  "resource": "TrainingJob",
//	  "property_name_hint": "Metrics.",
//	  "limit": 10
//	}
func (s *Server) handleSearchSuggestions(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var params struct {
		Resource string `msgpack:"resource"`
		Hint     string `msgpack:"property_name_hint"`
		Limit    int    `msgpack:"limit"`
	}
	if err := decodeParams(action, &params); err != nil {
		return err
	}
	rt, err := resourceType(params.Resource)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, rt); err != nil {
		return err
	}

	suggestions, err := s.searcher.Suggest(ctx, rt, params.Hint, params.Limit)
	if err != nil {
		return toStatus(err)
	}
	return s.sendResult(stream, action.GetType(), SuggestionsResult{Suggestions: suggestions})
}

// handleListResourceTypes returns every resource type with its declared
// properties as ZStandard-compressed Arrow IPC (serialize.ResourceTypesSchema).
//
// The result is encoded as a MessagePack ARRAY [uncompressed_length, data].
func (s *Server) handleListResourceTypes(ctx context.Context, stream flight.FlightService_DoActionServer) error {
	compressed, size, err := serialize.CompressResourceTypes(ctx, s.catalog, s.allocator)
	if err != nil {
		s.logger.Error("Failed to serialize resource types", "error", err)
		return status.Errorf(codes.Internal, "failed to serialize resource types: %v", err)
	}

	s.logger.Debug("Resource types serialized",
		"uncompressed_bytes", size,
		"compressed_bytes", len(compressed),
	)

	return s.sendResult(stream, ActionListResourceTypes, []interface{}{
		uint32(size),
		string(compressed),
	})
}

// PropertyDescription describes one declared property or prefix.
type PropertyDescription struct {
	Name     string `msgpack:"name"`
	Type     string `msgpack:"type"`
	IsPrefix bool   `msgpack:"is_prefix"`
}

// SchemaDescription is the result of the describe_schema action.
type SchemaDescription struct {
	Resource   string                `msgpack:"resource"`
	Properties []PropertyDescription `msgpack:"properties"`
	Enums      map[string][]string   `msgpack:"enums,omitempty"`
}

// handleDescribeSchema lists the searchable properties of a resource type
// and the allowed values of its status properties.
//
// Request format (MessagePack):
//
//	{"resource": "Endpoint"}
func (s *Server) handleDescribeSchema(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var params struct {
		Resource string `msgpack:"resource"`
	}
	if err := decodeParams(action, &params); err != nil {
		return err
	}
	rt, err := resourceType(params.Resource)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, rt); err != nil {
		return err
	}

	schema, err := s.catalog.Schema(ctx, rt)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to get schema: %v", err)
	}
	if schema == nil {
		return status.Errorf(codes.NotFound, "resource type not served: %s", rt)
	}

	desc := SchemaDescription{Resource: string(rt)}
	for _, name := range schema.Names() {
		typ, _ := schema.Resolve(name)
		desc.Properties = append(desc.Properties, PropertyDescription{Name: name, Type: typ.String()})
	}
	decls := schema.Declarations()
	for _, prefix := range schema.Prefixes() {
		desc.Properties = append(desc.Properties, PropertyDescription{Name: prefix, Type: decls[prefix].String(), IsPrefix: true})
	}
	if enums := catalog.Enums(rt); len(enums) > 0 {
		desc.Enums = make(map[string][]string, len(enums))
		for name, enum := range enums {
			desc.Enums[name] = enum.Values()
		}
	}
	return s.sendResult(stream, action.GetType(), desc)
}

// IndexResult is the result of the index_resource and delete_resource actions.
type IndexResult struct {
	ARN string `msgpack:"arn"`
}

// handleIndexResource stores a resource document in a writable catalog.
// Nested document objects flatten to dotted property names.
//
// Request format (MessagePack):
//
//	{
//	  "arn": "arn:aws:sagemaker:...:training-job/a",
//	  "resource_type": "TrainingJob",
//	  "document": {"TrainingJobStatus": "Completed", "Metrics": {"accuracy": 0.93}}
//	}
func (s *Server) handleIndexResource(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	w, ok := s.catalog.(catalog.Writer)
	if !ok {
		return toStatus(catalog.ErrReadOnly)
	}

	params, err := msgpack.DecodeMap(action.GetBody())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid %s parameters: %v", action.GetType(), err)
	}
	arn, _ := params["arn"].(string)
	typeName, _ := params["resource_type"].(string)
	doc, _ := params["document"].(map[string]interface{})
	if arn == "" {
		return status.Error(codes.InvalidArgument, "arn is required")
	}
	rt, err := resourceType(typeName)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, rt); err != nil {
		return err
	}

	schema, err := s.catalog.Schema(ctx, rt)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to get schema: %v", err)
	}
	if schema == nil {
		return status.Errorf(codes.NotFound, "resource type not served: %s", rt)
	}
	res, err := catalog.NewResource(arn, rt, doc, schema)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid document: %v", err)
	}
	if err := res.Validate(); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid resource: %v", err)
	}
	if err := w.Put(ctx, res); err != nil {
		return s.writeFailed("store", arn, err)
	}

	s.logger.Info("Resource indexed", "arn", arn, "resource_type", rt, "properties", len(res.Properties))
	return s.sendResult(stream, action.GetType(), IndexResult{ARN: arn})
}

// handleDeleteResource removes a resource from a writable catalog.
//
// Request format (MessagePack):
//
//	{"arn": "arn:aws:sagemaker:...:training-job/a"}
func (s *Server) handleDeleteResource(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	w, ok := s.catalog.(catalog.Writer)
	if !ok {
		return toStatus(catalog.ErrReadOnly)
	}

	var params struct {
		ARN string `msgpack:"arn"`
	}
	if err := decodeParams(action, &params); err != nil {
		return err
	}
	if params.ARN == "" {
		return status.Error(codes.InvalidArgument, "arn is required")
	}

	res, err := s.catalog.Resource(ctx, params.ARN)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to get resource: %v", err)
	}
	if res != nil {
		if err := s.authorize(ctx, res.Type); err != nil {
			return err
		}
	}
	if err := w.Delete(ctx, params.ARN); err != nil {
		return s.writeFailed("delete", params.ARN, err)
	}

	s.logger.Info("Resource deleted", "arn", params.ARN)
	return s.sendResult(stream, action.GetType(), IndexResult{ARN: params.ARN})
}

// writeFailed converts a Put or Delete error to a status. Only unexpected
// failures are logged at Error.
func (s *Server) writeFailed(op, arn string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error("Failed to "+op+" resource", "arn", arn, "error", err)
	} else {
		s.logger.Debug("Resource "+op+" rejected", "arn", arn, "error", err)
	}
	return st
}
