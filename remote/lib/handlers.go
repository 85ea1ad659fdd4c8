package lib

import (
	"context"
	"encoding/json"
	"fmt"

	"owlet-mcp/pipeline"
	"owlet-mcp/retrieval"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs are the search tool arguments.
type SearchArgs struct {
	Query string `json:"query" jsonschema:"free-text query such as 'current vitals', 'active alerts', 'device status' or 'live feed'"`
}

// FetchArgs are the fetch tool arguments.
type FetchArgs struct {
	ID string `json:"id" jsonschema:"document id returned by search, e.g. vitals_AC000W123456"`
}

// Handlers serves search and fetch over the request pipeline.
type Handlers struct {
	sessions *SessionManager
	search   pipeline.Handler
	fetch    pipeline.Handler
}

func NewHandlers(source retrieval.DeviceSource, format *retrieval.Formatter, limiter *pipeline.RateLimiter, logs *pipeline.LogBuffer, sessions *SessionManager) *Handlers {
	router := retrieval.NewRouter(source, format)
	resolver := retrieval.NewResolver(source, format)

	stages := []pipeline.Stage{
		pipeline.Instrument(logs),
		pipeline.Admit(limiter),
		pipeline.Validate(retrieval.ValidateWire),
		pipeline.SanitizeOutput(),
	}

	return &Handlers{
		sessions: sessions,
		search: pipeline.Chain(func(ctx context.Context, call *pipeline.Call) (any, error) {
			query, _ := call.Arguments["query"].(string)
			return retrieval.SearchResults{Results: router.Search(ctx, query)}, nil
		}, stages...),
		fetch: pipeline.Chain(func(ctx context.Context, call *pipeline.Call) (any, error) {
			id, _ := call.Arguments["id"].(string)
			doc, err := resolver.Fetch(ctx, id)
			if err != nil {
				return nil, err
			}
			return doc, nil
		}, stages...),
	}
}

// Search runs a search on behalf of caller.
func (h *Handlers) Search(ctx context.Context, caller, query string) (retrieval.SearchResults, error) {
	out, err := h.search(ctx, &pipeline.Call{
		Tool:      "search",
		Caller:    caller,
		Arguments: map[string]any{"query": query},
	})
	if err != nil {
		return retrieval.SearchResults{}, err
	}
	return pipeline.Decode[retrieval.SearchResults](out)
}

// Fetch resolves a document id on behalf of caller.
func (h *Handlers) Fetch(ctx context.Context, caller, id string) (retrieval.Document, error) {
	out, err := h.fetch(ctx, &pipeline.Call{
		Tool:      "fetch",
		Caller:    caller,
		Arguments: map[string]any{"id": id},
	})
	if err != nil {
		return retrieval.Document{}, err
	}
	return pipeline.Decode[retrieval.Document](out)
}

func sessionID(ss *mcp.ServerSession) string {
	if ss == nil {
		return ""
	}
	return ss.ID()
}

func callerSession(request *mcp.CallToolRequest) *mcp.ServerSession {
	if request == nil {
		return nil
	}
	return request.Session
}

// textResult carries the JSON payload as text for clients that ignore
// structured content.
func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// HandleSearchTool handles the search tool. Errors are returned to the SDK,
// which reports them to the client as an error result.
func (h *Handlers) HandleSearchTool(ctx context.Context, request *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, retrieval.SearchResults, error) {
	caller := h.sessions.Track(sessionID(callerSession(request)), "search", args)

	results, err := h.Search(ctx, caller, args.Query)
	if err != nil {
		return nil, retrieval.SearchResults{}, err
	}
	result, err := textResult(results)
	if err != nil {
		return nil, retrieval.SearchResults{}, err
	}
	return result, results, nil
}

// HandleFetchTool handles the fetch tool
func (h *Handlers) HandleFetchTool(ctx context.Context, request *mcp.CallToolRequest, args FetchArgs) (*mcp.CallToolResult, retrieval.Document, error) {
	caller := h.sessions.Track(sessionID(callerSession(request)), "fetch", args)

	doc, err := h.Fetch(ctx, caller, args.ID)
	if err != nil {
		return nil, retrieval.Document{}, err
	}
	result, err := textResult(doc)
	if err != nil {
		return nil, retrieval.Document{}, err
	}
	return result, doc, nil
}
