package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hermes-engine/hermes/internal/accounting"
	"github.com/hermes-engine/hermes/internal/temporal"
	"github.com/hermes-engine/hermes/pkg/types"
)

// JSON-RPC error codes used by tool handlers.
const (
	ErrorCodeInvalidParams = -32602
	ErrorCodeInternalError = -32603
)

// MCPError is a JSON-RPC error the mcp-go framework encodes on the way out.
type MCPError struct {
	Code    int
	Message string
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

func invalidParams(msg string) error {
	return &MCPError{Code: ErrorCodeInvalidParams, Message: msg}
}

func internalError(err error) error {
	return &MCPError{Code: ErrorCodeInternalError, Message: err.Error()}
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argsOf(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func textResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, internalError(err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// handleIndex runs the ingestion pipeline over the server's project root.
func (s *Server) handleIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.pipeline.IngestDirectory(ctx, s.projectRoot)
	if err != nil {
		return nil, internalError(err)
	}
	return textResult(map[string]interface{}{
		"total_files":   report.TotalFiles,
		"indexed":       report.Indexed,
		"skipped":       report.Skipped,
		"errors":        report.Errors,
		"nodes_created": report.NodesCreated,
	})
}

// handleSearch runs a pointer-based search and journals its accounting.
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)
	query := stringArg(args, "query")
	if query == "" {
		return nil, invalidParams("hermes_search requires 'query'")
	}

	resp, err := s.searcher.Search(ctx, query, 10)
	if err != nil {
		return nil, internalError(err)
	}

	acct := accounting.New(s.store.DB(), s.projectID, s.sessionID)
	if err := acct.RecordQuery(ctx, query, resp.Accounting.PointerTokens, 0, resp.Accounting.TraditionalRAGEst); err != nil {
		return nil, internalError(err)
	}

	return textResult(resp)
}

// handleFetch returns the full content backing a pointer.
func (s *Server) handleFetch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)
	nodeID := stringArg(args, "node_id")
	if nodeID == "" {
		return nil, invalidParams("hermes_fetch requires 'node_id'")
	}

	resp, found, err := s.searcher.Fetch(ctx, nodeID)
	if err != nil {
		return nil, internalError(err)
	}
	if !found {
		return textResult(map[string]interface{}{
			"error": fmt.Sprintf("node not found: %s", nodeID),
		})
	}

	acct := accounting.New(s.store.DB(), s.projectID, s.sessionID)
	if err := acct.RecordQuery(ctx, nodeID, 0, resp.TokenCount, resp.TokenCount*15); err != nil {
		return nil, internalError(err)
	}

	return textResult(resp)
}

// handleFact appends a fact to the temporal store.
func (s *Server) handleFact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)
	factType := stringArg(args, "fact_type")
	content := stringArg(args, "content")
	if factType == "" || content == "" {
		return nil, invalidParams("hermes_fact requires 'fact_type' and 'content'")
	}

	store := temporal.New(s.store.DB(), s.projectID)
	id, err := store.AddFact(ctx, types.ParseFactType(factType), content, "", "")
	if err != nil {
		return nil, internalError(err)
	}

	return textResult(map[string]interface{}{"id": id, "status": "recorded"})
}

// handleFacts lists active facts, optionally filtered by type.
func (s *Server) handleFacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)
	filter := stringArg(args, "fact_type")

	var factType types.FactType
	if filter != "" {
		factType = types.ParseFactType(filter)
	}

	store := temporal.New(s.store.DB(), s.projectID)
	facts, err := store.GetActiveFacts(ctx, factType)
	if err != nil {
		return nil, internalError(err)
	}

	return textResult(facts)
}

// handleStats returns session and windowed/cumulative accounting.
func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := argsOf(request)
	since := stringArg(args, "since")

	acct := accounting.New(s.store.DB(), s.projectID, s.sessionID)

	session, err := acct.GetSessionStats(ctx)
	if err != nil {
		return nil, internalError(err)
	}

	var cumulative accounting.CumulativeStats
	if since == "" || since == "all" {
		cumulative, err = acct.GetCumulativeStats(ctx)
	} else if d, ok := accounting.ParseSinceDuration(since); ok {
		cumulative, err = acct.GetStatsSince(ctx, &d)
	} else {
		return nil, invalidParams(fmt.Sprintf("invalid 'since' value: %q", since))
	}
	if err != nil {
		return nil, internalError(err)
	}

	return textResult(map[string]interface{}{
		"session":    statsPayload(session),
		"cumulative": statsPayload(cumulative),
	})
}

func statsPayload(s accounting.CumulativeStats) map[string]interface{} {
	return map[string]interface{}{
		"total_queries":            s.TotalQueries,
		"pointer_tokens_used":      s.TotalPointerTokens,
		"fetched_tokens_used":      s.TotalFetchedTokens,
		"traditional_rag_estimate": s.TotalTraditionalEstimate,
		"tokens_saved":             s.CumulativeSavingsTokens,
		"savings_pct":              fmt.Sprintf("%.1f%%", s.CumulativeSavingsPct),
	}
}
