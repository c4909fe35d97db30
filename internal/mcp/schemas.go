package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func indexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hermes_index",
		Description: "Re-index the project files into the knowledge graph. Run after adding or changing files.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hermes_search",
		Description: "Search the codebase knowledge graph. Returns pointers, not full content. Records token savings in accounting.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language or keyword search query",
				},
			},
			Required: []string{"query"},
		},
	}
}

func fetchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hermes_fetch",
		Description: "Fetch full content for a specific knowledge-graph node by ID returned by hermes_search.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node_id": map[string]interface{}{
					"type":        "string",
					"description": "Node ID from a previous search result",
				},
			},
			Required: []string{"node_id"},
		},
	}
}

func factTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hermes_fact",
		Description: "Record a persistent fact (decision, learning, constraint, etc.) into the temporal store.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"fact_type": map[string]interface{}{
					"type":        "string",
					"description": "One of: architecture, decision, learning, constraint, error_pattern, api_contract",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The fact to record",
				},
			},
			Required: []string{"fact_type", "content"},
		},
	}
}

func factsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hermes_facts",
		Description: "List active facts from the temporal store, optionally filtered by type.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"fact_type": map[string]interface{}{
					"type":        "string",
					"description": "Optional filter type (omit for all)",
				},
			},
		},
	}
}

func statsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hermes_stats",
		Description: "Return session and cumulative token savings statistics, optionally windowed to a recent period.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Optional window: \"Nh\" (hours), \"Nd\" (days), or \"all\" (default)",
				},
			},
		},
	}
}
