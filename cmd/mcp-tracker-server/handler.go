package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/reddit-tracker/internal/processor"
)

// TrackCommentParams defines the input parameters for the tool
type TrackCommentParams struct {
	URL string `json:"url" jsonschema:"The Reddit comment URL to track"`
}

type tracker struct {
	proc *processor.Processor
}

// HandleTrackComment handles the track_comment tool call
func (t *tracker) HandleTrackComment(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params TrackCommentParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Tracker Server] Received track_comment request")

	if params.URL == "" {
		return nil, nil, fmt.Errorf("url parameter is required")
	}

	result, err := t.proc.ProcessOne(ctx, params.URL)
	if err != nil {
		log.Printf("[MCP Tracker Server] Failed to track comment: %v", err)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Error: %v", err),
				},
			},
			IsError: true,
		}, nil, nil
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}

	log.Printf("[MCP Tracker Server] Tracked %s: %s (rank %s)", result.URL, result.Status, result.PresentRank)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(body)},
		},
	}, nil, nil
}
