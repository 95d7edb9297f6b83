// Package ytserver exposes the YouTube tool contracts over MCP. Tool schemas
// come from the dispatch registry, so the server advertises exactly what the
// dispatch engine validates against.
package ytserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_youtube/internal/dispatch"
	"github.com/anatolykoptev/go_youtube/internal/engine"
)

// Handlers returns the handler for every tool contract in tools.json.
func Handlers() map[string]dispatch.Handler {
	return map[string]dispatch.Handler{
		"search_videos":  handleSearchVideos,
		"get_videos":     handleGetVideos,
		"get_transcript": handleGetTranscript,
	}
}

// RegisterTools adds every contract of the dispatch engine to the MCP server.
// Calls are routed through eng.Call so input and output validation always run.
func RegisterTools(server *mcp.Server, eng *dispatch.Engine) error {
	for _, contract := range eng.ListTools() {
		inputSchema, err := rawSchema(contract.RawInputSchema)
		if err != nil {
			return fmt.Errorf("tool %s: input schema: %w", contract.Name, err)
		}
		outputSchema, err := rawSchema(contract.RawOutputSchema)
		if err != nil {
			return fmt.Errorf("tool %s: output schema: %w", contract.Name, err)
		}
		name := contract.Name
		server.AddTool(&mcp.Tool{
			Name:         name,
			Description:  contract.Description,
			InputSchema:  inputSchema,
			OutputSchema: outputSchema,
			Annotations:  &mcp.ToolAnnotations{ReadOnlyHint: true},
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return dispatchCall(ctx, eng, name, req)
		})
	}
	return nil
}

func dispatchCall(ctx context.Context, eng *dispatch.Engine, name string, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	engine.IncrDispatches()

	var args map[string]any
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			engine.IncrDispatchErrors()
			return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}

	result, err := eng.Call(ctx, name, args)
	if err != nil {
		engine.IncrDispatchErrors()
		return nil, err
	}

	text, err := json.Marshal(result)
	if err != nil {
		engine.IncrDispatchErrors()
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
		StructuredContent: result,
	}, nil
}

// rawSchema decodes a registry schema into the generic form mcp.Tool expects.
func rawSchema(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{"type": "object"}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// --- argument coercion helpers shared by the tool handlers ---

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// stringSliceArg coerces args[key] to []string. A missing or null value is
// fine and yields (nil, true); anything that is not an array of strings
// yields false.
func stringSliceArg(args map[string]any, key string) ([]string, bool) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, true
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
