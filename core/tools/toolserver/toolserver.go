// Package toolserver exposes the welfare tools to other agents over the
// Model Context Protocol.
package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/koscakluka/ema-welfare/core/planner"
	"github.com/koscakluka/ema-welfare/core/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Name = "ema-welfare"

// Executor runs a tool step. Failures are reported through the Output.
type Executor interface {
	Execute(ctx context.Context, step planner.Step) tools.Output
}

type EligibilityArgs struct {
	SchemeID   string   `json:"scheme_id" jsonschema:"id of the scheme to check such as aasara_pension"`
	Age        *int     `json:"age,omitempty" jsonschema:"age in years"`
	Income     *int     `json:"income,omitempty" jsonschema:"annual family income in rupees"`
	Occupation *string  `json:"occupation,omitempty"`
	LandAcres  *float64 `json:"land_acres,omitempty" jsonschema:"agricultural land in acres"`
	Caste      *string  `json:"caste,omitempty"`
}

type SearchArgs struct {
	SchemeID string   `json:"scheme_id,omitempty" jsonschema:"exact scheme id"`
	Keywords []string `json:"keywords,omitempty" jsonschema:"words matched against scheme names and descriptions"`
}

// New returns an MCP server offering check_eligibility and search_schemes.
func New(executor Executor, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        tools.CheckEligibility,
		Description: "Check whether a user qualifies for a Telangana welfare scheme. Reports missing facts before any rejection.",
	}, handler[EligibilityArgs](executor, tools.CheckEligibility))

	mcp.AddTool(server, &mcp.Tool{
		Name:        tools.SearchSchemes,
		Description: "Look up a Telangana welfare scheme by id or search the catalog by keywords.",
	}, handler[SearchArgs](executor, tools.SearchSchemes))

	return server
}

func handler[In any](executor Executor, name string) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		arguments, err := toArguments(in)
		if err != nil {
			return nil, nil, err
		}

		out := executor.Execute(ctx, planner.Step{ToolName: name, Arguments: arguments})

		var buf bytes.Buffer
		encoder := json.NewEncoder(&buf)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(out); err != nil {
			return nil, nil, fmt.Errorf("failed to encode %s result: %w", name, err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: buf.String()}},
			IsError: !out.Success,
		}, nil, nil
	}
}

func toArguments(in any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	arguments := map[string]any{}
	if err := json.Unmarshal(raw, &arguments); err != nil {
		return nil, err
	}
	return arguments, nil
}
