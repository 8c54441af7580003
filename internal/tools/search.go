package tools

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

// SearchTool answers requests that need real-time information by
// querying DuckDuckGo with the user's message.
type SearchTool struct {
	client *duckduckgo.Tool
}

func NewSearchTool() (*SearchTool, error) {
	ddg, err := duckduckgo.New(10, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &SearchTool{client: ddg}, nil
}

func (s *SearchTool) Name() string {
	return "web_search_tool"
}

func (s *SearchTool) Description() string {
	return "Search the web using DuckDuckGo for real-time information about the user's request."
}

func (s *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"raw_input": map[string]any{
				"type":        "string",
				"description": "The user's request to search the web for",
			},
		},
		"required": []string{"raw_input"},
	}
}

func (s *SearchTool) Requires() []Field {
	return []Field{FieldRawInput}
}

func (s *SearchTool) Provides() []Field {
	return []Field{FieldSearchResults}
}

func (s *SearchTool) Call(ctx context.Context, in Inputs) (Outputs, error) {
	res, err := s.client.Call(ctx, in[FieldRawInput])
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	return Outputs{FieldSearchResults: res}, nil
}
