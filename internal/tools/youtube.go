package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	watchIDPattern = regexp.MustCompile(`v=([A-Za-z0-9_-]{11})`)
	shortIDPattern = regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`)
	bareIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// LinkDetectTool extracts a YouTube video ID from free-form user input.
type LinkDetectTool struct{}

func NewLinkDetectTool() *LinkDetectTool {
	return &LinkDetectTool{}
}

func (l *LinkDetectTool) Name() string {
	return "youtube_link_detection_tool"
}

func (l *LinkDetectTool) Description() string {
	return "Detect a YouTube link in the user's message and extract the 11-character video ID."
}

func (l *LinkDetectTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"raw_input": map[string]any{
				"type":        "string",
				"description": "The raw user message possibly containing a YouTube URL or video ID",
			},
		},
		"required": []string{"raw_input"},
	}
}

func (l *LinkDetectTool) Requires() []Field {
	return []Field{FieldRawInput}
}

func (l *LinkDetectTool) Provides() []Field {
	return []Field{FieldVideoID}
}

func (l *LinkDetectTool) Call(ctx context.Context, in Inputs) (Outputs, error) {
	raw := in[FieldRawInput]

	// Standard watch URL: v=XXXXXXXXXXX
	if m := watchIDPattern.FindStringSubmatch(raw); m != nil {
		return Outputs{FieldVideoID: m[1]}, nil
	}

	// Shortened URL: youtu.be/XXXXXXXXXXX
	if m := shortIDPattern.FindStringSubmatch(raw); m != nil {
		return Outputs{FieldVideoID: m[1]}, nil
	}

	// Bare 11-char ID
	trimmed := strings.TrimSpace(raw)
	if bareIDPattern.MatchString(trimmed) {
		return Outputs{FieldVideoID: trimmed}, nil
	}

	return nil, fmt.Errorf("no valid YouTube video ID found in input")
}
