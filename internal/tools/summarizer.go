package tools

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
)

const defaultSummarizerPrompt = "You are a concise summarizer. " +
	"Summarize the following YouTube transcript in 3-5 clear bullet points. " +
	"Be direct and informative."

// maxSummarizerInput caps the transcript handed to the model so a long
// video cannot blow the context window.
const maxSummarizerInput = 12000

// SummarizerTool condenses a fetched transcript with the configured
// chat model.
type SummarizerTool struct {
	Model        llms.Model
	SystemPrompt string
}

func NewSummarizerTool(model llms.Model) *SummarizerTool {
	return &SummarizerTool{
		Model:        model,
		SystemPrompt: defaultSummarizerPrompt,
	}
}

func (s *SummarizerTool) Name() string {
	return "transcript_summarizer_tool"
}

func (s *SummarizerTool) Description() string {
	return "Summarize a fetched transcript into a handful of clear bullet points."
}

func (s *SummarizerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"transcript_text": map[string]any{
				"type":        "string",
				"description": "The full transcript text to summarize",
			},
		},
		"required": []string{"transcript_text"},
	}
}

func (s *SummarizerTool) Requires() []Field {
	return []Field{FieldTranscript}
}

func (s *SummarizerTool) Provides() []Field {
	return []Field{FieldSummary}
}

func (s *SummarizerTool) Call(ctx context.Context, in Inputs) (Outputs, error) {
	transcript := in[FieldTranscript]
	if len(transcript) > maxSummarizerInput {
		// Back off to a rune boundary so the cut never leaves a
		// partial UTF-8 sequence at the end.
		cut := maxSummarizerInput
		for cut > 0 && !utf8.RuneStart(transcript[cut]) {
			cut--
		}
		transcript = transcript[:cut]
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(s.SystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(transcript)},
		},
	}

	resp, err := s.Model.GenerateContent(ctx, messages, llms.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("summarization failed: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, fmt.Errorf("summarization returned no content")
	}

	return Outputs{FieldSummary: resp.Choices[0].Content}, nil
}
