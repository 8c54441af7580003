package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rahul/manuclaw/internal/tools"
	"github.com/tmc/langchaingo/llms"
)

// Planner turns one user message into an ordered execution plan by
// asking the configured model to break it into tool-backed subtasks.
// Its output is treated as opaque: the plan is never validated or
// regenerated here.
type Planner struct {
	Model    llms.Model
	Registry *tools.Registry
	Prompts  *PromptManager
}

func NewPlanner(model llms.Model, registry *tools.Registry, prompts *PromptManager) *Planner {
	return &Planner{
		Model:    model,
		Registry: registry,
		Prompts:  prompts,
	}
}

// BreakTask asks the model for an execution plan. A response that is
// unreachable, non-JSON, or structurally wrong is a hard failure for
// the run.
func (p *Planner) BreakTask(ctx context.Context, message string) (*Plan, error) {
	catalogue, err := json.MarshalIndent(p.Registry.Schemas(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool catalogue: %v", err)
	}

	userMessage := fmt.Sprintf("USER PROMPT:\n%s\n\nTOOLS JSON:\n%s", message, catalogue)

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(p.Prompts.GetPlannerPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userMessage)},
		},
	}

	resp, err := p.Model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("planner call failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("planner returned no choices")
	}

	return ParsePlan(resp.Choices[0].Content)
}

// ParsePlan decodes the planner's JSON output, tolerating a fenced
// markdown code block around it.
func ParsePlan(content string) (*Plan, error) {
	content = stripCodeFence(content)

	var plan Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, fmt.Errorf("planner did not return valid JSON: %v", err)
	}
	return &plan, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
