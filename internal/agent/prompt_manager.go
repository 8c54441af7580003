package agent

import (
	"os"
	"path/filepath"
)

const defaultPlannerPrompt = `You are a task planning engine.

You receive:
1. A user prompt.
2. A JSON catalogue describing available tools.

Your job:
- Break the user prompt into clear, ordered subtasks.
- Assign exactly one tool per subtask.
- Use only tools defined in the provided catalogue.
- Return ONLY valid JSON.
- Do not explain anything.
Output format:
{
  "execution_plan": [
    {
      "step": int,
      "subtask_name": "string",
      "description": "string",
      "tool_to_use": "string",
      "reasoning": "short explanation"
    }
  ]
}`

// PromptManager loads prompt overrides from a directory, falling back
// to the built-in defaults so the server runs without any prompt files.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetPlannerPrompt returns the planner system prompt, preferring
// planner.md in the prompt directory when it exists.
func (pm *PromptManager) GetPlannerPrompt() string {
	if pm.Directory != "" {
		path := filepath.Join(pm.Directory, "planner.md")
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return string(data)
		}
	}
	return defaultPlannerPrompt
}
