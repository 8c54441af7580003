package agent

// Step is one planned tool invocation. The JSON field names match the
// planner's output format exactly.
type Step struct {
	Index       int    `json:"step"`
	Name        string `json:"subtask_name"`
	Description string `json:"description"`
	Tool        string `json:"tool_to_use"`
	Reasoning   string `json:"reasoning"`
}

// Plan is the ordered sequence of steps produced for one user message.
// It is immutable once produced.
type Plan struct {
	Steps []Step `json:"execution_plan"`
}
