package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/manuclaw/internal/observability"
	"github.com/rahul/manuclaw/internal/protocol"
	"github.com/rahul/manuclaw/internal/store"
	"github.com/rahul/manuclaw/internal/tools"
)

// TaskPlanner produces the execution plan for one user message.
type TaskPlanner interface {
	BreakTask(ctx context.Context, message string) (*Plan, error)
}

// MemoryWriter records one entry per executed step.
type MemoryWriter interface {
	Append(e store.Entry) error
}

// Session is the outbound side of one gateway connection. Send
// delivers one progress event in order; End closes the logical turn
// with the terminal marker.
type Session interface {
	Send(ev protocol.Event) error
	End() error
}

// Pipeline drives one user message through plan generation and
// sequential tool execution, streaming phase-tagged progress and
// recording every executed step. It is safe for concurrent Run calls:
// all per-run state lives on the stack.
type Pipeline struct {
	Planner  TaskPlanner
	Registry *tools.Registry
	Memory   MemoryWriter
	Logger   *observability.Logger
}

func NewPipeline(planner TaskPlanner, registry *tools.Registry, memory MemoryWriter, logger *observability.Logger) *Pipeline {
	return &Pipeline{
		Planner:  planner,
		Registry: registry,
		Memory:   memory,
		Logger:   logger,
	}
}

// Run orchestrates the full pipeline for one inbound message. It never
// returns an error: every failure ends in an ERROR event plus the
// terminal marker, and a dead transport simply abandons the run.
func (p *Pipeline) Run(ctx context.Context, userID, chatID int64, message string, session Session) {
	runID := uuid.NewString()
	chat := fmt.Sprintf("%d", chatID)

	observability.RunStarted()
	defer observability.RunFinished()
	observability.SetStatus(observability.StatePlanning, message)

	if session.Send(protocol.Event{Phase: protocol.PhasePlanner, Text: "Breaking task into subtasks..."}) != nil {
		return
	}

	plan, err := p.Planner.BreakTask(ctx, message)
	if err != nil {
		p.Logger.LogPlan(chat, runID, 0, err.Error())
		if session.Send(protocol.Event{Phase: protocol.PhaseError, Text: fmt.Sprintf("Task planning failed: %v", err)}) != nil {
			return
		}
		session.End()
		return
	}

	p.Logger.LogPlan(chat, runID, len(plan.Steps), "")
	if session.Send(protocol.Event{Phase: protocol.PhasePlanner, Text: fmt.Sprintf("Found %d step(s) to execute.", len(plan.Steps))}) != nil {
		return
	}

	runCtx := tools.NewContext(message)

	for _, step := range plan.Steps {
		if ctx.Err() != nil {
			return
		}

		name := step.Name
		if name == "" {
			name = step.Tool
		}
		observability.SetStatus(observability.StateExecuting, name)
		if session.Send(protocol.Event{Phase: protocol.PhaseExecutor, Text: fmt.Sprintf("Step %d: %s", step.Index, name)}) != nil {
			return
		}
		p.Logger.LogStep(chat, runID, step.Index, step.Tool)

		tool := p.Registry.Get(step.Tool)
		if step.Tool == "" || tool == nil {
			// Skip policy: an unplannable tool reference does not
			// halt the run and is not recorded.
			if session.Send(protocol.Event{Phase: protocol.PhaseGateway, Text: fmt.Sprintf("Unknown tool '%s', skipping.", step.Tool)}) != nil {
				return
			}
			continue
		}

		outputs, callErr := p.invoke(ctx, chat, runID, tool, runCtx)

		responseCode := 200
		var response string
		if callErr != nil {
			responseCode = 500
			response = serializeError(callErr)
		} else {
			response = serializeOutputs(outputs)
		}

		// The tool has executed, so its record is written before any
		// further transport traffic: a dead connection must not cost
		// an executed step its entry.
		entry := store.Entry{
			ChatID:       chatID,
			UserID:       userID,
			Prompt:       message,
			Tool:         step.Tool,
			Response:     response,
			ResponseCode: responseCode,
			Timestamp:    time.Now().Unix(),
		}
		if err := p.Memory.Append(entry); err != nil {
			p.Logger.LogMemoryWrite(chat, runID, step.Tool, err.Error())
		} else {
			p.Logger.LogMemoryWrite(chat, runID, step.Tool, "")
		}

		if responseCode != 200 {
			if session.Send(protocol.Event{Phase: protocol.PhaseError, Text: fmt.Sprintf("Failed: %v", callErr)}) != nil {
				return
			}
			session.End()
			return
		}

		if session.Send(protocol.Event{Phase: protocol.PhaseExecutor, Text: successSummary(outputs)}) != nil {
			return
		}
	}

	if session.Send(protocol.Event{Phase: protocol.PhaseMemory, Text: "Results saved to memory."}) != nil {
		return
	}
	if session.Send(protocol.Event{Phase: protocol.PhaseResult, Text: finalResult(runCtx)}) != nil {
		return
	}
	session.End()
}

// invoke gathers the tool's declared inputs, calls it, and merges its
// declared outputs. A missing prerequisite field counts as a tool
// failure, same as any error the tool itself surfaces.
func (p *Pipeline) invoke(ctx context.Context, chat, runID string, tool tools.Tool, runCtx *tools.Context) (tools.Outputs, error) {
	in, err := runCtx.Gather(tool.Requires())
	if err != nil {
		p.Logger.LogToolResult(chat, runID, tool.Name(), err.Error())
		return nil, err
	}

	p.Logger.LogToolCall(chat, runID, tool.Name())
	out, err := tool.Call(ctx, in)
	if err != nil {
		p.Logger.LogToolResult(chat, runID, tool.Name(), err.Error())
		return nil, err
	}
	p.Logger.LogToolResult(chat, runID, tool.Name(), "")

	if err := runCtx.Merge(out); err != nil {
		return nil, err
	}
	return out, nil
}

func serializeOutputs(out tools.Outputs) string {
	payload := make(map[string]string, len(out))
	for f, v := range out {
		payload[string(f)] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}

func serializeError(callErr error) string {
	data, _ := json.Marshal(map[string]string{"error": callErr.Error()})
	return string(data)
}

// successSummary renders a short progress line for a successful step:
// item counts and truncated text, never full payloads.
func successSummary(out tools.Outputs) string {
	if v, ok := out[tools.FieldVideoID]; ok {
		return fmt.Sprintf("Video ID: %s", v)
	}
	if v, ok := out[tools.FieldTranscript]; ok {
		return fmt.Sprintf("Transcript fetched (%d words)", len(strings.Fields(v)))
	}
	if _, ok := out[tools.FieldSummary]; ok {
		return "Summary ready"
	}
	if v, ok := out[tools.FieldArticle]; ok {
		return fmt.Sprintf("Article extracted (%d chars)", len(v))
	}
	if v, ok := out[tools.FieldSearchResults]; ok {
		return fmt.Sprintf("Search complete (%d chars)", len(v))
	}
	if v, ok := out[tools.FieldEmailReceipt]; ok {
		return v
	}
	return "Step completed"
}

// finalResult picks the most summary-like field the run produced.
func finalResult(runCtx *tools.Context) string {
	for _, f := range []tools.Field{tools.FieldSummary, tools.FieldSearchResults, tools.FieldArticle} {
		if v, ok := runCtx.Get(f); ok {
			return v
		}
	}
	return "No summary produced."
}
