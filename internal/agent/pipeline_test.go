package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rahul/manuclaw/internal/observability"
	"github.com/rahul/manuclaw/internal/protocol"
	"github.com/rahul/manuclaw/internal/store"
	"github.com/rahul/manuclaw/internal/tools"
)

type fakePlanner struct {
	plan *Plan
	err  error
}

func (f *fakePlanner) BreakTask(ctx context.Context, message string) (*Plan, error) {
	return f.plan, f.err
}

type fakeTool struct {
	name     string
	requires []tools.Field
	provides []tools.Field
	run      func(in tools.Inputs) (tools.Outputs, error)
	calls    atomic.Int64
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return f.name }
func (f *fakeTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (f *fakeTool) Requires() []tools.Field    { return f.requires }
func (f *fakeTool) Provides() []tools.Field    { return f.provides }

func (f *fakeTool) Call(ctx context.Context, in tools.Inputs) (tools.Outputs, error) {
	f.calls.Add(1)
	return f.run(in)
}

// recordSession captures the encoded wire stream a real transport
// would carry, optionally failing after a fixed number of sends.
type recordSession struct {
	mu        sync.Mutex
	lines     []string
	failAfter int // <0 means never fail
}

func newRecordSession() *recordSession {
	return &recordSession{failAfter: -1}
}

func (s *recordSession) Send(ev protocol.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && len(s.lines) >= s.failAfter {
		return errors.New("connection closed")
	}
	s.lines = append(s.lines, ev.Encode())
	return nil
}

func (s *recordSession) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && len(s.lines) >= s.failAfter {
		return errors.New("connection closed")
	}
	s.lines = append(s.lines, protocol.EndMarker)
	return nil
}

func (s *recordSession) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

type fakeMemory struct {
	mu      sync.Mutex
	entries []store.Entry
	err     error
}

func (m *fakeMemory) Append(e store.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *fakeMemory) snapshot() []store.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Entry(nil), m.entries...)
}

func summarizePlanTools() (*tools.Registry, []*fakeTool) {
	detect := &fakeTool{
		name:     "youtube_link_detection_tool",
		requires: []tools.Field{tools.FieldRawInput},
		provides: []tools.Field{tools.FieldVideoID},
		run: func(in tools.Inputs) (tools.Outputs, error) {
			return tools.Outputs{tools.FieldVideoID: "dQw4w9WgXcQ"}, nil
		},
	}
	fetch := &fakeTool{
		name:     "youtube_transcript_fetch_tool",
		requires: []tools.Field{tools.FieldVideoID},
		provides: []tools.Field{tools.FieldTranscript},
		run: func(in tools.Inputs) (tools.Outputs, error) {
			return tools.Outputs{tools.FieldTranscript: "never gonna give you up"}, nil
		},
	}
	summarize := &fakeTool{
		name:     "transcript_summarizer_tool",
		requires: []tools.Field{tools.FieldTranscript},
		provides: []tools.Field{tools.FieldSummary},
		run: func(in tools.Inputs) (tools.Outputs, error) {
			return tools.Outputs{tools.FieldSummary: "- a classic"}, nil
		},
	}

	registry := tools.NewRegistry()
	for _, t := range []*fakeTool{detect, fetch, summarize} {
		if err := registry.Register(t); err != nil {
			panic(err)
		}
	}
	return registry, []*fakeTool{detect, fetch, summarize}
}

func summarizePlan() *Plan {
	return &Plan{Steps: []Step{
		{Index: 1, Name: "Detect link", Tool: "youtube_link_detection_tool"},
		{Index: 2, Name: "Fetch transcript", Tool: "youtube_transcript_fetch_tool"},
		{Index: 3, Name: "Summarize", Tool: "transcript_summarizer_tool"},
	}}
}

func newTestPipeline(planner TaskPlanner, registry *tools.Registry, memory MemoryWriter) *Pipeline {
	return NewPipeline(planner, registry, memory, observability.NewLogger())
}

func TestRunAllStepsSucceed(t *testing.T) {
	registry, _ := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()

	p := newTestPipeline(&fakePlanner{plan: summarizePlan()}, registry, memory)
	p.Run(context.Background(), 1, 1, "https://youtu.be/dQw4w9WgXcQ summarize this", session)

	entries := memory.snapshot()
	if len(entries) != 3 {
		t.Fatalf("expected 3 memory entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.ResponseCode != 200 {
			t.Errorf("entry %d: expected 200, got %d", i, e.ResponseCode)
		}
	}

	lines := q(session)
	if countOf(lines, protocol.EndMarker) != 1 {
		t.Fatalf("expected exactly one terminal marker: %v", lines)
	}
	if lines[len(lines)-1] != protocol.EndMarker {
		t.Errorf("terminal marker must come last: %v", lines)
	}
	result := lines[len(lines)-2]
	if !strings.HasPrefix(result, "RESULT:") || !strings.Contains(result, "- a classic") {
		t.Errorf("final event must carry the summary: %q", result)
	}
}

func TestRunEventOrdering(t *testing.T) {
	registry, _ := summarizePlanTools()
	session := newRecordSession()

	p := newTestPipeline(&fakePlanner{plan: summarizePlan()}, registry, &fakeMemory{})
	p.Run(context.Background(), 1, 1, "msg", session)

	lines := q(session)
	wantOrder := []string{
		"PLANNER:Breaking task into subtasks...",
		"PLANNER:Found 3 step(s) to execute.",
		"EXECUTOR:Step 1: Detect link",
		"EXECUTOR:Video ID: dQw4w9WgXcQ",
		"EXECUTOR:Step 2: Fetch transcript",
		"EXECUTOR:Transcript fetched (5 words)",
		"EXECUTOR:Step 3: Summarize",
		"EXECUTOR:Summary ready",
		"MEMORY:Results saved to memory.",
		"RESULT:- a classic",
		protocol.EndMarker,
	}
	if len(lines) != len(wantOrder) {
		t.Fatalf("expected %d events, got %d: %v", len(wantOrder), len(lines), lines)
	}
	for i, want := range wantOrder {
		if lines[i] != want {
			t.Errorf("event %d: got %q, want %q", i, lines[i], want)
		}
	}
}

func TestRunFailFast(t *testing.T) {
	registry, fakes := summarizePlanTools()
	fakes[1].run = func(in tools.Inputs) (tools.Outputs, error) {
		return nil, errors.New("transcript unavailable")
	}
	memory := &fakeMemory{}
	session := newRecordSession()

	p := newTestPipeline(&fakePlanner{plan: summarizePlan()}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	entries := memory.snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (1 ok + 1 failed), got %d", len(entries))
	}
	if entries[0].ResponseCode != 200 || entries[1].ResponseCode != 500 {
		t.Errorf("unexpected codes: %d, %d", entries[0].ResponseCode, entries[1].ResponseCode)
	}
	if !strings.Contains(entries[1].Response, "transcript unavailable") {
		t.Errorf("failure entry must carry the error: %q", entries[1].Response)
	}
	if fakes[2].calls.Load() != 0 {
		t.Errorf("step after the failure must never run, got %d calls", fakes[2].calls.Load())
	}

	lines := q(session)
	if lines[len(lines)-1] != protocol.EndMarker {
		t.Fatalf("run must still terminate cleanly: %v", lines)
	}
	errLine := lines[len(lines)-2]
	if !strings.HasPrefix(errLine, "ERROR:") {
		t.Errorf("terminal marker must follow the ERROR event: %v", lines)
	}
}

func TestRunPlanFailure(t *testing.T) {
	registry, _ := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()

	p := newTestPipeline(&fakePlanner{err: errors.New("planner did not return valid JSON")}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	if len(memory.snapshot()) != 0 {
		t.Error("a plan-generation failure must write no memory entries")
	}

	lines := q(session)
	if len(lines) != 3 {
		t.Fatalf("expected announce + error + end, got %v", lines)
	}
	if !strings.HasPrefix(lines[1], "ERROR:Task planning failed") {
		t.Errorf("missing planner failure event: %v", lines)
	}
	if lines[2] != protocol.EndMarker {
		t.Errorf("missing terminal marker: %v", lines)
	}
}

func TestRunUnknownToolSkipped(t *testing.T) {
	registry, fakes := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()

	plan := &Plan{Steps: []Step{
		{Index: 1, Name: "Detect link", Tool: "youtube_link_detection_tool"},
		{Index: 2, Name: "Mystery", Tool: "quantum_flux_tool"},
		{Index: 3, Name: "Fetch transcript", Tool: "youtube_transcript_fetch_tool"},
	}}

	p := newTestPipeline(&fakePlanner{plan: plan}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	entries := memory.snapshot()
	if len(entries) != 2 {
		t.Fatalf("skipped step must not be recorded, got %d entries", len(entries))
	}
	for _, e := range entries {
		if e.Tool == "quantum_flux_tool" {
			t.Error("skipped step appeared in memory")
		}
	}
	if fakes[1].calls.Load() != 1 {
		t.Errorf("run must continue past the skip, fetch called %d times", fakes[1].calls.Load())
	}

	found := false
	for _, line := range q(session) {
		if strings.HasPrefix(line, "GATEWAY:Unknown tool 'quantum_flux_tool'") {
			found = true
		}
	}
	if !found {
		t.Error("skip warning event missing")
	}
}

func TestRunEmptyToolSkipped(t *testing.T) {
	registry, _ := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()

	plan := &Plan{Steps: []Step{{Index: 1, Name: "Nameless", Tool: ""}}}
	p := newTestPipeline(&fakePlanner{plan: plan}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	if len(memory.snapshot()) != 0 {
		t.Error("empty-tool step must not be recorded")
	}
	lines := q(session)
	if lines[len(lines)-1] != protocol.EndMarker {
		t.Errorf("run must still terminate: %v", lines)
	}
}

func TestRunEmptyPlan(t *testing.T) {
	registry, _ := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()

	p := newTestPipeline(&fakePlanner{plan: &Plan{}}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	if len(memory.snapshot()) != 0 {
		t.Error("no steps, no entries")
	}
	lines := q(session)
	result := lines[len(lines)-2]
	if result != "RESULT:No summary produced." {
		t.Errorf("expected placeholder result, got %q", result)
	}
}

func TestRunMissingPrerequisite(t *testing.T) {
	registry, fakes := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()

	// Plan jumps straight to the summarizer; nothing produced the
	// transcript it requires.
	plan := &Plan{Steps: []Step{{Index: 1, Name: "Summarize", Tool: "transcript_summarizer_tool"}}}
	p := newTestPipeline(&fakePlanner{plan: plan}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	entries := memory.snapshot()
	if len(entries) != 1 || entries[0].ResponseCode != 500 {
		t.Fatalf("missing prerequisite must be a recorded failure: %+v", entries)
	}
	if fakes[2].calls.Load() != 0 {
		t.Error("tool must not be called when its inputs are absent")
	}
}

func TestRunTransportDropAbandons(t *testing.T) {
	registry, fakes := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()
	session.failAfter = 3 // dies at the first step's success event

	p := newTestPipeline(&fakePlanner{plan: summarizePlan()}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	lines := q(session)
	if countOf(lines, protocol.EndMarker) != 0 {
		t.Errorf("abandoned run must not emit the terminal marker: %v", lines)
	}
	if fakes[2].calls.Load() != 0 {
		t.Error("remaining steps must be abandoned after a transport failure")
	}
}

func TestRunTransportDropKeepsAuditEntry(t *testing.T) {
	registry, fakes := summarizePlanTools()
	memory := &fakeMemory{}
	session := newRecordSession()
	session.failAfter = 3 // dies at the first step's success event

	p := newTestPipeline(&fakePlanner{plan: summarizePlan()}, registry, memory)
	p.Run(context.Background(), 1, 1, "msg", session)

	// The tool ran before the connection died, so its record must
	// exist even though the client never saw the success event.
	if fakes[0].calls.Load() != 1 {
		t.Fatalf("detect tool should have run once, got %d", fakes[0].calls.Load())
	}
	entries := memory.snapshot()
	if len(entries) != 1 {
		t.Fatalf("executed step lost its entry: got %d entries, want 1", len(entries))
	}
	if entries[0].Tool != "youtube_link_detection_tool" || entries[0].ResponseCode != 200 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestRunConcurrentContextIsolation(t *testing.T) {
	echo := &fakeTool{
		name:     "echo_tool",
		requires: []tools.Field{tools.FieldRawInput},
		provides: []tools.Field{tools.FieldSummary},
		run: func(in tools.Inputs) (tools.Outputs, error) {
			return tools.Outputs{tools.FieldSummary: "summary of " + in[tools.FieldRawInput]}, nil
		},
	}
	registry := tools.NewRegistry()
	if err := registry.Register(echo); err != nil {
		t.Fatal(err)
	}
	plan := &Plan{Steps: []Step{{Index: 1, Name: "Echo", Tool: "echo_tool"}}}
	p := newTestPipeline(&fakePlanner{plan: plan}, registry, &fakeMemory{})

	var wg sync.WaitGroup
	sessions := make([]*recordSession, 8)
	for i := range sessions {
		sessions[i] = newRecordSession()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.Run(context.Background(), int64(i), int64(i), fmt.Sprintf("message-%d", i), sessions[i])
		}(i)
	}
	wg.Wait()

	for i, s := range sessions {
		want := fmt.Sprintf("RESULT:summary of message-%d", i)
		if !containsLine(q(s), want) {
			t.Errorf("run %d leaked or lost its context: %v", i, q(s))
		}
	}
}

func q(s *recordSession) []string { return s.snapshot() }

func countOf(lines []string, want string) int {
	n := 0
	for _, l := range lines {
		if l == want {
			n++
		}
	}
	return n
}

func containsLine(lines []string, want string) bool {
	return countOf(lines, want) > 0
}
