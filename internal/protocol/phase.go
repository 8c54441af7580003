package protocol

import "strings"

// Phase classifies an outbound progress event.
type Phase string

const (
	PhaseGateway  Phase = "GATEWAY"
	PhasePlanner  Phase = "PLANNER"
	PhaseExecutor Phase = "EXECUTOR"
	PhaseMemory   Phase = "MEMORY"
	PhaseResult   Phase = "RESULT"
	PhaseError    Phase = "ERROR"
)

// EndMarker is the sentinel line that closes one orchestration run's
// event stream. It is sent bare, never phase-tagged.
const EndMarker = "END"

var knownPhases = map[Phase]bool{
	PhaseGateway:  true,
	PhasePlanner:  true,
	PhaseExecutor: true,
	PhaseMemory:   true,
	PhaseResult:   true,
	PhaseError:    true,
}

// Event is one unit of the outbound progress stream. Events live only
// on the wire; nothing persists them.
type Event struct {
	Phase Phase
	Text  string
}

// Encode renders the event in the PHASE:payload wire form.
func (e Event) Encode() string {
	return string(e.Phase) + ":" + e.Text
}

// Decode parses one wire line. The second result reports whether the
// line is the terminal marker; when it is, the returned event is zero.
// A line without a recognized phase prefix is treated whole as a
// GATEWAY event.
func Decode(line string) (Event, bool) {
	if line == EndMarker {
		return Event{}, true
	}
	prefix, rest, found := strings.Cut(line, ":")
	if found && knownPhases[Phase(prefix)] {
		return Event{Phase: Phase(prefix), Text: rest}, false
	}
	return Event{Phase: PhaseGateway, Text: line}, false
}
