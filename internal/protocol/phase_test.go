package protocol

import "testing"

func TestEncode(t *testing.T) {
	ev := Event{Phase: PhasePlanner, Text: "Found 3 step(s) to execute."}
	if got := ev.Encode(); got != "PLANNER:Found 3 step(s) to execute." {
		t.Errorf("unexpected encoding: %q", got)
	}
}

func TestDecodeTagged(t *testing.T) {
	ev, done := Decode("EXECUTOR:Step 1: detect link")
	if done {
		t.Fatal("tagged line decoded as terminal marker")
	}
	if ev.Phase != PhaseExecutor {
		t.Errorf("expected EXECUTOR phase, got %s", ev.Phase)
	}
	if ev.Text != "Step 1: detect link" {
		t.Errorf("payload mangled: %q", ev.Text)
	}
}

func TestDecodeEnd(t *testing.T) {
	ev, done := Decode(EndMarker)
	if !done {
		t.Fatal("END not recognized as terminal marker")
	}
	if ev != (Event{}) {
		t.Errorf("terminal marker produced a non-zero event: %+v", ev)
	}
}

func TestDecodeUnknownPrefixFallsBackToGateway(t *testing.T) {
	for _, line := range []string{
		"BOGUS:something",
		"no tag at all",
		"http://example.com/path",
	} {
		ev, done := Decode(line)
		if done {
			t.Fatalf("%q decoded as terminal marker", line)
		}
		if ev.Phase != PhaseGateway {
			t.Errorf("%q: expected GATEWAY fallback, got %s", line, ev.Phase)
		}
		if ev.Text != line {
			t.Errorf("%q: fallback must keep the whole line, got %q", line, ev.Text)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for phase := range knownPhases {
		ev := Event{Phase: phase, Text: "payload with: colon"}
		decoded, done := Decode(ev.Encode())
		if done {
			t.Fatalf("%s round trip hit terminal marker", phase)
		}
		if decoded != ev {
			t.Errorf("round trip lost data: %+v != %+v", decoded, ev)
		}
	}
}
