package tools

import (
	"context"
	"testing"
)

type stubTool struct {
	name string
}

func (s *stubTool) Name() string                 { return s.name }
func (s *stubTool) Description() string          { return "stub" }
func (s *stubTool) Parameters() map[string]any   { return map[string]any{"type": "object"} }
func (s *stubTool) Requires() []Field            { return []Field{FieldRawInput} }
func (s *stubTool) Provides() []Field            { return nil }
func (s *stubTool) Call(ctx context.Context, in Inputs) (Outputs, error) {
	return Outputs{}, nil
}

func TestRegistryDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "alpha"}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := r.Register(&stubTool{name: "alpha"}); err == nil {
		t.Fatal("duplicate registration was accepted")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	if got := r.Get("nope"); got != nil {
		t.Errorf("expected nil for unregistered tool, got %v", got)
	}
}

func TestRegistrySchemasSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubTool{name: name}); err != nil {
			t.Fatal(err)
		}
	}

	schemas := r.Schemas()
	if len(schemas) != 3 {
		t.Fatalf("expected 3 schemas, got %d", len(schemas))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, s := range schemas {
		if s.Name != want[i] {
			t.Errorf("schemas out of order: got %s at %d, want %s", s.Name, i, want[i])
		}
	}
}
