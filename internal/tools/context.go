package tools

import "fmt"

// Field is a symbolic name for one slot of the per-run context. The
// set of fields is closed: adapters declare which fields they consume
// and produce, and writes outside the known set are rejected up front
// instead of surfacing as a missing-key failure mid-run.
type Field string

const (
	FieldRawInput      Field = "raw_input"
	FieldVideoID       Field = "video_id"
	FieldTranscript    Field = "transcript_text"
	FieldSummary       Field = "summary"
	FieldArticle       Field = "article_text"
	FieldSearchResults Field = "search_results"
	FieldEmailReceipt  Field = "email_receipt"
)

var knownFields = map[Field]bool{
	FieldRawInput:      true,
	FieldVideoID:       true,
	FieldTranscript:    true,
	FieldSummary:       true,
	FieldArticle:       true,
	FieldSearchResults: true,
	FieldEmailReceipt:  true,
}

// Inputs is the set of context fields handed to one adapter call.
type Inputs map[Field]string

// Outputs is the set of context fields one adapter call produced.
type Outputs map[Field]string

// Context threads field values between the steps of a single
// orchestration run. It is owned by exactly one run for its entire
// lifetime and is never shared across runs or users.
type Context struct {
	values map[Field]string
}

// NewContext seeds a fresh per-run context with the raw user message.
func NewContext(rawInput string) *Context {
	return &Context{
		values: map[Field]string{FieldRawInput: rawInput},
	}
}

// Get returns the value of a field and whether it has been written.
func (c *Context) Get(f Field) (string, bool) {
	v, ok := c.values[f]
	return v, ok
}

// Set writes one field. Unknown fields are a contract violation.
func (c *Context) Set(f Field, v string) error {
	if !knownFields[f] {
		return fmt.Errorf("unknown context field %q", f)
	}
	c.values[f] = v
	return nil
}

// Gather collects the named fields for an adapter call. A field that
// no earlier step produced is a missing prerequisite.
func (c *Context) Gather(fields []Field) (Inputs, error) {
	in := make(Inputs, len(fields))
	for _, f := range fields {
		v, ok := c.values[f]
		if !ok {
			return nil, fmt.Errorf("missing prerequisite context field %q", f)
		}
		in[f] = v
	}
	return in, nil
}

// Merge folds an adapter's outputs into the context, making them
// visible to all subsequent steps of the same run.
func (c *Context) Merge(out Outputs) error {
	for f, v := range out {
		if err := c.Set(f, v); err != nil {
			return err
		}
	}
	return nil
}
