// Package tools exposes the agent's chain operations to the LLM as a fixed
// set of named tools.
//
// Each tool decodes its arguments into a dedicated input struct and returns
// the user-facing text. Failures are text too: the model reads the message
// and relays it, so nothing here returns an error past the tool boundary.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tool is one named operation the model can call.
type Tool interface {
	Name() string
	Description() string
	// Schema is the JSON Schema of the arguments object.
	Schema() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) string
}

// Spec is the metadata a model needs to choose and call a tool.
type Spec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// typed adapts a handler over a concrete input struct to the Tool interface.
type typed[In any] struct {
	name        string
	description string
	schema      json.RawMessage
	run         func(ctx context.Context, in In) string
}

func newTool[In any](name, description, schema string, run func(context.Context, In) string) *typed[In] {
	return &typed[In]{
		name:        name,
		description: description,
		schema:      json.RawMessage(schema),
		run:         run,
	}
}

func (t *typed[In]) Name() string            { return t.name }
func (t *typed[In]) Description() string     { return t.description }
func (t *typed[In]) Schema() json.RawMessage { return t.schema }

func (t *typed[In]) Invoke(ctx context.Context, args json.RawMessage) string {
	var in In
	if trimmed := strings.TrimSpace(string(args)); trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(args, &in); err != nil {
			return fmt.Sprintf("❌ Invalid Input\nI could not read the arguments for %s: %v", t.name, err)
		}
	}
	return t.run(ctx, in)
}

// text accepts a JSON string or number. Models regularly send amounts and
// durations as bare numbers even when the schema says string.
type text string

func (s *text) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = text(v)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("expected string or number, got %s", raw)
	}
	*s = text(raw)
	return nil
}

func (s text) String() string { return strings.TrimSpace(string(s)) }
