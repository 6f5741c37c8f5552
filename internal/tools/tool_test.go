package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
)

type echoInput struct {
	Text string `json:"text"`
}

type echoOutput struct {
	Echoed string `json:"echoed"`
}

func echoTool() *Tool {
	return NewTool("echo", "Echo the input text.",
		func(_ *ai.ToolContext, in echoInput) (echoOutput, error) {
			return echoOutput{Echoed: in.Text}, nil
		})
}

func TestRegistry_ExecuteTypedInput(t *testing.T) {
	r := NewRegistry(echoTool())

	out, err := r.Execute(context.Background(), "echo", echoInput{Text: "hi"})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if got := out.(echoOutput).Echoed; got != "hi" {
		t.Errorf("Echoed = %q, want hi", got)
	}
}

func TestRegistry_ExecuteJSONInput(t *testing.T) {
	r := NewRegistry(echoTool())

	// Genkit hands tools map[string]any, not the typed input.
	out, err := r.Execute(context.Background(), "echo", map[string]any{"text": "roundtrip"})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if got := out.(echoOutput).Echoed; got != "roundtrip" {
		t.Errorf("Echoed = %q, want roundtrip", got)
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(echoTool())

	_, err := r.Execute(context.Background(), "missing", nil)
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("Execute(missing) = %v, want not-registered error", err)
	}
}

func TestRegistry_NamesPreserveOrder(t *testing.T) {
	a := NewTool("alpha", "a", func(_ *ai.ToolContext, in struct{}) (struct{}, error) { return in, nil })
	b := NewTool("beta", "b", func(_ *ai.ToolContext, in struct{}) (struct{}, error) { return in, nil })
	r := NewRegistry(b, a)

	names := r.Names()
	if len(names) != 2 || names[0] != "beta" || names[1] != "alpha" {
		t.Errorf("Names() = %v, want [beta alpha]", names)
	}

	if _, ok := r.Lookup("alpha"); !ok {
		t.Error("Lookup(alpha) missed")
	}
}

func TestNewRegistry_DuplicateNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewRegistry with duplicate names did not panic")
		}
	}()
	NewRegistry(echoTool(), echoTool())
}
