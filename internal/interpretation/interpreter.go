package interpretation

import (
	"context"
	"fmt"
)

// Kind distinguishes the reading being interpreted.
type Kind string

const (
	KindSpread   Kind = "spread"
	KindFollowUp Kind = "follow_up"
)

// CardInput describes one positioned card for the collaborator.
type CardInput struct {
	Position    string   `json:"position"`
	CardID      int      `json:"card_id"`
	CardName    string   `json:"card_name"`
	Keywords    []string `json:"keywords"`
	Orientation string   `json:"orientation"`
}

// Request is the structured description of a reading.
type Request struct {
	Kind     Kind        `json:"kind"`
	Topic    string      `json:"topic"`
	Pattern  string      `json:"pattern"`
	Modifier string      `json:"modifier"`
	Cards    []CardInput `json:"cards"`
	Question string      `json:"question,omitempty"`
	Locale   string      `json:"locale"`

	// PriorCards holds the original spread when interpreting a follow-up.
	PriorCards []CardInput `json:"prior_cards,omitempty"`
}

// Result is the collaborator's answer.
type Result struct {
	Text  string
	Model string
}

// Interpreter turns a structured reading into free text.
// Implementations make a single attempt and never retry.
type Interpreter interface {
	Interpret(ctx context.Context, req Request) (*Result, error)
}

// InterpreterFunc adapts a function to the Interpreter interface.
type InterpreterFunc func(ctx context.Context, req Request) (*Result, error)

// Interpret calls f.
func (f InterpreterFunc) Interpret(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// Disabled returns an Interpreter that always fails with ErrUnavailable.
func Disabled(reason string) Interpreter {
	return InterpreterFunc(func(context.Context, Request) (*Result, error) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, reason)
	})
}
