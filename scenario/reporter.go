package scenario

import (
	"context"

	"github.com/google/uuid"
)

// Attachment is an artifact captured during a step.
type Attachment struct {
	RunID       uuid.UUID
	ScenarioID  string
	Step        string
	Name        string
	ContentType string
	Data        []byte
}

// Reporter receives run records and artifacts.
type Reporter interface {
	// Begin is called once the scenario starts.
	Begin(ctx context.Context, res *Result) error

	// Attach stores an artifact for a running scenario.
	Attach(ctx context.Context, a Attachment) error

	// Finish is called with the final result.
	Finish(ctx context.Context, res *Result) error
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Begin(context.Context, *Result) error     { return nil }
func (NopReporter) Attach(context.Context, Attachment) error { return nil }
func (NopReporter) Finish(context.Context, *Result) error    { return nil }
