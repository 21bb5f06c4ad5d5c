// Package scenario runs the end-to-end browser scenarios: ordered, named
// steps driven through a driver.Page, with guaranteed session teardown.
package scenario

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/envconfig"
)

// Status is the outcome of a scenario or a step.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Step is one named unit of work.
type Step struct {
	Name string
	Run  func(ctx context.Context, e *Env) error
}

// Scenario is an independent end-to-end flow.
type Scenario struct {
	ID       string
	Story    string
	Severity string

	// Required lists the configuration keys validated before the browser
	// is touched.
	Required []string

	// Optional lists keys read when set and left at their defaults
	// otherwise. Keys in neither list are ignored.
	Optional []string

	// Build returns the steps for a validated configuration.
	Build func(cfg *envconfig.Config) ([]Step, error)

	// Teardown steps run after Build's steps whatever their outcome.
	Teardown []Step
}

// StepResult records one executed step.
type StepResult struct {
	Name      string
	Status    Status
	Err       error
	Teardown  bool
	StartedAt time.Time
	Duration  time.Duration
}

// Result records one scenario run.
type Result struct {
	RunID       uuid.UUID
	ScenarioID  string
	Story       string
	Status      Status
	Err         error
	Steps       []StepResult
	StartedAt   time.Time
	CompletedAt time.Time
}

// Passed reports whether the scenario passed.
func (r *Result) Passed() bool {
	return r.Status == StatusPassed
}
