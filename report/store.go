package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows a run listing. Zero fields are ignored.
type Filter struct {
	ScenarioID string
	Status     Status
	Before     time.Time
	Limit      int
	Offset     int
}

// Store defines the interface for run persistence operations.
type Store interface {
	// Create creates a new run in the store.
	Create(ctx context.Context, run *Run) error

	// GetByID retrieves a run by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)

	// Update updates a run with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// List retrieves runs newest first.
	List(ctx context.Context, f Filter) ([]*Run, error)

	// Start marks a run as started.
	Start(ctx context.Context, id uuid.UUID, at time.Time) error

	// Complete marks a run as completed with a final status.
	Complete(ctx context.Context, id uuid.UUID, status Status, errMsg string, at time.Time) error

	// Delete removes a run.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpdateSetter is a function that updates a run field.
type UpdateSetter func(*Run) error

// StepStore defines the interface for step record persistence operations.
type StepStore interface {
	// Upsert creates or updates the step at (run_id, step_index).
	Upsert(ctx context.Context, step *StepRecord) error

	// ListByRun retrieves all steps of a run ordered by step_index.
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*StepRecord, error)

	// GetByRunAndIndex retrieves one step of a run.
	GetByRunAndIndex(ctx context.Context, runID uuid.UUID, stepIndex int) (*StepRecord, error)

	// DeleteByRun removes every step of a run.
	DeleteByRun(ctx context.Context, runID uuid.UUID) error
}

// AttachmentStore defines the interface for attachment persistence operations.
type AttachmentStore interface {
	// Create creates a new attachment in the store.
	Create(ctx context.Context, a *Attachment) error

	// GetByID retrieves an attachment by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error)

	// ListByRun retrieves all attachments of a run in upload order.
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*Attachment, error)

	// Delete deletes an attachment by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
