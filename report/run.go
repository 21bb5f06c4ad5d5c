// Package report records scenario runs, their steps and their captured
// artifacts in a database, with artifact bytes kept in blob storage.
package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrRunNotFound is returned when a run is not found.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidScenarioID is returned when scenario_id is not set.
	ErrInvalidScenarioID = errors.New("scenario_id is required")

	// ErrInvalidStatus is returned when status is invalid.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrRunNotRunning is returned when trying to complete a run that's not running.
	ErrRunNotRunning = errors.New("run is not running")

	// ErrRunAlreadyStarted is returned when trying to start an already started run.
	ErrRunAlreadyStarted = errors.New("run already started")
)

// Status represents the status of a run or a step.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusPassed, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsFinal checks if the status is a final status (can't be changed).
func (s Status) IsFinal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// Run is one recorded scenario execution.
type Run struct {
	ID          uuid.UUID  `json:"id" yaml:"id" gorm:"type:char(36);primaryKey"`
	ScenarioID  string     `json:"scenario_id" yaml:"scenario_id" gorm:"type:varchar(64);not null;index:idx_runs_scenario_id"`
	Story       string     `json:"story" yaml:"story" gorm:"type:varchar(255)"`
	Status      Status     `json:"status" yaml:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_runs_status"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty" gorm:"type:text"`
	StartedAt   *time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty" gorm:"index:idx_runs_started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// TableName specifies the table name for GORM.
func (r *Run) TableName() string {
	return "runs"
}

// BeforeCreate hook to generate UUID before creating a new run
func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Validate checks if the run has valid required fields.
func (r *Run) Validate() error {
	if r.ScenarioID == "" {
		return ErrInvalidScenarioID
	}
	if !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Duration is the wall time between start and completion, zero while
// either is unset.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}

// Start sets the started_at timestamp and changes status to running.
// Returns an error if the run has already been started.
func (r *Run) Start(at time.Time) error {
	if r.StartedAt != nil {
		return ErrRunAlreadyStarted
	}
	r.StartedAt = &at
	r.Status = StatusRunning
	return nil
}

// Complete sets the completed_at timestamp and final status.
// Returns an error if the run is not currently running.
func (r *Run) Complete(status Status, errMsg string, at time.Time) error {
	if r.Status != StatusRunning {
		return ErrRunNotRunning
	}
	if !status.IsFinal() {
		return ErrInvalidStatus
	}
	r.CompletedAt = &at
	r.Status = status
	if errMsg != "" {
		r.Error = errMsg
	}
	return nil
}
