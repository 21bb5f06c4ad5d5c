package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrStepNotFound is returned when a step record is not found.
	ErrStepNotFound = errors.New("step not found")

	// ErrInvalidRunID is returned when run_id is not set.
	ErrInvalidRunID = errors.New("run_id is required")

	// ErrInvalidStepName is returned when a step has no name.
	ErrInvalidStepName = errors.New("step name is required")
)

// StepRecord is one executed step of a run.
type StepRecord struct {
	ID         uuid.UUID `json:"id" yaml:"id" gorm:"type:char(36);primaryKey"`
	RunID      uuid.UUID `json:"run_id" yaml:"run_id" gorm:"type:char(36);not null;uniqueIndex:idx_run_steps_run_index"`
	StepIndex  int       `json:"step_index" yaml:"step_index" gorm:"not null;uniqueIndex:idx_run_steps_run_index"`
	Name       string    `json:"name" yaml:"name" gorm:"type:varchar(255);not null"`
	Status     Status    `json:"status" yaml:"status" gorm:"type:varchar(20);not null"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty" gorm:"type:text"`
	Teardown   bool      `json:"teardown" yaml:"teardown" gorm:"not null;default:false"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	DurationMS int64     `json:"duration_ms" yaml:"duration_ms" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// TableName specifies the table name for GORM.
func (sr *StepRecord) TableName() string {
	return "run_steps"
}

// BeforeCreate hook to generate UUID before creating a new step record.
func (sr *StepRecord) BeforeCreate(tx *gorm.DB) error {
	if sr.ID == uuid.Nil {
		sr.ID = uuid.New()
	}
	return nil
}

// Validate checks if the step record has valid required fields.
func (sr *StepRecord) Validate() error {
	if sr.RunID == uuid.Nil {
		return ErrInvalidRunID
	}
	if sr.Name == "" {
		return ErrInvalidStepName
	}
	if !sr.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
