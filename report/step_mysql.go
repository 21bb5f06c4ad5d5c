package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"gorm.io/gorm"
)

// MySQLStepStore implements StepStore using GORM and MySQL.
type MySQLStepStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStepStore creates a new MySQL-backed step store.
func NewMySQLStepStore(db *gorm.DB, log logger.Logger) *MySQLStepStore {
	return &MySQLStepStore{
		db:     db,
		logger: log,
	}
}

// Upsert creates or updates the step at (run_id, step_index).
func (s *MySQLStepStore) Upsert(ctx context.Context, step *StepRecord) error {
	if err := step.Validate(); err != nil {
		return err
	}

	existing, err := s.GetByRunAndIndex(ctx, step.RunID, step.StepIndex)
	if err != nil && !errors.Is(err, ErrStepNotFound) {
		return err
	}

	if existing != nil {
		existing.Name = step.Name
		existing.Status = step.Status
		existing.Error = step.Error
		existing.Teardown = step.Teardown
		existing.StartedAt = step.StartedAt
		existing.DurationMS = step.DurationMS
		if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
			s.logger.Error(ctx, "failed to update step", map[string]interface{}{
				"error":      err.Error(),
				"run_id":     step.RunID.String(),
				"step_index": step.StepIndex,
			})
			return err
		}
		*step = *existing
		return nil
	}

	if err := s.db.WithContext(ctx).Create(step).Error; err != nil {
		s.logger.Error(ctx, "failed to create step", map[string]interface{}{
			"error":      err.Error(),
			"run_id":     step.RunID.String(),
			"step_index": step.StepIndex,
		})
		return err
	}

	return nil
}

// ListByRun retrieves all steps of a run ordered by step_index.
func (s *MySQLStepStore) ListByRun(ctx context.Context, runID uuid.UUID) ([]*StepRecord, error) {
	var steps []*StepRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("step_index ASC").
		Find(&steps).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list steps", map[string]interface{}{
			"error":  err.Error(),
			"run_id": runID.String(),
		})
		return nil, err
	}

	return steps, nil
}

// GetByRunAndIndex retrieves one step of a run.
func (s *MySQLStepStore) GetByRunAndIndex(ctx context.Context, runID uuid.UUID, stepIndex int) (*StepRecord, error) {
	var step StepRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND step_index = ?", runID, stepIndex).
		First(&step).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStepNotFound
		}
		return nil, err
	}

	return &step, nil
}

// DeleteByRun removes every step of a run.
func (s *MySQLStepStore) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&StepRecord{}).Error
	if err != nil {
		s.logger.Error(ctx, "failed to delete steps", map[string]interface{}{
			"error":  err.Error(),
			"run_id": runID.String(),
		})
	}
	return err
}
