package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"gorm.io/gorm"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed run store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new run in the database.
func (s *MySQLStore) Create(ctx context.Context, run *Run) error {
	if run.Status == "" {
		run.Status = StatusPending
	}

	if err := run.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		s.logger.Error(ctx, "failed to create run", map[string]interface{}{
			"error":       err.Error(),
			"scenario_id": run.ScenarioID,
		})
		return err
	}

	s.logger.Debug(ctx, "run created", map[string]interface{}{
		"run_id":      run.ID.String(),
		"scenario_id": run.ScenarioID,
	})

	return nil
}

// GetByID retrieves a run by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get run by ID", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return nil, err
	}

	return &run, nil
}

// Update updates a run with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	run, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(run); err != nil {
			return err
		}
	}

	return s.save(ctx, run, "failed to update run")
}

// List retrieves runs newest first.
func (s *MySQLStore) List(ctx context.Context, f Filter) ([]*Run, error) {
	q := s.db.WithContext(ctx).Model(&Run{})
	if f.ScenarioID != "" {
		q = q.Where("scenario_id = ?", f.ScenarioID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.Before.IsZero() {
		q = q.Where("created_at < ?", f.Before)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var runs []*Run
	if err := q.Order("created_at DESC").Find(&runs).Error; err != nil {
		s.logger.Error(ctx, "failed to list runs", map[string]interface{}{
			"error":       err.Error(),
			"scenario_id": f.ScenarioID,
			"limit":       f.Limit,
			"offset":      f.Offset,
		})
		return nil, err
	}

	return runs, nil
}

// Start marks a run as started.
func (s *MySQLStore) Start(ctx context.Context, id uuid.UUID, at time.Time) error {
	run, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := run.Start(at); err != nil {
		return err
	}

	return s.save(ctx, run, "failed to start run")
}

// Complete marks a run as completed with a final status.
func (s *MySQLStore) Complete(ctx context.Context, id uuid.UUID, status Status, errMsg string, at time.Time) error {
	run, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := run.Complete(status, errMsg, at); err != nil {
		return err
	}

	if err := s.save(ctx, run, "failed to complete run"); err != nil {
		return err
	}

	s.logger.Debug(ctx, "run completed", map[string]interface{}{
		"run_id": id.String(),
		"status": string(status),
	})

	return nil
}

// Delete removes a run.
func (s *MySQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Run{})

	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete run", map[string]interface{}{
			"error":  result.Error.Error(),
			"run_id": id.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (s *MySQLStore) save(ctx context.Context, run *Run, failMsg string) error {
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		s.logger.Error(ctx, failMsg, map[string]interface{}{
			"error":  err.Error(),
			"run_id": run.ID.String(),
		})
		return err
	}
	return nil
}
