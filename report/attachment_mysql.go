package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"gorm.io/gorm"
)

// MySQLAttachmentStore implements the AttachmentStore interface using GORM and MySQL.
type MySQLAttachmentStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLAttachmentStore creates a new MySQL-backed attachment store.
func NewMySQLAttachmentStore(db *gorm.DB, log logger.Logger) *MySQLAttachmentStore {
	return &MySQLAttachmentStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new attachment in the database.
func (s *MySQLAttachmentStore) Create(ctx context.Context, a *Attachment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		s.logger.Error(ctx, "failed to create attachment", map[string]interface{}{
			"error":     err.Error(),
			"run_id":    a.RunID.String(),
			"file_name": a.FileName,
		})
		return err
	}

	return nil
}

// GetByID retrieves an attachment by its ID.
func (s *MySQLAttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	var a Attachment
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		s.logger.Error(ctx, "failed to get attachment by ID", map[string]interface{}{
			"error":         err.Error(),
			"attachment_id": id.String(),
		})
		return nil, err
	}

	return &a, nil
}

// ListByRun retrieves all attachments of a run in upload order.
func (s *MySQLAttachmentStore) ListByRun(ctx context.Context, runID uuid.UUID) ([]*Attachment, error) {
	var attachments []*Attachment
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("uploaded_at ASC").
		Order("asset_path ASC").
		Find(&attachments).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list attachments by run", map[string]interface{}{
			"error":  err.Error(),
			"run_id": runID.String(),
		})
		return nil, err
	}

	return attachments, nil
}

// Delete deletes an attachment by ID.
func (s *MySQLAttachmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Attachment{})

	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete attachment", map[string]interface{}{
			"error":         result.Error.Error(),
			"attachment_id": id.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAttachmentNotFound
	}

	return nil
}
