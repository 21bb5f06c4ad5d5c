package report

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrAttachmentNotFound is returned when an attachment is not found.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrInvalidAssetType is returned when asset type is invalid.
	ErrInvalidAssetType = errors.New("invalid asset type")

	// ErrInvalidAssetPath is returned when asset_path is empty.
	ErrInvalidAssetPath = errors.New("asset_path is required")

	// ErrInvalidFileName is returned when file_name is empty.
	ErrInvalidFileName = errors.New("file_name is required")
)

// AssetType represents the type of an attachment.
type AssetType string

const (
	AssetTypeImage    AssetType = "image"
	AssetTypeVideo    AssetType = "video"
	AssetTypeBinary   AssetType = "binary"
	AssetTypeDocument AssetType = "document"
)

// IsValid checks if the asset type is valid.
func (at AssetType) IsValid() bool {
	switch at {
	case AssetTypeImage, AssetTypeVideo, AssetTypeBinary, AssetTypeDocument:
		return true
	default:
		return false
	}
}

// AssetTypeFor classifies a MIME type.
func AssetTypeFor(contentType string) AssetType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return AssetTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return AssetTypeVideo
	case strings.HasPrefix(contentType, "text/"), contentType == "application/json":
		return AssetTypeDocument
	default:
		return AssetTypeBinary
	}
}

// Attachment is an artifact captured during a named step of a run.
type Attachment struct {
	ID          uuid.UUID `json:"id" yaml:"id" gorm:"type:char(36);primaryKey"`
	RunID       uuid.UUID `json:"run_id" yaml:"run_id" gorm:"type:char(36);not null;index:idx_run_attachments_run_id"`
	StepName    string    `json:"step_name" yaml:"step_name" gorm:"type:varchar(255);not null"`
	AssetType   AssetType `json:"asset_type" yaml:"asset_type" gorm:"type:varchar(20);not null"`
	AssetPath   string    `json:"asset_path" yaml:"asset_path" gorm:"type:varchar(512);not null"`
	FileName    string    `json:"file_name" yaml:"file_name" gorm:"type:varchar(255);not null"`
	FileSize    int64     `json:"file_size" yaml:"file_size" gorm:"not null"`
	MimeType    string    `json:"mime_type,omitempty" yaml:"mime_type,omitempty" gorm:"type:varchar(128)"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" gorm:"type:text"`
	UploadedAt  time.Time `json:"uploaded_at" yaml:"uploaded_at"`
}

// TableName specifies the table name for GORM.
func (a *Attachment) TableName() string {
	return "run_attachments"
}

// BeforeCreate hook to generate UUID before creating a new attachment
func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Validate checks if the attachment has valid required fields.
func (a *Attachment) Validate() error {
	if a.RunID == uuid.Nil {
		return ErrInvalidRunID
	}
	if !a.AssetType.IsValid() {
		return ErrInvalidAssetType
	}
	if a.AssetPath == "" {
		return ErrInvalidAssetPath
	}
	if a.FileName == "" {
		return ErrInvalidFileName
	}
	return nil
}

// Models lists the report tables for auto-migration.
func Models() []interface{} {
	return []interface{}{&Run{}, &StepRecord{}, &Attachment{}}
}
