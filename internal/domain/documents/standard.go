package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Standard is a reference document (regulation, style guide) that generated
// testcases are checked against. Name is the uploaded file name.
type Standard struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;uniqueIndex:idx_standard_user_name,priority:1" json:"user_id"`
	Name   string    `gorm:"column:name;not null;uniqueIndex:idx_standard_user_name,priority:2" json:"name"`

	MimeType   string `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes  int64  `gorm:"column:size_bytes" json:"size_bytes"`
	StorageKey string `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURI    string `gorm:"column:file_uri" json:"file_uri"`

	RawUpload datatypes.JSON `gorm:"column:raw_upload" json:"raw_upload,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Standard) TableName() string { return "standard" }

func (s *Standard) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
