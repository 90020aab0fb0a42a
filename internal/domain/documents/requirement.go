package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Requirement struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;uniqueIndex:idx_requirement_user_req,priority:1" json:"user_id"`
	ReqID  string    `gorm:"column:req_id;not null;uniqueIndex:idx_requirement_user_req,priority:2" json:"req_id"`
	Title  string    `gorm:"column:title" json:"title"`

	FileName   string `gorm:"column:file_name;not null" json:"file_name"`
	MimeType   string `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes  int64  `gorm:"column:size_bytes" json:"size_bytes"`
	StorageKey string `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURI    string `gorm:"column:file_uri" json:"file_uri"`

	RawUpload datatypes.JSON `gorm:"column:raw_upload" json:"raw_upload,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Requirement) TableName() string { return "requirement" }

func (r *Requirement) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
