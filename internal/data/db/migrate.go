package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/casegen-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Uploaded source documents
		&types.Requirement{},
		&types.Standard{},

		// Generation output
		&types.GeneratedSet{},
	)
}
