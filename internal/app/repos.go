package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/casegen-backend/internal/data/repos"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type Repos struct {
	Requirement  repos.RequirementRepo
	Standard     repos.StandardRepo
	GeneratedSet repos.GeneratedSetRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Requirement:  repos.NewRequirementRepo(db, log),
		Standard:     repos.NewStandardRepo(db, log),
		GeneratedSet: repos.NewGeneratedSetRepo(db, log),
	}
}
