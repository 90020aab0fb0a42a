package repos

import (
	"github.com/yungbote/casegen-backend/internal/data/repos/documents"
	"github.com/yungbote/casegen-backend/internal/data/repos/testcases"
)

type RequirementRepo = documents.RequirementRepo
type StandardRepo = documents.StandardRepo
type GeneratedSetRepo = testcases.GeneratedSetRepo

var (
	NewRequirementRepo  = documents.NewRequirementRepo
	NewStandardRepo     = documents.NewStandardRepo
	NewGeneratedSetRepo = testcases.NewGeneratedSetRepo
)

var ErrSetNotFound = testcases.ErrSetNotFound
