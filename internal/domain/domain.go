package domain

import (
	"github.com/yungbote/casegen-backend/internal/domain/documents"
	"github.com/yungbote/casegen-backend/internal/domain/testcases"
)

type Requirement = documents.Requirement
type Standard = documents.Standard

type Testcase = testcases.Testcase
type GeneratedSet = testcases.GeneratedSet
