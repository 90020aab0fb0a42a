package testcases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GeneratedSet struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;not null;index:idx_generated_set_user_req,priority:1" json:"user_id"`

	RequirementRef   uuid.UUID `gorm:"type:uuid;column:requirement_ref;index" json:"requirement_ref"`
	RequirementID    string    `gorm:"column:requirement_id;not null;index:idx_generated_set_user_req,priority:2" json:"requirement_id"`
	RequirementTitle string    `gorm:"column:requirement_title" json:"requirement_title"`

	SelectedStandards datatypes.JSONSlice[string]   `gorm:"column:selected_standards" json:"selected_standards"`
	PromptOverride    string                        `gorm:"column:prompt_override" json:"prompt_override"`
	Testcases         datatypes.JSONSlice[Testcase] `gorm:"column:testcases;not null" json:"testcases"`

	// JiraID is the parent issue key, empty until first mirrored.
	JiraID string `gorm:"column:jira_id" json:"jira_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (GeneratedSet) TableName() string { return "generated_set" }

func (g *GeneratedSet) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Testcases == nil {
		g.Testcases = datatypes.JSONSlice[Testcase]{}
	}
	if g.SelectedStandards == nil {
		g.SelectedStandards = datatypes.JSONSlice[string]{}
	}
	return nil
}

// IndexOf returns the position of tcID in the set or -1.
func (g *GeneratedSet) IndexOf(tcID string) int {
	for i := range g.Testcases {
		if g.Testcases[i].TCID == tcID {
			return i
		}
	}
	return -1
}
