package testcases

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

// ErrSetNotFound is returned by writes that matched no (id, user_id) row.
var ErrSetNotFound = errors.New("generated set not found")

type GeneratedSetRepo interface {
	Create(dbc dbctx.Context, set *types.GeneratedSet) error
	GetByID(dbc dbctx.Context, userID string, id uuid.UUID) (*types.GeneratedSet, error)
	LatestForRequirement(dbc dbctx.Context, userID, requirementID string) (*types.GeneratedSet, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*types.GeneratedSet, error)
	// OverwriteGeneration replaces testcases, standards and override in place.
	OverwriteGeneration(dbc dbctx.Context, userID string, id uuid.UUID, tcs []types.Testcase, standards []string, override string) error
	// MutateTestcases re-reads the set inside a transaction, applies fn and
	// writes the result back as one row update.
	MutateTestcases(dbc dbctx.Context, userID string, id uuid.UUID, fn func([]types.Testcase) ([]types.Testcase, error)) ([]types.Testcase, error)
	SetJiraID(dbc dbctx.Context, userID string, id uuid.UUID, jiraID string) error
}

type generatedSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedSetRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedSetRepo {
	repoLog := baseLog.With("repo", "GeneratedSetRepo")
	return &generatedSetRepo{db: db, log: repoLog}
}

func (r *generatedSetRepo) Create(dbc dbctx.Context, set *types.GeneratedSet) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(set.Testcases) == 0 {
		return fmt.Errorf("refusing to store an empty generated set")
	}
	return transaction.WithContext(dbc.Ctx).Create(set).Error
}

func (r *generatedSetRepo) GetByID(dbc dbctx.Context, userID string, id uuid.UUID) (*types.GeneratedSet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.GeneratedSet
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *generatedSetRepo) LatestForRequirement(dbc dbctx.Context, userID, requirementID string) (*types.GeneratedSet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.GeneratedSet
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND requirement_id = ?", userID, requirementID).
		Order("created_at DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *generatedSetRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.GeneratedSet, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*types.GeneratedSet{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *generatedSetRepo) OverwriteGeneration(dbc dbctx.Context, userID string, id uuid.UUID, tcs []types.Testcase, standards []string, override string) error {
	if len(tcs) == 0 {
		return fmt.Errorf("refusing to store an empty generated set")
	}
	if standards == nil {
		standards = []string{}
	}
	return r.updateRow(dbc, userID, id, map[string]any{
		"testcases":          datatypes.JSONSlice[types.Testcase](tcs),
		"selected_standards": datatypes.JSONSlice[string](standards),
		"prompt_override":    override,
	})
}

func (r *generatedSetRepo) MutateTestcases(dbc dbctx.Context, userID string, id uuid.UUID, fn func([]types.Testcase) ([]types.Testcase, error)) ([]types.Testcase, error) {
	var out []types.Testcase
	run := func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		set, err := r.GetByID(inner, userID, id)
		if err != nil {
			return err
		}
		if set == nil {
			return ErrSetNotFound
		}
		next, err := fn(append([]types.Testcase(nil), set.Testcases...))
		if err != nil {
			return err
		}
		if len(next) == 0 {
			return fmt.Errorf("refusing to store an empty generated set")
		}
		out = next
		return r.updateRow(inner, userID, id, map[string]any{
			"testcases": datatypes.JSONSlice[types.Testcase](next),
		})
	}
	if dbc.Tx != nil {
		return out, run(dbc.Tx)
	}
	return out, r.db.WithContext(dbc.Ctx).Transaction(run)
}

func (r *generatedSetRepo) SetJiraID(dbc dbctx.Context, userID string, id uuid.UUID, jiraID string) error {
	return r.updateRow(dbc, userID, id, map[string]any{"jira_id": jiraID})
}

func (r *generatedSetRepo) updateRow(dbc dbctx.Context, userID string, id uuid.UUID, updates map[string]any) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates["updated_at"] = time.Now().UTC()
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.GeneratedSet{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSetNotFound
	}
	return nil
}
