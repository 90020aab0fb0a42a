package documents

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type RequirementRepo interface {
	// Upsert inserts or replaces the file reference for (user_id, req_id).
	Upsert(dbc dbctx.Context, req *types.Requirement) (*types.Requirement, error)
	GetByReqID(dbc dbctx.Context, userID, reqID string) (*types.Requirement, error)
	GetByReqIDs(dbc dbctx.Context, userID string, reqIDs []string) ([]*types.Requirement, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*types.Requirement, error)
}

type requirementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequirementRepo(db *gorm.DB, baseLog *logger.Logger) RequirementRepo {
	repoLog := baseLog.With("repo", "RequirementRepo")
	return &requirementRepo{db: db, log: repoLog}
}

func (r *requirementRepo) Upsert(dbc dbctx.Context, req *types.Requirement) (*types.Requirement, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "req_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title",
				"file_name",
				"mime_type",
				"size_bytes",
				"storage_key",
				"file_uri",
				"raw_upload",
				"updated_at",
			}),
		}).
		Create(req).Error
	if err != nil {
		return nil, err
	}
	// The conflict path keeps the original row id; read it back.
	return r.GetByReqID(dbc, req.UserID, req.ReqID)
}

func (r *requirementRepo) GetByReqID(dbc dbctx.Context, userID, reqID string) (*types.Requirement, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Requirement
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND req_id = ?", userID, reqID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *requirementRepo) GetByReqIDs(dbc dbctx.Context, userID string, reqIDs []string) ([]*types.Requirement, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*types.Requirement{}
	if len(reqIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND req_id IN ?", userID, reqIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *requirementRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.Requirement, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*types.Requirement{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("req_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
