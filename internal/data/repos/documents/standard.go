package documents

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type StandardRepo interface {
	Upsert(dbc dbctx.Context, std *types.Standard) (*types.Standard, error)
	GetByName(dbc dbctx.Context, userID, name string) (*types.Standard, error)
	GetByNames(dbc dbctx.Context, userID string, names []string) ([]*types.Standard, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*types.Standard, error)
}

type standardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStandardRepo(db *gorm.DB, baseLog *logger.Logger) StandardRepo {
	repoLog := baseLog.With("repo", "StandardRepo")
	return &standardRepo{db: db, log: repoLog}
}

func (r *standardRepo) Upsert(dbc dbctx.Context, std *types.Standard) (*types.Standard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mime_type",
				"size_bytes",
				"storage_key",
				"file_uri",
				"raw_upload",
				"updated_at",
			}),
		}).
		Create(std).Error
	if err != nil {
		return nil, err
	}
	return r.GetByName(dbc, std.UserID, std.Name)
}

func (r *standardRepo) GetByName(dbc dbctx.Context, userID, name string) (*types.Standard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Standard
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByNames returns matches in the order the names were given; unknown
// names are skipped.
func (r *standardRepo) GetByNames(dbc dbctx.Context, userID string, names []string) ([]*types.Standard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(names) == 0 {
		return []*types.Standard{}, nil
	}
	var rows []*types.Standard
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND name IN ?", userID, names).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]*types.Standard, len(rows))
	for _, row := range rows {
		byName[row.Name] = row
	}
	out := make([]*types.Standard, 0, len(rows))
	for _, n := range names {
		if row, ok := byName[n]; ok {
			out = append(out, row)
			delete(byName, n)
		}
	}
	return out, nil
}

func (r *standardRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.Standard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*types.Standard{}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
