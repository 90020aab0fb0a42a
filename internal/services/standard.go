package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yungbote/casegen-backend/internal/data/repos"
	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

// StandardService stores reference documents. A standard is identified by
// its file name, unique per user.
type StandardService interface {
	Upload(ctx context.Context, userID string, in UploadInput) (*types.Standard, error)
	List(ctx context.Context, userID string) ([]*types.Standard, error)
}

type standardService struct {
	log       *logger.Logger
	bucket    gcp.BucketService
	standards repos.StandardRepo
	maxBytes  int64
}

func NewStandardService(log *logger.Logger, bucket gcp.BucketService, standards repos.StandardRepo, maxBytes int64) StandardService {
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}
	return &standardService{
		log:       log.With("service", "StandardService"),
		bucket:    bucket,
		standards: standards,
		maxBytes:  maxBytes,
	}
}

func (s *standardService) Upload(ctx context.Context, userID string, in UploadInput) (*types.Standard, error) {
	up, err := readUpload(in, s.maxBytes)
	if err != nil {
		return nil, err
	}
	if s.bucket == nil {
		return nil, apierr.NotConfigured("storage_not_configured", "object storage is not configured")
	}
	dbc := dbctx.Context{Ctx: ctx}

	prev, err := s.standards.GetByName(dbc, userID, up.name)
	if err != nil {
		return nil, fmt.Errorf("load standard %s: %w", up.name, err)
	}
	obj, err := s.bucket.UploadFile(dbc, gcp.BucketCategoryStandard, storageKey("standards", userID, up.name), up.contentType, bytes.NewReader(up.data))
	if err != nil {
		return nil, apierr.Upstream("storage_upload_failed", err)
	}
	row, err := s.standards.Upsert(dbc, &types.Standard{
		UserID:     userID,
		Name:       up.name,
		MimeType:   up.contentType,
		SizeBytes:  obj.Size,
		StorageKey: obj.Key,
		FileURI:    obj.URI,
		RawUpload:  rawUpload(in, obj),
	})
	if err != nil {
		return nil, fmt.Errorf("save standard %s: %w", up.name, err)
	}
	if prev != nil && prev.StorageKey != "" && prev.StorageKey != obj.Key {
		if err := s.bucket.DeleteFile(dbc, gcp.BucketCategoryStandard, prev.StorageKey); err != nil {
			s.log.Warn("failed to delete replaced standard file", "key", prev.StorageKey, "error", err)
		}
	}
	s.log.Info("standard uploaded", "user_id", userID, "name", up.name, "bytes", obj.Size)
	return row, nil
}

func (s *standardService) List(ctx context.Context, userID string) ([]*types.Standard, error) {
	return s.standards.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}
