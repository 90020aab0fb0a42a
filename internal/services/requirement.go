package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/casegen-backend/internal/data/repos"
	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/envutil"
	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

const defaultUploadMaxBytes = 32 << 20

// UploadMaxBytesFromEnv reads UPLOAD_MAX_BYTES.
func UploadMaxBytesFromEnv() int64 {
	return envutil.Int64("UPLOAD_MAX_BYTES", defaultUploadMaxBytes)
}

// UploadInput is one multipart file. Size is the client-declared length and
// is checked again against the bytes actually read.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type RequirementService interface {
	Upload(ctx context.Context, userID string, in UploadInput) (*types.Requirement, error)
	List(ctx context.Context, userID string) ([]*types.Requirement, error)
}

type requirementService struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	reqs     repos.RequirementRepo
	maxBytes int64
}

func NewRequirementService(log *logger.Logger, bucket gcp.BucketService, reqs repos.RequirementRepo, maxBytes int64) RequirementService {
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}
	return &requirementService{
		log:      log.With("service", "RequirementService"),
		bucket:   bucket,
		reqs:     reqs,
		maxBytes: maxBytes,
	}
}

func (s *requirementService) Upload(ctx context.Context, userID string, in UploadInput) (*types.Requirement, error) {
	up, err := readUpload(in, s.maxBytes)
	if err != nil {
		return nil, err
	}
	if s.bucket == nil {
		return nil, apierr.NotConfigured("storage_not_configured", "object storage is not configured")
	}
	dbc := dbctx.Context{Ctx: ctx}

	reqID := slugify(strings.TrimSuffix(up.name, filepath.Ext(up.name)))
	prev, err := s.reqs.GetByReqID(dbc, userID, reqID)
	if err != nil {
		return nil, fmt.Errorf("load requirement %s: %w", reqID, err)
	}

	obj, err := s.bucket.UploadFile(dbc, gcp.BucketCategoryRequirement, storageKey("requirements", userID, up.name), up.contentType, bytes.NewReader(up.data))
	if err != nil {
		return nil, apierr.Upstream("storage_upload_failed", err)
	}

	row, err := s.reqs.Upsert(dbc, &types.Requirement{
		UserID:     userID,
		ReqID:      reqID,
		Title:      titleFromFileName(up.name),
		FileName:   up.name,
		MimeType:   up.contentType,
		SizeBytes:  obj.Size,
		StorageKey: obj.Key,
		FileURI:    obj.URI,
		RawUpload:  rawUpload(in, obj),
	})
	if err != nil {
		return nil, fmt.Errorf("save requirement %s: %w", reqID, err)
	}
	if prev != nil && prev.StorageKey != "" && prev.StorageKey != obj.Key {
		if err := s.bucket.DeleteFile(dbc, gcp.BucketCategoryRequirement, prev.StorageKey); err != nil {
			s.log.Warn("failed to delete replaced requirement file", "key", prev.StorageKey, "error", err)
		}
	}
	s.log.Info("requirement uploaded", "user_id", userID, "req_id", reqID, "bytes", obj.Size)
	return row, nil
}

func (s *requirementService) List(ctx context.Context, userID string) ([]*types.Requirement, error) {
	return s.reqs.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func readUpload(in UploadInput, maxBytes int64) (upload, error) {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(in.FileName), `\`, "/"))
	if in.Body == nil || name == "" || name == "." || name == "/" {
		return upload{}, apierr.BadRequest("missing_file", "a file is required")
	}
	if in.Size > maxBytes {
		return upload{}, apierr.BadRequest("file_too_large", "file exceeds %d bytes", maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(in.Body, maxBytes+1))
	if err != nil {
		return upload{}, apierr.BadRequest("unreadable_file", "read upload: %v", err)
	}
	if int64(len(data)) > maxBytes {
		return upload{}, apierr.BadRequest("file_too_large", "file exceeds %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return upload{}, apierr.BadRequest("empty_file", "file %q is empty", name)
	}
	return upload{name: name, contentType: detectContentType(name, in.ContentType, data), data: data}, nil
}

func detectContentType(name, declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func storageKey(prefix, userID, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s", prefix, slugify(userID), uuid.NewString(), safeObjectName(name))
}

var (
	slugDisallowed = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	dashRuns       = regexp.MustCompile(`-{2,}`)
)

// slugify keeps letters, digits, dot, underscore and dash; other runs
// become a single dash.
func slugify(s string) string {
	out := slugDisallowed.ReplaceAllString(strings.TrimSpace(s), "-")
	out = strings.Trim(dashRuns.ReplaceAllString(out, "-"), "-.")
	if out == "" {
		return "requirement"
	}
	return out
}

func safeObjectName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := slugify(strings.TrimSuffix(name, filepath.Ext(name)))
	return base + slugDisallowed.ReplaceAllString(ext, "")
}

func titleFromFileName(name string) string {
	t := strings.TrimSpace(strings.TrimSuffix(name, filepath.Ext(name)))
	t = strings.NewReplacer("_", " ", "-", " ").Replace(t)
	if t == "" {
		return name
	}
	return strings.Join(strings.Fields(t), " ")
}

func rawUpload(in UploadInput, obj gcp.StoredObject) datatypes.JSON {
	b, _ := json.Marshal(map[string]any{
		"original_name": in.FileName,
		"declared_type": in.ContentType,
		"content_type":  obj.ContentType,
		"bucket":        obj.Bucket,
		"key":           obj.Key,
		"size":          obj.Size,
		"uploaded_at":   time.Now().UTC().Format(time.RFC3339),
	})
	return datatypes.JSON(b)
}
