package gcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/envutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryRequirement BucketCategory = "requirement"
	BucketCategoryStandard    BucketCategory = "standard"
)

// StoredObject describes an uploaded object and the link clients should use.
type StoredObject struct {
	Bucket      string
	Key         string
	URI         string
	Size        int64
	ContentType string
}

type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key, contentType string, file io.Reader) (StoredObject, error)
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	GetPublicURL(category BucketCategory, key string) string
}

type bucketConfig struct {
	name      string
	cdnDomain string
}

type bucketService struct {
	log     *logger.Logger
	client  *storage.Client
	storage StorageConfig
	buckets map[BucketCategory]bucketConfig
}

// NewBucketService stores requirements and standards in MATERIAL_GCS_BUCKET_NAME
// unless STANDARD_GCS_BUCKET_NAME splits standards into their own bucket.
func NewBucketService(log *logger.Logger) (BucketService, error) {
	storageCfg, err := StorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	material := envutil.String("MATERIAL_GCS_BUCKET_NAME", "")
	if material == "" {
		return nil, fmt.Errorf("missing env var MATERIAL_GCS_BUCKET_NAME")
	}
	cdn := envutil.String("MATERIAL_CDN_DOMAIN", "")
	standards := envutil.String("STANDARD_GCS_BUCKET_NAME", material)

	client, err := newStorageClient(context.Background(), storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	bs := &bucketService{
		log:     log.With("service", "BucketService"),
		client:  client,
		storage: storageCfg,
		buckets: map[BucketCategory]bucketConfig{
			BucketCategoryRequirement: {name: material, cdnDomain: cdn},
			BucketCategoryStandard:    {name: standards, cdnDomain: cdn},
		},
	}
	bs.log.Info("Object storage initialized",
		"mode", storageCfg.Mode,
		"emulator_host", storageCfg.EmulatorHost,
		"requirement_bucket", material,
		"standard_bucket", standards,
	)
	return bs, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.Emulated() {
		// The storage SDK reads the emulator endpoint from the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (bs *bucketService) bucket(category BucketCategory) (bucketConfig, error) {
	cfg, ok := bs.buckets[category]
	if !ok || cfg.name == "" {
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
	return cfg, nil
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key, contentType string, file io.Reader) (StoredObject, error) {
	cfg, err := bs.bucket(category)
	if err != nil {
		return StoredObject{}, err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	w.ContentType = contentType
	n, err := io.Copy(w, file)
	if err != nil {
		_ = w.Close()
		return StoredObject{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return StoredObject{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	uri := firstFileURI(bs.fileURICandidates(category, key, w.Attrs()))
	bs.log.Debug("Object uploaded", "bucket", cfg.name, "key", key, "bytes", n)
	return StoredObject{Bucket: cfg.name, Key: key, URI: uri, Size: n, ContentType: contentType}, nil
}

// fileURICandidates lists, in preference order, the places the link for an
// uploaded object can come from. Empty candidates are skipped.
func (bs *bucketService) fileURICandidates(category BucketCategory, key string, attrs *storage.ObjectAttrs) []string {
	out := make([]string, 0, 3)
	if cfg := bs.buckets[category]; cfg.cdnDomain != "" {
		out = append(out, cdnURL(cfg.cdnDomain, key))
	}
	if attrs != nil {
		out = append(out, attrs.MediaLink)
	}
	return append(out, bs.GetPublicURL(category, key))
}

func firstFileURI(candidates []string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

func cdnURL(domain, key string) string {
	return fmt.Sprintf("https://%s/%s", domain, strings.TrimLeft(key, "/"))
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.bucket(category)
	if err != nil {
		return nil, err
	}
	// The timeout must outlive this call, so cancel rides on Close.
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if bs.storage.Emulated() {
		req, err := http.NewRequestWithContext(ctx2, http.MethodGet, emulatorMediaURL(bs.storage.EmulatorHost, cfg.name, key), nil)
		if err != nil {
			cancel()
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("emulator download: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
	}
	r, err := bs.client.Bucket(cfg.name).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &cancelOnClose{ReadCloser: r, cancel: cancel}, nil
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	cfg, err := bs.bucket(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	if err := bs.client.Bucket(cfg.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.bucket(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cfg.cdnDomain != "":
		return cdnURL(cfg.cdnDomain, key)
	case bs.storage.Emulated():
		base := bs.storage.PublicBaseURL
		if base == "" {
			base = bs.storage.EmulatorHost
		}
		return emulatorMediaURL(base, cfg.name, key)
	case bs.storage.PublicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", bs.storage.PublicBaseURL, cfg.name, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
	}
}

func emulatorMediaURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
		strings.TrimRight(base, "/"), url.PathEscape(bucket), url.PathEscape(key))
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".md":
		return "text/plain; charset=utf-8"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
