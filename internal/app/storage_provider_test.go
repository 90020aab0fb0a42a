package app

import (
	"errors"
	"testing"

	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

func stubBucketService(t *testing.T, fn func(*logger.Logger) (gcp.BucketService, error)) {
	t.Helper()
	prev := newBucketService
	newBucketService = fn
	t.Cleanup(func() { newBucketService = prev })
}

func TestResolveBucketServiceDisabledWithoutBucketName(t *testing.T) {
	t.Setenv("MATERIAL_GCS_BUCKET_NAME", "")
	stubBucketService(t, func(*logger.Logger) (gcp.BucketService, error) {
		t.Fatalf("bucket client must not be created")
		return nil, nil
	})

	bucket, err := resolveBucketService(logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != nil {
		t.Fatalf("expected nil bucket, got %T", bucket)
	}
}

func TestResolveBucketServiceInvalidConfig(t *testing.T) {
	t.Setenv("MATERIAL_GCS_BUCKET_NAME", "reqs")
	t.Setenv("OBJECT_STORAGE_MODE", "ftp")

	_, err := resolveBucketService(logger.Nop())

	var got *StorageBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageBootstrapError, got=%T", err)
	}
	if got.Code != StorageBootstrapErrorInvalidConfig {
		t.Fatalf("code: want=%q got=%q", StorageBootstrapErrorInvalidConfig, got.Code)
	}
}

func TestResolveBucketServiceConnectFailed(t *testing.T) {
	t.Setenv("MATERIAL_GCS_BUCKET_NAME", "reqs")
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	cause := errors.New("dial tcp: connection refused")
	stubBucketService(t, func(*logger.Logger) (gcp.BucketService, error) { return nil, cause })

	_, err := resolveBucketService(logger.Nop())

	var got *StorageBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageBootstrapError, got=%T", err)
	}
	if got.Code != StorageBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageBootstrapErrorConnectFailed, got.Code)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
}
