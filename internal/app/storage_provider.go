package app

import (
	"fmt"

	"github.com/yungbote/casegen-backend/internal/platform/envutil"
	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

var newBucketService = gcp.NewBucketService

type StorageBootstrapErrorCode string

const (
	StorageBootstrapErrorInvalidConfig StorageBootstrapErrorCode = "invalid_config"
	StorageBootstrapErrorConnectFailed StorageBootstrapErrorCode = "connect_failed"
)

type StorageBootstrapError struct {
	Code  StorageBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBucketService returns a nil interface when no bucket is configured;
// uploads then fail with storage_not_configured instead of blocking startup.
func resolveBucketService(log *logger.Logger) (gcp.BucketService, error) {
	if envutil.String("MATERIAL_GCS_BUCKET_NAME", "") == "" {
		log.Warn("MATERIAL_GCS_BUCKET_NAME not set; uploads disabled")
		return nil, nil
	}
	storageCfg, err := gcp.StorageConfigFromEnv()
	if err != nil {
		return nil, &StorageBootstrapError{Code: StorageBootstrapErrorInvalidConfig, Mode: string(storageCfg.Mode), Cause: err}
	}
	log.Info("Selecting object storage provider", "mode", storageCfg.Mode, "emulator_host", storageCfg.EmulatorHost)

	bucket, err := newBucketService(log)
	if err != nil {
		bootErr := &StorageBootstrapError{Code: StorageBootstrapErrorConnectFailed, Mode: string(storageCfg.Mode), Cause: err}
		log.Error("Object storage provider bootstrap failed", "mode", storageCfg.Mode, "error_code", bootErr.Code, "error", err)
		return nil, bootErr
	}
	return bucket, nil
}
