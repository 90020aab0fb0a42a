package gcp

import "testing"

func TestStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != StorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", StorageModeGCS, cfg.Mode)
	}
}

func TestStorageConfigFromEnvEmulatorHostImpliesEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if !cfg.Emulated() {
		t.Fatalf("mode: want emulator got=%q", cfg.Mode)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: got=%q", cfg.EmulatorHost)
	}
}

func TestStorageConfigFromEnvExplicitGCSIgnoresEmulatorHost(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "GCS")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != StorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", StorageModeGCS, cfg.Mode)
	}
}

func TestStorageConfigFromEnvRejectsBadValues(t *testing.T) {
	cases := []struct {
		name, mode, host, public string
	}{
		{"unknown mode", "local", "", ""},
		{"emulator without host", "gcs_emulator", "", ""},
		{"relative emulator host", "gcs_emulator", "fake-gcs:4443", ""},
		{"relative public base", "gcs", "", "localhost:4443"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.host)
			t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", tc.public)
			if _, err := StorageConfigFromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
