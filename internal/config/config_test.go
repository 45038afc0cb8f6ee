package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIncludesQueueDefaults(t *testing.T) {
	t.Setenv("TASK_TIMEOUT_SECONDS", "")
	t.Setenv("RETRY_DELAY_SECONDS", "")
	t.Setenv("QUEUE_CATCHUP", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TaskTimeoutSeconds != 300 {
		t.Fatalf("expected default task timeout 300, got %d", cfg.TaskTimeoutSeconds)
	}
	if cfg.RetryDelaySeconds != 900 {
		t.Fatalf("expected default retry delay 900, got %d", cfg.RetryDelaySeconds)
	}
	if cfg.QueueCatchUp {
		t.Fatalf("expected catch-up disabled by default")
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("expected default worker concurrency 4, got %d", cfg.WorkerConcurrency)
	}
	if cfg.StorageBackend != "local" {
		t.Fatalf("expected default storage backend local, got %q", cfg.StorageBackend)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("TASK_TIMEOUT_SECONDS", "120")
	t.Setenv("RETRY_DELAY_SECONDS", "60")
	t.Setenv("QUEUE_CATCHUP", "true")
	t.Setenv("INGEST_SYNC", "true")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "paperbox-docs")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TaskTimeoutSeconds != 120 {
		t.Fatalf("expected task timeout 120, got %d", cfg.TaskTimeoutSeconds)
	}
	if cfg.RetryDelaySeconds != 60 {
		t.Fatalf("expected retry delay 60, got %d", cfg.RetryDelaySeconds)
	}
	if !cfg.QueueCatchUp {
		t.Fatalf("expected catch-up enabled")
	}
	if !cfg.IngestSync {
		t.Fatalf("expected synchronous ingest enabled")
	}
	if cfg.StorageBackend != "s3" || cfg.S3Bucket != "paperbox-docs" {
		t.Fatalf("expected s3 storage override, got %q/%q", cfg.StorageBackend, cfg.S3Bucket)
	}
}

func TestLoadAppliesYAMLFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paperbox.yaml")
	contents := "worker_concurrency: 8\nocr_language: deu\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("OCR_LANGUAGE", "")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WorkerConcurrency != 8 {
		t.Fatalf("expected worker concurrency 8 from file, got %d", cfg.WorkerConcurrency)
	}
	if cfg.OCRLanguage != "deu" {
		t.Fatalf("expected ocr language deu from file, got %q", cfg.OCRLanguage)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env to win over file, got %q", cfg.LogLevel)
	}
}

func TestLoadRejectsMalformedConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("worker_concurrency: [oops"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}
