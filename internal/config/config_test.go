package config

import (
	"os"
	"testing"
)

func TestPort_Default(t *testing.T) {
	os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("default Port = %d, want %d", cfg.Port(), DefaultPort)
	}
}

func TestPort_FromEnv(t *testing.T) {
	os.Setenv(EnvPort, "9123")
	defer os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9123 {
		t.Errorf("Port = %d, want 9123", cfg.Port())
	}
}

func TestPort_Invalid(t *testing.T) {
	os.Setenv(EnvPort, "notaport")
	defer os.Unsetenv(EnvPort)

	if _, err := New(); err == nil {
		t.Error("New() should fail for non-numeric port")
	}
}

func TestStageConcurrency_Invalid(t *testing.T) {
	os.Setenv(EnvStageConcurrency, "0")
	defer os.Unsetenv(EnvStageConcurrency)

	if _, err := New(); err == nil {
		t.Error("New() should fail for zero stage concurrency")
	}
}

func TestStorageURL_FromEnv(t *testing.T) {
	os.Setenv(EnvStorageURL, "https://blobs.example.com")
	defer os.Unsetenv(EnvStorageURL)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageURL() != "https://blobs.example.com" {
		t.Errorf("StorageURL = %q, want %q", cfg.StorageURL(), "https://blobs.example.com")
	}
}
