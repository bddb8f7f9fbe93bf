package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir string, cfg Config) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func validConfig(dir string) Config {
	return Config{
		UDPIP:                "127.0.0.1",
		UDPPort:              9000,
		SessionTimeoutSec:    30,
		CDRFile:              filepath.Join(dir, "cdr.log"),
		HTTPPort:             8080,
		GracefulShutdownRate: 10,
		LogFile:              filepath.Join(dir, "server.log"),
		LogLevel:             "info",
		Blacklist:            []string{"001010123456789"},
	}
}

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, validConfig(dir))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.UDPPort != 9000 {
		t.Errorf("UDPPort = %d, want 9000", cfg.UDPPort)
	}
}

func TestValidateRejectsBadIP(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(dir)
	cfg.UDPIP = "not-an-ip"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid IP")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(dir)
	cfg.HTTPPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(dir)
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidateRejectsZeroTimeout(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(dir)
	cfg.SessionTimeoutSec = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero session_timeout_sec")
	}
}

func TestValidateRejectsUnopenableCDRFile(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(dir)
	cfg.CDRFile = filepath.Join(dir, "nonexistent-subdir", "cdr.log")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unopenable cdr_file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.json"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
