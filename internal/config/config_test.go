package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range Keys() {
		t.Setenv(EnvPrefix+strings.ToUpper(k), "")
	}
	t.Setenv(EnvPrefix+"CONFIG", "")
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	return home
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8000" || cfg.RefreshDelay != time.Second || !cfg.AutoRefresh {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.LoggingEnabled {
		t.Errorf("logging should be enabled by default")
	}
	if want := filepath.Join(home, GlobalDirName, DBFileName); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.Addr() != "127.0.0.1:8090" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
}

func TestSaveAndLoad(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "sub", ConfigFileName)

	cfg := Default()
	cfg.BackendURL = "http://backend:9000"
	cfg.RefreshDelay = 2500 * time.Millisecond
	cfg.AutoRefresh = false
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config perm = %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.BackendURL != "http://backend:9000" || loaded.RefreshDelay != 2500*time.Millisecond || loaded.AutoRefresh {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "c.yaml")
	os.WriteFile(path, []byte("port: 9999\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9999 || cfg.Host != "127.0.0.1" || cfg.RequestTimeout != 60*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_DurationForms(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "c.yaml")
	os.WriteFile(path, []byte("refresh_delay: 1500\nrequest_timeout: 30s\n"), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshDelay != 1500*time.Millisecond {
		t.Errorf("RefreshDelay = %v, want 1.5s", cfg.RefreshDelay)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.Port != 8090 {
		t.Errorf("defaults lost: %+v", cfg)
	}

	os.WriteFile(path, []byte("refresh_delay: soon\n"), 0o644)
	if _, err := Load(path); err == nil {
		t.Errorf("expected error for invalid refresh_delay")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "c.yaml")
	os.WriteFile(path, []byte("port: [\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("APITRACKER_BACKEND_URL", "http://env:1234/")
	t.Setenv("APITRACKER_REFRESH_DELAY", "250")
	t.Setenv("APITRACKER_LOGGING_ENABLED", "false")
	t.Setenv("PORT", "7000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "http://env:1234" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.RefreshDelay != 250*time.Millisecond {
		t.Errorf("RefreshDelay = %v", cfg.RefreshDelay)
	}
	if cfg.LoggingEnabled {
		t.Errorf("LoggingEnabled override ignored")
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d", cfg.Port)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("APITRACKER_PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestSet(t *testing.T) {
	cfg := &Config{}
	cases := []struct {
		key, value string
		wantErr    bool
	}{
		{"auto_refresh", "true", false},
		{"refresh_delay", "1.5s", false},
		{"port", "8081", false},
		{"port", "x", true},
		{"verbose", "maybe", true},
		{"unknown", "1", true},
	}
	for _, tc := range cases {
		err := cfg.Set(tc.key, tc.value)
		if (err != nil) != tc.wantErr {
			t.Errorf("Set(%s, %s) err = %v, wantErr %v", tc.key, tc.value, err, tc.wantErr)
		}
	}
	if !cfg.AutoRefresh || cfg.RefreshDelay != 1500*time.Millisecond || cfg.Port != 8081 {
		t.Errorf("unexpected config after Set: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected port range error")
	}
	cfg = Default()
	cfg.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected timeout error")
	}
}

func TestResolvePath(t *testing.T) {
	home := isolate(t)

	if p, _ := ResolvePath("/explicit.yaml"); p != "/explicit.yaml" {
		t.Errorf("flag not preferred: %q", p)
	}
	t.Setenv("APITRACKER_CONFIG", "/from/env.yaml")
	if p, _ := ResolvePath(""); p != "/from/env.yaml" {
		t.Errorf("env not used: %q", p)
	}
	t.Setenv("APITRACKER_CONFIG", "")
	if p, _ := ResolvePath(""); p != filepath.Join(home, GlobalDirName, ConfigFileName) {
		t.Errorf("default path = %q", p)
	}
}
