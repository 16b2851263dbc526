package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pysugar/api-tracker/internal/config"
	"github.com/pysugar/api-tracker/internal/tracker"
)

type fakeBackend struct {
	*httptest.Server
	sessions atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api-proxy/create-session", func(w http.ResponseWriter, r *http.Request) {
		fb.sessions.Add(1)
		w.Write([]byte(`{"session_id":"s1"}`))
	})
	mux.HandleFunc("/api-proxy/calls/s1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"c1","method":"GET","url":"https://api.github.com/user","status":200,"timestamp":1735689600,
			 "headers":{"content-type":"application/json"},"response":"{\"login\":\"octocat\"}"},
			{"id":"c2","method":"POST","url":"https://example.com/hook","status":0,"error":"timeout","timestamp":1735689601}
		]`))
	})
	mux.HandleFunc("/api-proxy/clear/s1", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","output":"done","api_calls":[{"id":"r1","method":"GET","url":"https://api.github.com/rate_limit","status":200,"timestamp":1735689602}]}`))
	})
	mux.HandleFunc("/api-docs/structure", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"issues":[{"id":"issues-list","title":"List issues","method":"GET","path":"/repos/{owner}/{repo}/issues"}]}`))
	})
	mux.HandleFunc("/api-docs/issues-list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"issues-list","title":"List issues","method":"GET","path":"/repos/{owner}/{repo}/issues",
			"parameters":[{"name":"state","in":"query","type":"string"}],"examples":{"python":"requests.get(url)"}}`))
	})
	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

// isolate points HOME, the database and the backend at test-local values
func isolate(t *testing.T, backendURL string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range config.Keys() {
		t.Setenv(config.EnvPrefix+strings.ToUpper(k), "")
	}
	t.Setenv("APITRACKER_CONFIG", "")
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("APITRACKER_DB_PATH", filepath.Join(home, "tracker.db"))
	t.Setenv("APITRACKER_BACKEND_URL", backendURL)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return home
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRefresh_RendersCallsAndReusesSession(t *testing.T) {
	fb := newFakeBackend(t)
	isolate(t, fb.URL)

	out, err := runCLI(t, "refresh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	for _, want := range []string{"api.github.com", "example.com", "c1", "ERR"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// go-pretty upper-cases footers
	if !strings.Contains(strings.ToUpper(out), "2 CALLS, 1 FAILED") {
		t.Errorf("footer should count the failed call:\n%s", out)
	}

	if _, err := runCLI(t, "refresh"); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if n := fb.sessions.Load(); n != 1 {
		t.Errorf("expected the saved session to be reused, got %d sessions", n)
	}
}

func TestRefresh_JSON(t *testing.T) {
	fb := newFakeBackend(t)
	isolate(t, fb.URL)

	out, err := runCLI(t, "refresh", "--json")
	if err != nil {
		t.Fatalf("refresh --json: %v", err)
	}
	if !strings.Contains(out, `"id": "c1"`) {
		t.Errorf("unexpected JSON output:\n%s", out)
	}
}

func TestRun(t *testing.T) {
	fb := newFakeBackend(t)
	home := isolate(t, fb.URL)

	py := filepath.Join(home, "script.py")
	os.WriteFile(py, []byte("import requests"), 0o644)
	out, err := runCLI(t, "run", py)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Status: success") || !strings.Contains(out, "rate_limit") {
		t.Errorf("unexpected run output:\n%s", out)
	}

	txt := filepath.Join(home, "notes.txt")
	os.WriteFile(txt, []byte("hi"), 0o644)
	if _, err := runCLI(t, "run", txt); !errors.Is(err, tracker.ErrNotPython) {
		t.Errorf("expected ErrNotPython, got %v", err)
	}
}

func TestDetails(t *testing.T) {
	fb := newFakeBackend(t)
	isolate(t, fb.URL)

	out, err := runCLI(t, "details", "c1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	for _, want := range []string{"https://api.github.com/user", "content-type", "octocat"} {
		if !strings.Contains(out, want) {
			t.Errorf("details output missing %q:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, "details", "nope"); !errors.Is(err, tracker.ErrCallNotFound) {
		t.Errorf("expected ErrCallNotFound, got %v", err)
	}
}

func TestDocs(t *testing.T) {
	fb := newFakeBackend(t)
	isolate(t, fb.URL)

	out, err := runCLI(t, "docs")
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	for _, want := range []string{"repositories", "pull_requests", "issues-list"} {
		if !strings.Contains(out, want) {
			t.Errorf("docs tree missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "docs", "issues-list")
	if err != nil {
		t.Fatalf("docs issues-list: %v", err)
	}
	if !strings.Contains(out, "List issues") || !strings.Contains(out, "requests.get(url)") {
		t.Errorf("unexpected doc output:\n%s", out)
	}
}

func TestClear(t *testing.T) {
	fb := newFakeBackend(t)
	isolate(t, fb.URL)

	out, err := runCLI(t, "clear")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, "cleared") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLogs_ShowsPersistedHistory(t *testing.T) {
	fb := newFakeBackend(t)
	isolate(t, fb.URL)

	if _, err := runCLI(t, "refresh"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	out, err := runCLI(t, "logs", "--search", "calls")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(out, "GET /api-proxy/calls/s1 - 200") {
		t.Errorf("history missing backend request:\n%s", out)
	}

	if _, err := runCLI(t, "logs", "--clear"); err != nil {
		t.Fatalf("logs --clear: %v", err)
	}
	out, _ = runCLI(t, "logs")
	if !strings.Contains(out, "No log entries.") {
		t.Errorf("history not cleared:\n%s", out)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	home := isolate(t, "")

	if _, err := runCLI(t, "config", "set", "refresh_delay", "2s"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := runCLI(t, "config", "set", "admin_password", "hunter2"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := runCLI(t, "config", "set", "colour", "blue"); err == nil {
		t.Errorf("expected error for unknown key")
	}

	cfg, err := config.Load(filepath.Join(home, config.GlobalDirName, config.ConfigFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshDelay.String() != "2s" || cfg.AdminPassword != "hunter2" {
		t.Errorf("config not saved: %+v", cfg)
	}

	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "2s") || strings.Contains(out, "hunter2") {
		t.Errorf("unexpected config output:\n%s", out)
	}
}

func TestWatch_RequiresAutoRefresh(t *testing.T) {
	isolate(t, "")
	t.Setenv("APITRACKER_AUTO_REFRESH", "false")

	if _, err := runCLI(t, "watch", t.TempDir()); !errors.Is(err, errAutoRefreshOff) {
		t.Errorf("expected errAutoRefreshOff, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "apitracker dev") {
		t.Errorf("unexpected version output: %s", out)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	fb := newFakeBackend(t)
	isolate(t, fb.URL)
	t.Setenv("APITRACKER_PORT", "0")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, a, ""); err != nil {
		t.Fatalf("serve: %v", err)
	}
}
