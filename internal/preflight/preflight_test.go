package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ratingsync/internal/config"
	"ratingsync/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		pass bool
	}{
		{"", false},
		{"   ", false},
		{config.SampleAPIKey, false},
		{"real-key", true},
	}
	for _, tt := range tests {
		if got := CheckAPIKey(tt.key); got.Passed != tt.pass {
			t.Errorf("CheckAPIKey(%q) passed=%v detail=%q", tt.key, got.Passed, got.Detail)
		}
	}
}

func TestCheckProvider_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "" {
			t.Error("reachability check must not send the key")
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result := CheckProvider(context.Background(), srv.URL+"/")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := CheckProvider(context.Background(), srv.URL)
	if result.Passed {
		t.Fatal("expected failure for 5xx")
	}
}

func TestCheckProvider_MissingURL(t *testing.T) {
	result := CheckProvider(context.Background(), " ")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckFreeSpace("space", dir, ^uint64(0))
	if result.Passed || !strings.Contains(result.Detail, "need") {
		t.Fatalf("expected failure with requirement, got: %+v", result)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestFormatBytes(t *testing.T) {
	for in, want := range map[uint64]string{
		512:      "512 B",
		2048:     "2.0 KiB",
		64 << 20: "64.0 MiB",
		3 << 30:  "3.0 GiB",
	} {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReadyConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(srv.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ReportsMissingKeyAndDirs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithAPIKey(""), testsupport.WithBaseURL(srv.URL))
	cfg.Paths.CacheDir = filepath.Join(cfg.Paths.DataDir, "not-created")

	failed := Failed(RunAll(context.Background(), cfg))
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	if len(failed) != 2 || names[0] != "Provider API key" || names[1] != "Cache directory" {
		t.Fatalf("unexpected failures %v", names)
	}
}
