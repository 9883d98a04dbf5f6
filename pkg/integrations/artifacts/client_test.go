package artifacts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/httputil"
	"github.com/docyard/docyard/pkg/integrations"
)

func TestFetchArchive(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Write([]byte("archive payload"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	dir := t.TempDir()

	path, err := client.FetchArchive(context.Background(), "demo", "1.0.0", dir)
	if err != nil {
		t.Fatalf("FetchArchive() error: %v", err)
	}

	if requestedPath != "/demo/demo-1.0.0.crate" {
		t.Errorf("requested path = %s, want /demo/demo-1.0.0.crate", requestedPath)
	}
	if want := filepath.Join(dir, "demo-1.0.0.crate"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("archive not written: %v", err)
	}
	if string(data) != "archive payload" {
		t.Errorf("content = %q", data)
	}
}

func TestFetchArchive_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.FetchArchive(context.Background(), "ghost", "0.0.1", t.TempDir())

	if !derrors.Is(err, derrors.ErrCodeFetch) {
		t.Errorf("error code = %v, want %v", derrors.GetCode(err), derrors.ErrCodeFetch)
	}
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("transport sentinel lost from chain: %v", err)
	}
}

func TestFetchArchive_UsesCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("cached payload"))
	}))
	defer server.Close()

	cache, err := httputil.NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	client := NewClient(server.URL, cache)

	first, err := client.FetchArchive(context.Background(), "demo", "1.0.0", t.TempDir())
	if err != nil {
		t.Fatalf("first FetchArchive() error: %v", err)
	}
	second, err := client.FetchArchive(context.Background(), "demo", "1.0.0", t.TempDir())
	if err != nil {
		t.Fatalf("second FetchArchive() error: %v", err)
	}

	if requests != 1 {
		t.Errorf("server saw %d requests, want 1", requests)
	}
	for _, path := range []string{first, second} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("archive not written: %v", err)
		}
		if string(data) != "cached payload" {
			t.Errorf("content = %q", data)
		}
	}
}

func TestFetchArchive_BadDestDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.FetchArchive(context.Background(), "demo", "1.0.0", filepath.Join(t.TempDir(), "missing", "nested"))

	if !derrors.Is(err, derrors.ErrCodeFilesystem) {
		t.Errorf("error code = %v, want %v", derrors.GetCode(err), derrors.ErrCodeFilesystem)
	}
}
