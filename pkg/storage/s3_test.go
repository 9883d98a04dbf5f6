package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	derrors "github.com/docyard/docyard/pkg/errors"
)

var _ ObjectPutter = (*s3.Client)(nil)

// fakePutter records puts and can fail the first few calls.
type fakePutter struct {
	failures int
	calls    int
	inputs   []*s3.PutObjectInput
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("SlowDown: please retry")
	}
	f.inputs = append(f.inputs, in)
	return &s3.PutObjectOutput{}, nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestUploadDir(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":      "<html>root</html>",
		"demo/index.html": "<html>demo</html>",
		"style.css":       "body {}",
		"data.bin":        "\x00\x01",
	})
	putter := &fakePutter{}
	u := NewWithClient(putter, Options{Bucket: "docs"})

	if err := u.UploadDir(context.Background(), dir, "demo/1.0.0"); err != nil {
		t.Fatalf("UploadDir() error = %v", err)
	}
	if len(putter.inputs) != 4 {
		t.Fatalf("uploaded %d objects, want 4", len(putter.inputs))
	}

	byKey := map[string]*s3.PutObjectInput{}
	for _, in := range putter.inputs {
		if aws.ToString(in.Bucket) != "docs" {
			t.Errorf("bucket = %q, want docs", aws.ToString(in.Bucket))
		}
		byKey[aws.ToString(in.Key)] = in
	}
	tests := []struct {
		key, contentType string
	}{
		{"demo/1.0.0/index.html", "text/html; charset=utf-8"},
		{"demo/1.0.0/demo/index.html", "text/html; charset=utf-8"},
		{"demo/1.0.0/style.css", "text/css; charset=utf-8"},
		{"demo/1.0.0/data.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		in, ok := byKey[tt.key]
		if !ok {
			t.Errorf("object %s not uploaded (have %v)", tt.key, keys(byKey))
			continue
		}
		if got := aws.ToString(in.ContentType); got != tt.contentType {
			t.Errorf("%s content type = %q, want %q", tt.key, got, tt.contentType)
		}
	}

	body, err := io.ReadAll(byKey["demo/1.0.0/index.html"].Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "<html>root</html>" {
		t.Errorf("body = %q", body)
	}
}

func keys(m map[string]*s3.PutObjectInput) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestUploadDirRetries(t *testing.T) {
	dir := writeTree(t, map[string]string{"index.html": "x"})
	putter := &fakePutter{failures: 2}
	u := NewWithClient(putter, Options{Bucket: "docs"})
	u.retryDelay = time.Millisecond

	if err := u.UploadDir(context.Background(), dir, "demo/1.0.0"); err != nil {
		t.Fatalf("UploadDir() error = %v, want success after retries", err)
	}
	if putter.calls != 3 {
		t.Errorf("calls = %d, want 3", putter.calls)
	}
}

func TestUploadDirGivesUp(t *testing.T) {
	dir := writeTree(t, map[string]string{"index.html": "x"})
	putter := &fakePutter{failures: 10}
	u := NewWithClient(putter, Options{Bucket: "docs"})
	u.retryDelay = time.Millisecond

	err := u.UploadDir(context.Background(), dir, "demo/1.0.0")
	if !derrors.Is(err, derrors.ErrCodeUpload) {
		t.Fatalf("UploadDir() error = %v, want code %s", err, derrors.ErrCodeUpload)
	}
	if putter.calls != 3 {
		t.Errorf("calls = %d, want all attempts exhausted", putter.calls)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		key, want string
	}{
		{"doc/index.html", "text/html; charset=utf-8"},
		{"search-index.js", "application/javascript"},
		{"FiraSans.woff2", "font/woff2"},
		{"rust-logo.png", "image/png"},
		{"no-extension", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentTypeFor(tt.key); got != tt.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
