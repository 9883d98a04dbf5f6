package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docyard/docyard/pkg/integrations"
)

func TestVersions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crates/serde/versions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"versions":[
			{"num":"1.0.1","created_at":"2017-04-25T12:13:14.123456+00:00","yanked":false,"downloads":500},
			{"num":"1.0.0","created_at":"bogus","yanked":true,"downloads":100}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	versions, err := client.Versions(context.Background(), "serde")
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}

	v := versions[0]
	if v.Num != "1.0.1" || v.Yanked || v.Downloads != 500 {
		t.Errorf("versions[0] = %+v", v)
	}
	want := time.Date(2017, 4, 25, 12, 13, 14, 0, time.UTC)
	if v.CreatedAt == nil || !v.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", v.CreatedAt, want)
	}

	if versions[1].CreatedAt != nil {
		t.Errorf("unparseable timestamp should yield nil, got %v", versions[1].CreatedAt)
	}
	if !versions[1].Yanked {
		t.Error("versions[1] should be yanked")
	}
}

func TestVersions_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Versions(context.Background(), "no-such-crate")
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestVersions_SendsUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"versions":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Versions(context.Background(), "serde"); err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	if agent != integrations.UserAgent {
		t.Errorf("User-Agent = %q, want %q", agent, integrations.UserAgent)
	}
}

func TestOwners(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crates/serde/owners" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"users":[
			{"login":"alice","name":"Alice Doe","email":"alice@example.com","avatar":"https://example.com/a.png"},
			{"login":"","name":"Ghost"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	owners, err := client.Owners(context.Background(), "serde")
	if err != nil {
		t.Fatalf("Owners() error: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("got %d owners, want 2", len(owners))
	}
	if owners[0].Login != "alice" || owners[0].Name != "Alice Doe" || owners[0].Email != "alice@example.com" {
		t.Errorf("owners[0] = %+v", owners[0])
	}
	// Empty logins are passed through; the ingestor decides to skip them.
	if owners[1].Login != "" {
		t.Errorf("owners[1].Login = %q, want empty", owners[1].Login)
	}
}

func TestOwners_MissingUsersArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	owners, err := client.Owners(context.Background(), "serde")
	if err != nil {
		t.Fatalf("Owners() error: %v", err)
	}
	if len(owners) != 0 {
		t.Errorf("got %d owners, want 0", len(owners))
	}
}

func TestOwners_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Owners(context.Background(), "serde"); err == nil {
		t.Error("Owners() should fail on an unparseable body")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{"with offset and micros", "2014-12-08T02:08:06.016234+00:00", timePtr(2014, 12, 8, 2, 8, 6)},
		{"bare seconds", "2014-12-08T02:08:06", timePtr(2014, 12, 8, 2, 8, 6)},
		{"too short", "2014-12-08", nil},
		{"garbage", "not-a-timestamp-at-all", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTime(tt.input)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("parseTime(%q) = %v, want nil", tt.input, got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("parseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func timePtr(year int, month time.Month, day, hour, minute, sec int) *time.Time {
	t := time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	return &t
}
