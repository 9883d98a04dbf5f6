package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docyard/docyard/pkg/integrations"
)

// DefaultAPI is the crates.io API root used when no override is given.
const DefaultAPI = "https://crates.io/api/v1"

// Registry timestamps carry sub-second precision and a zone offset; only
// the leading seconds-precision prefix is significant here.
const timeLayout = "2006-01-02T15:04:05"

// VersionMeta holds the registry's metadata for one published version.
//
// CreatedAt is nil when the registry reported no parseable timestamp.
// Timestamps are truncated to seconds precision and interpreted as UTC.
type VersionMeta struct {
	Num       string     // Exact version string (e.g., "1.0.193")
	CreatedAt *time.Time // Publish time, seconds precision, UTC (nil if unknown)
	Yanked    bool       // Whether the version was yanked
	Downloads int        // Download count for this version
}

// Owner is one crate owner as reported by the registry. Login is the
// natural key; the remaining fields may be empty.
type Owner struct {
	Login  string
	Name   string
	Email  string
	Avatar string
}

// Client provides access to the registry metadata API.
//
// Responses are never cached: ingestion must observe the live registry
// state. The client includes a User-Agent header as required by the
// crates.io API policy. All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a registry client for the given API root. Pass "" to
// use [DefaultAPI].
func NewClient(apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPI
	}
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return &Client{
		Client:  integrations.NewClient(headers),
		baseURL: strings.TrimSuffix(apiURL, "/"),
	}
}

// Versions fetches every published version of a crate from
// GET /crates/{name}/versions.
//
// Returns:
//   - [integrations.ErrNotFound] if the crate doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for JSON decoding failures
func (c *Client) Versions(ctx context.Context, name string) ([]VersionMeta, error) {
	var data versionsResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s/versions", c.baseURL, name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: crate %s", err, name)
		}
		return nil, err
	}

	versions := make([]VersionMeta, 0, len(data.Versions))
	for _, v := range data.Versions {
		versions = append(versions, VersionMeta{
			Num:       v.Num,
			CreatedAt: parseTime(v.CreatedAt),
			Yanked:    v.Yanked,
			Downloads: v.Downloads,
		})
	}
	return versions, nil
}

// Owners fetches the owners of a crate from GET /crates/{name}/owners.
//
// A response without a "users" array yields an empty slice, not an error;
// crates can legitimately have no listed owners. Decoding failures and
// transport errors are returned as for [Client.Versions].
func (c *Client) Owners(ctx context.Context, name string) ([]Owner, error) {
	var data ownersResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s/owners", c.baseURL, name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: crate %s", err, name)
		}
		return nil, err
	}

	owners := make([]Owner, 0, len(data.Users))
	for _, u := range data.Users {
		owners = append(owners, Owner{
			Login:  u.Login,
			Name:   u.Name,
			Email:  u.Email,
			Avatar: u.Avatar,
		})
	}
	return owners, nil
}

func parseTime(s string) *time.Time {
	if len(s) < len(timeLayout) {
		return nil
	}
	t, err := time.Parse(timeLayout, s[:len(timeLayout)])
	if err != nil {
		return nil
	}
	return &t
}

type versionsResponse struct {
	Versions []struct {
		Num       string `json:"num"`
		CreatedAt string `json:"created_at"`
		Yanked    bool   `json:"yanked"`
		Downloads int    `json:"downloads"`
	} `json:"versions"`
}

type ownersResponse struct {
	Users []struct {
		Login  string `json:"login"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar"`
	} `json:"users"`
}
