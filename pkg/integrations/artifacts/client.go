package artifacts

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/dnscache"

	"github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/httputil"
	"github.com/docyard/docyard/pkg/integrations"
)

// DefaultHost is the artifact store root for published crate archives.
const DefaultHost = "https://static.crates.io/crates"

// Archives can be large, so downloads get a much longer timeout than
// metadata requests.
const downloadTimeout = 5 * time.Minute

// Fetcher downloads one versioned package archive into a directory and
// returns the path of the written .crate file. Implemented by [Client];
// tests substitute fakes that write crafted archives.
type Fetcher interface {
	FetchArchive(ctx context.Context, name, version, destDir string) (string, error)
}

// Client downloads versioned package archives from the artifact store.
//
// Fetched archives are immutable, so an optional [httputil.Cache] can short
// circuit repeat downloads; pass nil to always hit the network. All methods
// are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
	cache   *httputil.Cache
}

// NewClient creates an artifact client for the given host root. Pass "" to
// use [DefaultHost]. A non-nil cache stores archive payloads keyed by
// canonical name under the "archive:" namespace.
func NewClient(host string, cache *httputil.Cache) *Client {
	if host == "" {
		host = DefaultHost
	}
	c := &Client{
		Client:  integrations.NewClientWithHTTP(newDownloadClient(), map[string]string{"User-Agent": integrations.UserAgent}),
		baseURL: strings.TrimSuffix(host, "/"),
	}
	if cache != nil {
		c.cache = cache.Namespace("archive:")
	}
	return c
}

// FetchArchive downloads "{host}/{name}/{name}-{version}.crate" into
// destDir and returns the path of the written archive file. Transport
// failures surface as FETCH_FAILED errors (the transport sentinel stays
// reachable through the error chain); write failures as FILESYSTEM.
func (c *Client) FetchArchive(ctx context.Context, name, version, destDir string) (string, error) {
	canonical := name + "-" + version
	target := filepath.Join(destDir, canonical+".crate")

	if c.cache != nil {
		var data []byte
		if ok, _ := c.cache.Get(canonical, &data); ok {
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return "", errors.Wrap(errors.ErrCodeFilesystem, err, "write archive %s", target)
			}
			return target, nil
		}
	}

	url := fmt.Sprintf("%s/%s/%s.crate", c.baseURL, name, canonical)
	body, err := c.Stream(ctx, url)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFetch, err, "download %s", url)
	}
	defer body.Close()

	if c.cache != nil {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFetch, err, "download %s", url)
		}
		_ = c.cache.Set(canonical, data)
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return "", errors.Wrap(errors.ErrCodeFilesystem, err, "write archive %s", target)
		}
		return target, nil
	}

	out, err := os.Create(target)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFilesystem, err, "create archive %s", target)
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(target)
		return "", errors.Wrap(errors.ErrCodeFetch, err, "download %s", url)
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeFilesystem, err, "close archive %s", target)
	}
	return target, nil
}

// newDownloadClient builds an HTTP client whose dialer resolves through a
// refreshing DNS cache. Bulk archive fetches hammer the same host, so
// caching lookups keeps the walk from leaning on the local resolver.
func newDownloadClient() *http.Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: downloadTimeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, fmt.Errorf("no dialable address for %s", host)
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
