package storage

import (
	"bytes"
	"context"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	derrors "github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/httputil"
)

// Options configures an Uploader.
type Options struct {
	Bucket       string
	Region       string
	Endpoint     string // Optional custom endpoint (MinIO, LocalStack)
	UsePathStyle bool   // Path-style addressing, required by MinIO
	Logger       func(string, ...any)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// ObjectPutter is the subset of the S3 client the uploader needs.
// *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies built documentation trees into an S3 bucket.
type Uploader struct {
	client     ObjectPutter
	opts       Options
	retryDelay time.Duration
}

// New loads AWS configuration from the environment (credentials, shared
// config) and creates an Uploader for the configured bucket.
func New(ctx context.Context, opts Options) (*Uploader, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeUpload, err, "load AWS config")
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		})
	}
	if opts.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return NewWithClient(s3.NewFromConfig(awsCfg, s3Opts...), opts), nil
}

// NewWithClient creates an Uploader around a pre-configured client.
func NewWithClient(client ObjectPutter, opts Options) *Uploader {
	return &Uploader{
		client:     client,
		opts:       opts.WithDefaults(),
		retryDelay: 500 * time.Millisecond,
	}
}

// UploadDir uploads every regular file under dir as {prefix}/{relative
// path}, one object per file, retrying each object before giving up.
func (u *Uploader) UploadDir(ctx context.Context, dir, prefix string) error {
	var uploaded int
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return derrors.Wrap(derrors.ErrCodeFilesystem, err, "walk %s", p)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return derrors.Wrap(derrors.ErrCodeFilesystem, err, "walk %s", p)
		}
		if err := u.putFile(ctx, p, path.Join(prefix, filepath.ToSlash(rel))); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		return err
	}
	u.opts.Logger("uploaded %d objects under %s", uploaded, prefix)
	return nil
}

func (u *Uploader) putFile(ctx context.Context, file, key string) error {
	body, err := os.ReadFile(file)
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeFilesystem, err, "read %s", file)
	}
	contentType := contentTypeFor(key)

	err = httputil.Retry(ctx, 3, u.retryDelay, func() error {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.opts.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			// Object puts are idempotent, so every failure is worth a retry.
			return &httputil.RetryableError{Err: err}
		}
		return nil
	})
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeUpload, err, "upload %s", key)
	}
	return nil
}

// Extensions a rustdoc output tree actually contains; mime.TypeByExtension
// covers anything else.
var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".json":  "application/json",
	".svg":   "image/svg+xml",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".txt":   "text/plain; charset=utf-8",
}

func contentTypeFor(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
