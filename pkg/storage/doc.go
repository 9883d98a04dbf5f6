// Package storage mirrors built documentation trees to S3-compatible
// object storage.
//
// Objects are keyed {name}/{version}/{relative path} so a static site can
// serve them directly; content types are derived from file extensions.
// Custom endpoints and path-style addressing make the uploader work
// against MinIO and LocalStack as well as AWS.
package storage
