package storage

import (
	"context"
	"io"
	"strings"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket           string
	Key              string
	ContentType      string
	Size             int64
	ProgressCallback func(done, total int64)
}

// Service stores archived reports in remote object storage.
type Service interface {
	UploadObject(ctx context.Context, body io.Reader, opts UploadOptions) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// ParseLocation splits an s3://bucket/key location into its parts.
func ParseLocation(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// BusinessPrefix is the key prefix under which a business's archives live.
func BusinessPrefix(keyPrefix, businessID string) string {
	prefix := businessID + "/"
	if p := strings.Trim(keyPrefix, "/"); p != "" {
		prefix = p + "/" + prefix
	}
	return prefix
}

// ReportKey is the object key of an archived report.
func ReportKey(keyPrefix, businessID, reportID string) string {
	return BusinessPrefix(keyPrefix, businessID) + reportID + ".json"
}
