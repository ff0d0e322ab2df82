package storage

import (
	"context"
	"errors"
	"io"
)

// Buckets used by the portal.
const (
	BucketLeaveDocuments = "leave-documents"
	BucketCVs            = "cvs"
	BucketProjects       = "projects"
)

var (
	ErrUnknownBucket = errors.New("unknown storage bucket")
	ErrInvalidPath   = errors.New("invalid file path")
	ErrFileNotFound  = errors.New("file not found")
)

type FileStorage interface {
	// Upload stores the object and returns its public URL.
	Upload(ctx context.Context, bucket, path string, file io.Reader, contentType string) (string, error)

	// Download retrieves an object.
	Download(ctx context.Context, bucket, path string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, path string) error

	// PathFromURL maps a URL returned by Upload back to its object path.
	PathFromURL(bucket, url string) (string, bool)
}

func validBucket(bucket string) bool {
	switch bucket {
	case BucketLeaveDocuments, BucketCVs, BucketProjects:
		return true
	}
	return false
}
