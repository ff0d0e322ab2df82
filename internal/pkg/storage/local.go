package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps one directory per bucket under basePath. Objects are
// served by the API under baseURL.
type LocalStorage struct {
	basePath string
	baseURL  string // e.g. "http://localhost:8080/storage"
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	for _, bucket := range []string{BucketLeaveDocuments, BucketCVs, BucketProjects} {
		if err := os.MkdirAll(filepath.Join(abs, bucket), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	return &LocalStorage{
		basePath: abs,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root is the directory served under the public base URL.
func (s *LocalStorage) Root() string {
	return s.basePath
}

func (s *LocalStorage) resolve(bucket, path string) (string, error) {
	if !validBucket(bucket) {
		return "", fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	root := filepath.Join(s.basePath, bucket)
	full := filepath.Join(root, filepath.Clean("/"+path))
	if full == root || !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return full, nil
}

func (s *LocalStorage) Upload(ctx context.Context, bucket, path string, file io.Reader, contentType string) (string, error) {
	fullPath, err := s.resolve(bucket, path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	rel, _ := filepath.Rel(s.basePath, fullPath)
	return s.baseURL + "/" + filepath.ToSlash(rel), nil
}

func (s *LocalStorage) Download(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, bucket, path string) error {
	fullPath, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) PathFromURL(bucket, url string) (string, bool) {
	prefix := s.baseURL + "/" + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
