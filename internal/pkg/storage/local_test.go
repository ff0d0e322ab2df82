package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)

	url, err := s.Upload(ctx, BucketLeaveDocuments, "emp-1/note.pdf", strings.NewReader("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/storage/leave-documents/emp-1/note.pdf", url)

	path, ok := s.PathFromURL(BucketLeaveDocuments, url)
	require.True(t, ok)
	assert.Equal(t, "emp-1/note.pdf", path)

	rc, err := s.Download(ctx, BucketLeaveDocuments, path)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))

	require.NoError(t, s.Delete(ctx, BucketLeaveDocuments, path))
	require.NoError(t, s.Delete(ctx, BucketLeaveDocuments, path))

	_, err = s.Download(ctx, BucketLeaveDocuments, path)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorage_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost/storage")
	require.NoError(t, err)

	_, err = s.Upload(ctx, "secrets", "a.txt", strings.NewReader("x"), "text/plain")
	assert.ErrorIs(t, err, ErrUnknownBucket)

	_, err = s.Upload(ctx, BucketCVs, "", strings.NewReader("x"), "text/plain")
	assert.ErrorIs(t, err, ErrInvalidPath)

	url, err := s.Upload(ctx, BucketCVs, "../../escape.txt", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/storage/cvs/escape.txt", url)
}
