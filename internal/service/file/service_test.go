package file

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bimworks/portal-backend/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (FileService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "http://localhost:8080/storage")
	require.NoError(t, err)
	return NewFileService(store), dir
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadLeaveDocument_ImageIsStoredAsJPEG(t *testing.T) {
	svc, dir := newTestService(t)

	url, err := svc.UploadLeaveDocument(context.Background(), "emp-1", bytes.NewReader(pngBytes(t, 64, 64)), "note.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/storage/leave-documents/emp-1/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	rel := strings.TrimPrefix(url, "http://localhost:8080/storage/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestUploadLeaveDocument_Rejects(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UploadLeaveDocument(context.Background(), "emp-1", strings.NewReader("x"), "script.exe")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	big := io.LimitReader(zeroReader{}, MaxDocumentSize+10)
	_, err = svc.UploadLeaveDocument(context.Background(), "emp-1", big, "scan.pdf")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadCV(t *testing.T) {
	svc, _ := newTestService(t)

	url, err := svc.UploadCV(context.Background(), "emp-1", strings.NewReader("%PDF-1.4"), "cv.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "/cvs/emp-1/cv-")

	_, err = svc.UploadCV(context.Background(), "emp-1", strings.NewReader("x"), "cv.png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadProjectCover_AndDelete(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	url, err := svc.UploadProjectCover(ctx, "proj-1", bytes.NewReader(pngBytes(t, 32, 32)), "cover.png")
	require.NoError(t, err)

	rel := strings.TrimPrefix(url, "http://localhost:8080/storage/")
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByURL(ctx, storage.BucketProjects, url))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, svc.DeleteByURL(ctx, storage.BucketProjects, "https://elsewhere.example/x.jpg"))
}

func TestCompressImage_ShrinksLargeImages(t *testing.T) {
	src := pngBytes(t, 800, 800)
	out, err := compressImage(src, 20*1024, 5*1024)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
