package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Import for PNG decoding support
	"io"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bimworks/portal-backend/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Import for WebP decoding support
)

const (
	MaxDocumentSize = 5 << 20
	MaxImageSize    = 10 << 20
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file is too large")
)

type FileService interface {
	// UploadLeaveDocument stores a supporting document for a leave request.
	// Images are normalised to JPEG.
	UploadLeaveDocument(ctx context.Context, employeeID string, file io.Reader, filename string) (string, error)

	// UploadCV stores an employee CV (pdf, doc, docx).
	UploadCV(ctx context.Context, employeeID string, file io.Reader, filename string) (string, error)

	// UploadProjectCover stores a portfolio cover image as JPEG.
	UploadProjectCover(ctx context.Context, projectID string, file io.Reader, filename string) (string, error)

	// DeleteByURL removes an object previously returned by an upload. URLs
	// outside the bucket are ignored.
	DeleteByURL(ctx context.Context, bucket, url string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
	now     func() time.Time
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
		now:     time.Now,
	}
}

var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

var cvTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var coverTypes = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// UploadLeaveDocument implements FileService.
func (s *fileServiceImpl) UploadLeaveDocument(ctx context.Context, employeeID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := documentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: only pdf, jpg, jpeg, png allowed", ErrUnsupportedType)
	}

	buffer, err := readLimited(file, MaxDocumentSize)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(contentType, "image/") {
		buffer, err = compressImage(buffer, 500*1024, 50*1024)
		if err != nil {
			return "", fmt.Errorf("failed to compress image: %w", err)
		}
		ext, contentType = ".jpg", "image/jpeg"
	}

	// leave-documents/{employeeID}/{yyyy-mm}/{uuid}.ext
	objectPath := path.Join(employeeID, s.now().Format("2006-01"), uuid.New().String()+ext)
	url, err := s.storage.Upload(ctx, storage.BucketLeaveDocuments, objectPath, bytes.NewReader(buffer), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload leave document: %w", err)
	}
	return url, nil
}

// UploadCV implements FileService.
func (s *fileServiceImpl) UploadCV(ctx context.Context, employeeID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := cvTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: only pdf, doc, docx allowed", ErrUnsupportedType)
	}

	buffer, err := readLimited(file, MaxDocumentSize)
	if err != nil {
		return "", err
	}

	objectPath := path.Join(employeeID, fmt.Sprintf("cv-%d%s", s.now().Unix(), ext))
	url, err := s.storage.Upload(ctx, storage.BucketCVs, objectPath, bytes.NewReader(buffer), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload cv: %w", err)
	}
	return url, nil
}

// UploadProjectCover implements FileService.
func (s *fileServiceImpl) UploadProjectCover(ctx context.Context, projectID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !coverTypes[ext] {
		return "", fmt.Errorf("%w: only jpg, jpeg, png, webp allowed", ErrUnsupportedType)
	}

	buffer, err := readLimited(file, MaxImageSize)
	if err != nil {
		return "", err
	}

	compressed, err := compressImage(buffer, 400*1024, 80*1024)
	if err != nil {
		return "", fmt.Errorf("failed to compress image: %w", err)
	}

	objectPath := path.Join(projectID, uuid.New().String()+".jpg")
	url, err := s.storage.Upload(ctx, storage.BucketProjects, objectPath, bytes.NewReader(compressed), "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload project cover: %w", err)
	}
	return url, nil
}

// DeleteByURL implements FileService.
func (s *fileServiceImpl) DeleteByURL(ctx context.Context, bucket, url string) error {
	objectPath, ok := s.storage.PathFromURL(bucket, url)
	if !ok {
		return nil
	}
	return s.storage.Delete(ctx, bucket, objectPath)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	buffer, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(buffer)) > limit {
		return nil, ErrFileTooLarge
	}
	return buffer, nil
}

// compressImage re-encodes an image as JPEG, lowering quality and then size
// until it falls under maxSize. Images already inside [minSize, maxSize] that
// are JPEG are returned unchanged.
func compressImage(buffer []byte, maxSize int, minSize int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if format == "jpeg" && len(buffer) <= maxSize {
		return buffer, nil
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	quality := 85
	var compressed []byte
	for quality >= 50 {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		compressed = buf.Bytes()

		if len(compressed) <= maxSize {
			return compressed, nil
		}
		quality -= 5
	}

	// Still too large: scale down towards the middle of the range.
	targetSize := (maxSize + minSize) / 2
	ratio := math.Sqrt(float64(targetSize) / float64(len(compressed)))
	newWidth := int(float64(originalWidth) * ratio)
	newHeight := int(float64(originalHeight) * ratio)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resizeImage(img, newWidth, newHeight), &jpeg.Options{Quality: 70}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeImage resizes an image to the specified dimensions using high-quality interpolation
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
