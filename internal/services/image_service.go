package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/pkg/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImageKind selects which image list of a case is updated.
type ImageKind string

const (
	KindProperty  ImageKind = "property"
	KindDocuments ImageKind = "documents"
)

// ErrUnknownImageKind is returned for kinds other than property and documents.
var ErrUnknownImageKind = errors.New("unknown image kind")

// ImageFile is a single image to upload.
type ImageFile struct {
	Name        string
	Content     io.Reader
	Size        int64
	ContentType string
}

// ImageProcessor turns an uploaded image into the JPEG stored on the host.
type ImageProcessor interface {
	Normalize(r io.Reader) ([]byte, error)
}

// ImageService uploads case images to the image host and records their URLs on the case.
type ImageService struct {
	store     CaseStore
	host      s3.ImageHost
	processor ImageProcessor
	logger    zerolog.Logger
	now       func() time.Time
}

// NewImageService creates a new ImageService. A nil processor uploads files unchanged.
func NewImageService(store CaseStore, host s3.ImageHost, processor ImageProcessor, logger zerolog.Logger) *ImageService {
	return &ImageService{store: store, host: host, processor: processor, logger: logger, now: time.Now}
}

// prepare runs the processor over f. The result is always a JPEG.
func (s *ImageService) prepare(f ImageFile) (ImageFile, error) {
	if s.processor == nil {
		return f, nil
	}

	data, err := s.processor.Normalize(f.Content)
	if err != nil {
		return ImageFile{}, fmt.Errorf("failed to process %s: %w", f.Name, err)
	}

	return ImageFile{
		Name:        strings.TrimSuffix(f.Name, path.Ext(f.Name)) + ".jpg",
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "image/jpeg",
	}, nil
}

func (k ImageKind) field() (string, error) {
	switch k {
	case KindProperty:
		return models.FieldPropertyImages, nil
	case KindDocuments:
		return models.FieldDocuments, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownImageKind, k)
	}
}

func imagesOf(c *models.Case, kind ImageKind) []string {
	if kind == KindDocuments {
		return c.Documents
	}
	return c.PropertyImages
}

// AddImages uploads files one by one and appends their URLs to the case in a single update.
// Nothing is written to the case if any upload fails.
func (s *ImageService) AddImages(ctx context.Context, caseID string, kind ImageKind, files []ImageFile) ([]string, error) {
	field, err := kind.field()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	caseRecord, err := s.store.LoadCase(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	uploaded := make([]string, 0, len(files))
	for _, f := range files {
		f, err := s.prepare(f)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to process image")
			return nil, err
		}

		objectName := path.Join(caseID, string(kind), uuid.New().String()+strings.ToLower(path.Ext(f.Name)))
		url, err := s.host.UploadImage(ctx, objectName, f.Content, f.Size, f.ContentType)
		if err != nil {
			s.logger.Error().Err(err).Str("file", f.Name).Msg("Failed to upload image")
			return nil, fmt.Errorf("failed to upload %s: %w", f.Name, err)
		}
		uploaded = append(uploaded, url)
	}

	images := append(append([]string{}, imagesOf(caseRecord, kind)...), uploaded...)
	err = s.store.UpdateCase(ctx, caseID, map[string]any{
		field:                 images,
		models.FieldUpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s images: %w", kind, err)
	}

	s.logger.Info().
		Str("case_id", caseID).
		Str("kind", string(kind)).
		Int("uploaded", len(uploaded)).
		Msg("Images added to case")
	return uploaded, nil
}

// RemoveImage deletes the image at index from the host and from the case.
func (s *ImageService) RemoveImage(ctx context.Context, caseID string, kind ImageKind, index int) error {
	field, err := kind.field()
	if err != nil {
		return err
	}

	caseRecord, err := s.store.LoadCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	images := imagesOf(caseRecord, kind)
	if index < 0 || index >= len(images) {
		return fmt.Errorf("image index %d out of range", index)
	}

	if err := s.host.DeleteImage(ctx, images[index]); err != nil {
		// removal from the case proceeds even if the host delete fails
		s.logger.Warn().Err(err).Str("url", images[index]).Msg("Failed to delete image from host")
	}

	remaining := append(append([]string{}, images[:index]...), images[index+1:]...)
	return s.store.UpdateCase(ctx, caseID, map[string]any{
		field:                 remaining,
		models.FieldUpdatedAt: s.now().UTC(),
	})
}
