package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/benmeehan/fieldcase/internal/mocks"
	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockProcessor is a testify mock of ImageProcessor
type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Normalize(r io.Reader) ([]byte, error) {
	args := m.Called(r)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestImageService(store CaseStore, host *mocks.MockImageHost) *ImageService {
	svc := NewImageService(store, host, nil, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func imageFile(name string) ImageFile {
	return ImageFile{Name: name, Content: strings.NewReader("img"), Size: 3, ContentType: "image/jpeg"}
}

func TestImageService_AddImages(t *testing.T) {
	store := new(mocks.MockCaseStore)
	host := new(mocks.MockImageHost)

	store.On("LoadCase", mock.Anything, "c1").
		Return(&models.Case{ID: "c1", PropertyImages: []string{"https://host/old.jpg"}}, nil)
	host.On("UploadImage", mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "c1/property/") && strings.HasSuffix(name, ".jpg")
	}), mock.Anything, int64(3), "image/jpeg").Return("https://host/a.jpg", nil).Once()
	host.On("UploadImage", mock.Anything, mock.Anything, mock.Anything, int64(3), "image/jpeg").
		Return("https://host/b.jpg", nil).Once()
	store.On("UpdateCase", mock.Anything, "c1", map[string]any{
		models.FieldPropertyImages: []string{"https://host/old.jpg", "https://host/a.jpg", "https://host/b.jpg"},
		models.FieldUpdatedAt:      fixedNow,
	}).Return(nil).Once()

	urls, err := newTestImageService(store, host).
		AddImages(context.Background(), "c1", KindProperty, []ImageFile{imageFile("front.JPG"), imageFile("side.jpg")})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://host/a.jpg", "https://host/b.jpg"}, urls)
	store.AssertExpectations(t)
	host.AssertExpectations(t)
}

func TestImageService_AddImages_UploadFailureWritesNothing(t *testing.T) {
	store := new(mocks.MockCaseStore)
	host := new(mocks.MockImageHost)

	store.On("LoadCase", mock.Anything, "c1").Return(&models.Case{ID: "c1"}, nil)
	host.On("UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unavailable"))

	_, err := newTestImageService(store, host).
		AddImages(context.Background(), "c1", KindDocuments, []ImageFile{imageFile("deed.png")})

	assert.ErrorContains(t, err, "failed to upload deed.png")
	store.AssertNotCalled(t, "UpdateCase", mock.Anything, mock.Anything, mock.Anything)
}

func TestImageService_UnknownKind(t *testing.T) {
	svc := newTestImageService(new(mocks.MockCaseStore), new(mocks.MockImageHost))

	_, err := svc.AddImages(context.Background(), "c1", ImageKind("video"), []ImageFile{imageFile("a.mp4")})
	assert.ErrorIs(t, err, ErrUnknownImageKind)

	err = svc.RemoveImage(context.Background(), "c1", ImageKind("video"), 0)
	assert.ErrorIs(t, err, ErrUnknownImageKind)
}

func TestImageService_RemoveImage(t *testing.T) {
	store := new(mocks.MockCaseStore)
	host := new(mocks.MockImageHost)

	store.On("LoadCase", mock.Anything, "c1").
		Return(&models.Case{ID: "c1", Documents: []string{"u0", "u1", "u2"}}, nil)
	host.On("DeleteImage", mock.Anything, "u1").Return(errors.New("gone"))
	store.On("UpdateCase", mock.Anything, "c1", map[string]any{
		models.FieldDocuments: []string{"u0", "u2"},
		models.FieldUpdatedAt: fixedNow,
	}).Return(nil).Once()

	svc := newTestImageService(store, host)
	require.NoError(t, svc.RemoveImage(context.Background(), "c1", KindDocuments, 1))
	assert.ErrorContains(t, svc.RemoveImage(context.Background(), "c1", KindDocuments, 5), "out of range")
	store.AssertExpectations(t)
}

func TestImageService_AddImages_NormalizesBeforeUpload(t *testing.T) {
	store := new(mocks.MockCaseStore)
	host := new(mocks.MockImageHost)
	processor := new(mockProcessor)

	store.On("LoadCase", mock.Anything, "c1").Return(&models.Case{ID: "c1"}, nil)
	processor.On("Normalize", mock.Anything).Return([]byte("jpeg-bytes"), nil).Once()
	host.On("UploadImage", mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "c1/documents/") && strings.HasSuffix(name, ".jpg")
	}), mock.MatchedBy(func(r io.Reader) bool {
		br, ok := r.(*bytes.Reader)
		return ok && br.Size() == int64(len("jpeg-bytes"))
	}), int64(10), "image/jpeg").Return("https://host/d.jpg", nil).Once()
	store.On("UpdateCase", mock.Anything, "c1", mock.Anything).Return(nil).Once()

	svc := NewImageService(store, host, processor, zerolog.Nop())
	urls, err := svc.AddImages(context.Background(), "c1", KindDocuments, []ImageFile{
		{Name: "deed.PNG", Content: strings.NewReader("png"), Size: 3, ContentType: "image/png"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://host/d.jpg"}, urls)
	host.AssertExpectations(t)
	processor.AssertExpectations(t)
}

func TestImageService_AddImages_ProcessFailureWritesNothing(t *testing.T) {
	store := new(mocks.MockCaseStore)
	host := new(mocks.MockImageHost)
	processor := new(mockProcessor)

	store.On("LoadCase", mock.Anything, "c1").Return(&models.Case{ID: "c1"}, nil)
	processor.On("Normalize", mock.Anything).Return(nil, errors.New("not an image"))

	svc := NewImageService(store, host, processor, zerolog.Nop())
	_, err := svc.AddImages(context.Background(), "c1", KindProperty, []ImageFile{imageFile("notes.txt")})

	assert.ErrorContains(t, err, "failed to process notes.txt")
	host.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "UpdateCase", mock.Anything, mock.Anything, mock.Anything)
}
