package mocks

import (
	"context"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of the location.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetCurrentFix(ctx context.Context, opts location.FixOptions) (location.Reading, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(location.Reading), args.Error(1)
}

func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockConfirmer is a mock implementation of the capture.Confirmer interface
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(message string) (bool, error) {
	args := m.Called(message)
	return args.Bool(0), args.Error(1)
}

// MockMapViewer is a mock implementation of the mapview.Viewer interface
type MockMapViewer struct {
	mock.Mock
}

func (m *MockMapViewer) Open(record *models.LocationRecord) {
	m.Called(record)
}
