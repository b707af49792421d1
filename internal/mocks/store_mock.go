package mocks

import (
	"context"
	"io"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockCaseStore is a mock implementation of the services.CaseStore interface
type MockCaseStore struct {
	mock.Mock
}

func (m *MockCaseStore) CreateCase(ctx context.Context, c *models.Case) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

func (m *MockCaseStore) LoadCase(ctx context.Context, id string) (*models.Case, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*models.Case); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCaseStore) UpdateCase(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockCaseStore) NextCounter(ctx context.Context, valuer string) (int, error) {
	args := m.Called(ctx, valuer)
	return args.Int(0), args.Error(1)
}

func (m *MockCaseStore) ListCases(ctx context.Context, query models.CaseQuery) ([]*models.Case, error) {
	args := m.Called(ctx, query)
	if cases, ok := args.Get(0).([]*models.Case); ok {
		return cases, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockImageHost is a mock implementation of the s3.ImageHost interface
type MockImageHost struct {
	mock.Mock
}

func (m *MockImageHost) UploadImage(ctx context.Context, objectName string, content io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, objectName, content, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockImageHost) DeleteImage(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}
