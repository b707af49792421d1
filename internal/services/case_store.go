package services

import (
	"context"

	"github.com/benmeehan/fieldcase/internal/models"
)

// CaseStore is the document store holding case records.
type CaseStore interface {
	CreateCase(ctx context.Context, c *models.Case) (string, error)
	LoadCase(ctx context.Context, id string) (*models.Case, error)
	UpdateCase(ctx context.Context, id string, fields map[string]any) error
	NextCounter(ctx context.Context, valuer string) (int, error)
	// ListCases returns the cases matching query, newest first.
	ListCases(ctx context.Context, query models.CaseQuery) ([]*models.Case, error)
}
