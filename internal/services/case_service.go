package services

import (
	"context"
	"fmt"
	"time"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/rs/zerolog"
)

// CaseService creates and updates case records.
type CaseService struct {
	store  CaseStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewCaseService creates a new CaseService.
func NewCaseService(store CaseStore, logger zerolog.Logger) *CaseService {
	return &CaseService{store: store, logger: logger, now: time.Now}
}

// NewCase returns an unsaved case with intake defaults.
func (s *CaseService) NewCase() *models.Case {
	return models.NewCase(s.now())
}

// CreateCase validates c, allocates its case number and stores it.
func (s *CaseService) CreateCase(ctx context.Context, c *models.Case) (*models.Case, error) {
	c.Valuer = models.NormalizeValuer(c.Valuer)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	next, err := s.store.NextCounter(ctx, c.Valuer)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate case number: %w", err)
	}

	c.CaseNo = FormatCaseNo(c.Valuer, next)
	c.Status = c.ComputeStatus()
	if c.Documents == nil {
		c.Documents = []string{}
	}
	if c.PropertyImages == nil {
		c.PropertyImages = []string{}
	}

	id, err := s.store.CreateCase(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}
	c.ID = id

	s.logger.Info().
		Str("case_id", id).
		Str("case_no", c.CaseNo).
		Msg("Case created")
	return c, nil
}

// LoadCase returns a stored case.
func (s *CaseService) LoadCase(ctx context.Context, id string) (*models.Case, error) {
	return s.store.LoadCase(ctx, id)
}

// SubmitReport records the report submission date, which completes the case.
// An empty date reopens it.
func (s *CaseService) SubmitReport(ctx context.Context, id, date string) error {
	status := models.CaseStatusCompleted
	if date == "" {
		status = models.CaseStatusOpen
	}

	return s.store.UpdateCase(ctx, id, map[string]any{
		"reportSubmittedDate": date,
		"reopenCase":          date == "",
		"status":              status,
		models.FieldUpdatedAt: s.now().UTC(),
	})
}

// FormatCaseNo renders the case number of a valuer: "M" uses two digits, other valuers three.
func FormatCaseNo(valuer string, n int) string {
	if valuer == "M" {
		return fmt.Sprintf("%s%02d", valuer, n)
	}
	return fmt.Sprintf("%s%03d", valuer, n)
}

// ListCases returns the cases matching filter and search, newest first.
func (s *CaseService) ListCases(ctx context.Context, filter models.CaseFilter, search string) ([]*models.Case, error) {
	if _, err := models.ParseCaseFilter(string(filter)); err != nil {
		return nil, err
	}

	cases, err := s.store.ListCases(ctx, models.CaseQuery{
		Filter: filter,
		Search: search,
		Now:    s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	s.logger.Debug().
		Str("filter", string(filter)).
		Str("search", search).
		Int("count", len(cases)).
		Msg("Cases listed")
	return cases, nil
}
