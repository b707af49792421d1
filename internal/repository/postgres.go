package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	id         UUID PRIMARY KEY,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS case_counters (
	valuer TEXT PRIMARY KEY,
	last   INTEGER NOT NULL
);
`

// Repository stores case documents as JSONB rows in PostgreSQL
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Migrate creates the case tables when they do not exist yet
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("repository: failed to apply schema: %w", err)
	}
	return nil
}

// CreateCase inserts a new case document and returns its id
func (r *Repository) CreateCase(ctx context.Context, c *models.Case) (string, error) {
	stored := *c
	stored.ID = uuid.New().String()

	sql := `
		INSERT INTO cases (id, doc)
		VALUES ($1, $2)
		RETURNING created_at
	`

	doc, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("repository: failed to encode case: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, stored.ID, doc).Scan(&stored.CreatedAt); err != nil {
		return "", fmt.Errorf("repository: failed to insert case: %w", err)
	}

	return stored.ID, nil
}

// LoadCase fetches a single case document by id
func (r *Repository) LoadCase(ctx context.Context, id string) (*models.Case, error) {
	sql := `
		SELECT doc, created_at, updated_at
		FROM cases
		WHERE id = $1
	`

	var (
		doc []byte
		c   models.Case
	)
	err := r.db.QueryRow(ctx, sql, id).Scan(&doc, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: %w: %s", models.ErrCaseNotFound, id)
		}
		return nil, fmt.Errorf("repository: failed to load case: %w", err)
	}

	createdAt, updatedAt := c.CreatedAt, c.UpdatedAt
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("repository: failed to decode case: %w", err)
	}
	c.ID = id
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt

	return &c, nil
}

// UpdateCase merges fields into the stored document
func (r *Repository) UpdateCase(ctx context.Context, id string, fields map[string]any) error {
	sql := `
		UPDATE cases
		SET doc = doc || $2::jsonb,
			updated_at = now()
		WHERE id = $1
	`

	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("repository: failed to encode case fields: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, id, patch)
	if err != nil {
		return fmt.Errorf("repository: failed to update case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: %w: %s", models.ErrCaseNotFound, id)
	}

	return nil
}

// NextCounter atomically increments the case counter of a valuer, starting at 1
func (r *Repository) NextCounter(ctx context.Context, valuer string) (int, error) {
	sql := `
		INSERT INTO case_counters (valuer, last)
		VALUES ($1, 1)
		ON CONFLICT (valuer) DO UPDATE SET last = case_counters.last + 1
		RETURNING last
	`

	var next int
	if err := r.db.QueryRow(ctx, sql, valuer).Scan(&next); err != nil {
		return 0, fmt.Errorf("repository: failed to allocate case number: %w", err)
	}

	return next, nil
}

// likeEscaper escapes LIKE wildcards in user supplied search text
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ListCases returns the cases matching query, newest first
func (r *Repository) ListCases(ctx context.Context, query models.CaseQuery) ([]*models.Case, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if term := query.SearchTerm(); term != "" {
		p := arg("%" + likeEscaper.Replace(term) + "%")
		var fields []string
		for _, f := range []string{"caseNo", "name", "contactNo", "branch", "city", "valuer"} {
			fields = append(fields, fmt.Sprintf("lower(coalesce(doc->>'%s', '')) LIKE %s", f, p))
		}
		where = append(where, "("+strings.Join(fields, " OR ")+")")
	}

	switch query.Filter {
	case models.FilterPendingReport:
		where = append(where, "coalesce(doc->>'reportSubmittedDate', '') = ''")
	case models.FilterPaymentPending:
		where = append(where,
			"coalesce(doc->>'reportSubmittedDate', '') <> ''",
			"coalesce(doc->>'paymentReceivedDate', '') = ''")
	case models.FilterThisMonth:
		start, end := models.MonthBounds(query.Now)
		where = append(where, "created_at >= "+arg(start), "created_at < "+arg(end))
	}

	sql := `SELECT id::text, doc, created_at, updated_at FROM cases`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list cases: %w", err)
	}
	defer rows.Close()

	cases := []*models.Case{}
	for rows.Next() {
		var (
			id  string
			doc []byte
			c   models.Case
		)
		if err := rows.Scan(&id, &doc, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan case: %w", err)
		}

		createdAt, updatedAt := c.CreatedAt, c.UpdatedAt
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, fmt.Errorf("repository: failed to decode case %s: %w", id, err)
		}
		c.ID = id
		c.CreatedAt = createdAt
		c.UpdatedAt = updatedAt
		cases = append(cases, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed to list cases: %w", err)
	}

	return cases, nil
}
