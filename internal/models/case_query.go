package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CaseFilter selects a subset of cases in listings.
type CaseFilter string

const (
	FilterAll            CaseFilter = "all"
	FilterPendingReport  CaseFilter = "pendingReport"
	FilterPaymentPending CaseFilter = "paymentPending"
	FilterThisMonth      CaseFilter = "thisMonth"
)

// ErrUnknownCaseFilter is returned for filter names other than the CaseFilter constants.
var ErrUnknownCaseFilter = errors.New("unknown case filter")

// ParseCaseFilter validates name. An empty name means FilterAll.
func ParseCaseFilter(name string) (CaseFilter, error) {
	switch f := CaseFilter(name); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPendingReport, FilterPaymentPending, FilterThisMonth:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCaseFilter, name)
	}
}

// CaseQuery describes a case listing. Now anchors FilterThisMonth.
type CaseQuery struct {
	Filter CaseFilter
	Search string
	Now    time.Time
}

// MonthBounds returns the start of the calendar month of now and the start of the next one.
func MonthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// SearchTerm is the normalized search text. Empty means no search.
func (q CaseQuery) SearchTerm() string {
	return strings.ToLower(strings.TrimSpace(q.Search))
}

// Matches reports whether c belongs to the listing.
func (q CaseQuery) Matches(c *Case) bool {
	if term := q.SearchTerm(); term != "" && !c.matchesSearch(term) {
		return false
	}

	switch q.Filter {
	case FilterPendingReport:
		return c.ReportSubmittedDate == ""
	case FilterPaymentPending:
		return c.ReportSubmittedDate != "" && c.PaymentReceivedDate == ""
	case FilterThisMonth:
		if c.CreatedAt.IsZero() {
			return false
		}
		start, end := MonthBounds(q.Now)
		return !c.CreatedAt.Before(start) && c.CreatedAt.Before(end)
	default:
		return true
	}
}

func (c *Case) matchesSearch(term string) bool {
	fields := []string{c.CaseNo, c.Name, c.ContactNo, c.Branch, c.City, c.Valuer}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
