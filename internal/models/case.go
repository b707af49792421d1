package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Case statuses
const (
	CaseStatusOpen      = "open"
	CaseStatusCompleted = "completed"
)

// Default page sizes for newly created cases.
const (
	DefaultDocumentsPerPage = 2
	DefaultImagesPerPage    = 6
)

// Case document field names used in partial updates.
const (
	FieldPropertyLocation     = "propertyLocation"
	FieldPropertyLocationText = "propertyLocationText"
	FieldPropertyImages       = "propertyImages"
	FieldDocuments            = "documents"
	FieldUpdatedAt            = "updatedAt"
)

// ErrMissingRequiredFields is returned when a case lacks one of its required fields.
var ErrMissingRequiredFields = errors.New("please fill all required fields")

// Case is a single valuation case as stored in the case store.
type Case struct {
	ID     string `json:"id"`
	CaseNo string `json:"caseNo,omitempty"`

	// Core
	CaseReceivedDate string `json:"caseReceivedDate"`
	Name             string `json:"name"`
	ContactNo        string `json:"contactNo"`
	City             string `json:"city"`
	Route            string `json:"route,omitempty"`
	Valuer           string `json:"valuer"`
	Branch           string `json:"branch"`
	Address          string `json:"address"`

	// Optional / billing
	ReportSubmittedDate string `json:"reportSubmittedDate,omitempty"`
	ReopenCase          bool   `json:"reopenCase,omitempty"`
	PaymentMode         string `json:"paymentMode,omitempty"`
	PaymentReceivedDate string `json:"paymentReceivedDate,omitempty"`
	PaymentAmount       string `json:"paymentAmount,omitempty"`
	ReceivedBy          string `json:"receivedBy,omitempty"`
	ReportBy            string `json:"reportBy,omitempty"`
	Remarks             string `json:"remarks,omitempty"`

	// System
	Documents            []string        `json:"documents"`
	PropertyImages       []string        `json:"propertyImages"`
	DocumentsPerPage     int             `json:"documentsPerPage"`
	ImagesPerPage        int             `json:"imagesPerPage"`
	Status               string          `json:"status"`
	PropertyLocation     *LocationRecord `json:"propertyLocation"`
	PropertyLocationText string          `json:"propertyLocationText,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// NewCase returns a case populated with the defaults of a fresh intake form.
func NewCase(now time.Time) *Case {
	return &Case{
		CaseReceivedDate: now.Format("2006-01-02"),
		Documents:        []string{},
		PropertyImages:   []string{},
		DocumentsPerPage: DefaultDocumentsPerPage,
		ImagesPerPage:    DefaultImagesPerPage,
		Status:           CaseStatusOpen,
	}
}

// Validate checks that every required intake field is present.
func (c *Case) Validate() error {
	required := []string{c.Name, c.ContactNo, c.City, c.Branch, c.Address, c.Valuer}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return ErrMissingRequiredFields
		}
	}
	return nil
}

// ComputeStatus derives the case status from the report submission date.
func (c *Case) ComputeStatus() string {
	if c.ReportSubmittedDate != "" {
		return CaseStatusCompleted
	}
	return CaseStatusOpen
}

// NormalizeValuer keeps the first ASCII letter of code, uppercased.
func NormalizeValuer(code string) string {
	for _, r := range strings.ToUpper(code) {
		if r <= unicode.MaxASCII && unicode.IsUpper(r) {
			return string(r)
		}
	}
	return ""
}

// ErrCaseNotFound is returned by case stores when no case has the requested id.
var ErrCaseNotFound = errors.New("case not found")

// ApplyFields overlays a partial update onto c using the JSON field names of Case.
func (c *Case) ApplyFields(fields map[string]any) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(doc, &merged); err != nil {
		return err
	}
	for key, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode field %s: %w", key, err)
		}
		merged[key] = raw
	}

	doc, err = json.Marshal(merged)
	if err != nil {
		return err
	}

	var updated Case
	if err := json.Unmarshal(doc, &updated); err != nil {
		return fmt.Errorf("failed to apply case fields: %w", err)
	}
	*c = updated
	return nil
}
