// Package layout arranges case images on A4 pages for printing.
package layout

import (
	"errors"
	"fmt"

	"github.com/benmeehan/fieldcase/internal/models"
)

// Mode selects which image list of a case is paginated.
type Mode string

const (
	ModeProperty  Mode = "property"
	ModeDocuments Mode = "documents"
)

var (
	// ErrUnknownMode is returned for modes other than property and documents.
	ErrUnknownMode = errors.New("unknown layout mode")
	// ErrUnsupportedPerPage is returned when no layout exists for the requested page size.
	ErrUnsupportedPerPage = errors.New("unsupported images per page")
)

// Layout describes one image cell on an A4 page, in pixels at 300 dpi.
type Layout struct {
	Cols   int     `json:"cols"`
	Rows   int     `json:"rows"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Aspect float64 `json:"aspect"`
}

// PhotoLayouts are the landscape layouts for property photos, keyed by images per page.
var PhotoLayouts = map[int]Layout{
	2: {Cols: 1, Rows: 2, Width: 3508, Height: 1240, Aspect: 3508.0 / 1240},
	3: {Cols: 1, Rows: 3, Width: 3508, Height: 826, Aspect: 3508.0 / 826},
	4: {Cols: 2, Rows: 2, Width: 1754, Height: 1240, Aspect: 4.0 / 3},
	6: {Cols: 2, Rows: 3, Width: 1754, Height: 826, Aspect: 4.0 / 3},
}

// DocumentLayouts are the portrait layouts for document scans, keyed by images per page.
var DocumentLayouts = map[int]Layout{
	1: {Cols: 1, Rows: 1, Width: 1240, Height: 1754, Aspect: 1 / 1.414},
	2: {Cols: 1, Rows: 2, Width: 1240, Height: 877, Aspect: 1 / 1.414},
	4: {Cols: 2, Rows: 2, Width: 620, Height: 877, Aspect: 1 / 1.414},
}

// full landscape page, used when a case has no photo page size set
var singlePhoto = Layout{Cols: 1, Rows: 1, Width: 3508, Height: 2480, Aspect: 3508.0 / 2480}

// SplitIntoPages chunks items into pages of perPage items. The last page may be short.
func SplitIntoPages[T any](items []T, perPage int) [][]T {
	if perPage < 1 {
		perPage = 1
	}
	pages := make([][]T, 0, (len(items)+perPage-1)/perPage)
	for i := 0; i < len(items); i += perPage {
		end := min(i+perPage, len(items))
		pages = append(pages, items[i:end])
	}
	return pages
}

// Pages is a paginated image list together with the layout of each page.
type Pages struct {
	Mode    Mode       `json:"mode"`
	PerPage int        `json:"perPage"`
	Layout  Layout     `json:"layout"`
	Pages   [][]string `json:"pages"`
}

// Paginate splits the images of c for mode using the case's per-page setting. A zero
// setting falls back to one image per page.
func Paginate(c *models.Case, mode Mode) (*Pages, error) {
	var (
		images  []string
		perPage int
		layouts map[int]Layout
		single  Layout
	)

	switch mode {
	case ModeProperty:
		images, perPage, layouts, single = c.PropertyImages, c.ImagesPerPage, PhotoLayouts, singlePhoto
	case ModeDocuments:
		images, perPage, layouts, single = c.Documents, c.DocumentsPerPage, DocumentLayouts, DocumentLayouts[1]
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	if perPage == 0 {
		perPage = 1
	}

	layout, ok := layouts[perPage]
	if !ok {
		if perPage != 1 {
			return nil, fmt.Errorf("%w: %d %s images", ErrUnsupportedPerPage, perPage, mode)
		}
		layout = single
	}

	return &Pages{
		Mode:    mode,
		PerPage: perPage,
		Layout:  layout,
		Pages:   SplitIntoPages(images, perPage),
	}, nil
}
