package layout

import (
	"testing"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoPages(t *testing.T) {
	tests := []struct {
		name    string
		items   []int
		perPage int
		want    [][]int
	}{
		{"empty", nil, 4, [][]int{}},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"short last page", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"zero per page", []int{1, 2}, 0, [][]int{{1}, {2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitIntoPages(tt.items, tt.perPage))
		})
	}
}

func TestPaginate_Property(t *testing.T) {
	c := &models.Case{
		PropertyImages: []string{"a", "b", "c", "d", "e", "f", "g"},
		ImagesPerPage:  6,
	}

	pages, err := Paginate(c, ModeProperty)

	require.NoError(t, err)
	assert.Equal(t, 6, pages.PerPage)
	assert.Equal(t, 2, pages.Layout.Cols)
	assert.Equal(t, 3, pages.Layout.Rows)
	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e", "f"}, {"g"}}, pages.Pages)
}

func TestPaginate_DocumentsFallback(t *testing.T) {
	c := &models.Case{Documents: []string{"d1", "d2"}}

	pages, err := Paginate(c, ModeDocuments)

	require.NoError(t, err)
	assert.Equal(t, 1, pages.PerPage)
	assert.Equal(t, DocumentLayouts[1], pages.Layout)
	assert.Len(t, pages.Pages, 2)
}

func TestPaginate_PropertyFallbackUsesFullPage(t *testing.T) {
	pages, err := Paginate(&models.Case{PropertyImages: []string{"a"}}, ModeProperty)

	require.NoError(t, err)
	assert.Equal(t, 1, pages.Layout.Cols)
	assert.Equal(t, 3508, pages.Layout.Width)
}

func TestPaginate_Unsupported(t *testing.T) {
	_, err := Paginate(&models.Case{ImagesPerPage: 5}, ModeProperty)
	assert.ErrorIs(t, err, ErrUnsupportedPerPage)

	_, err = Paginate(&models.Case{DocumentsPerPage: 3}, ModeDocuments)
	assert.ErrorIs(t, err, ErrUnsupportedPerPage)

	_, err = Paginate(&models.Case{}, Mode("video"))
	assert.ErrorIs(t, err, ErrUnknownMode)
}
