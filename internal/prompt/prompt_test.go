package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/benmeehan/fieldcase/internal/capture"
	"github.com/benmeehan/fieldcase/pkg/location"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes word", "  YES \n", true},
		{"no", "n\n", false},
		{"empty line defaults to no", "\n", false},
		{"retry after garbage", "maybe\ny\n", true},
		{"answer without newline", "y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := NewTerminal(strings.NewReader(tt.input), &out).Confirm(capture.RecaptureMessage)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Location already exists. Recapture? [y/N]: ")
		})
	}
}

func TestTerminal_Confirm_EOF(t *testing.T) {
	ok, err := NewTerminal(strings.NewReader(""), &bytes.Buffer{}).Confirm("Replace it?")

	assert.ErrorIs(t, err, ErrNoAnswer)
	assert.False(t, ok)

	_, err = NewTerminal(strings.NewReader("what"), &bytes.Buffer{}).Confirm("Replace it?")
	assert.ErrorIs(t, err, ErrNoAnswer)
}

func TestTerminal_ImplementsConfirmer(t *testing.T) {
	var _ capture.Confirmer = NewTerminal(strings.NewReader(""), &bytes.Buffer{})
	var _ capture.Observer = NewProgressPrinter(&bytes.Buffer{})
}

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressPrinter(&out)

	p.StateChanged("s", capture.StateSampling)
	p.ProgressUpdated("s", capture.Progress{Completed: 2, Target: 7, Latest: location.Reading{Accuracy: 8.3}})
	p.StateChanged("s", capture.StateCommitted)

	assert.Equal(t, "Capturing accurate location...\nCapturing location (2/7) accuracy 8.3m\n", out.String())
}
