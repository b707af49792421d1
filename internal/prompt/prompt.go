// Package prompt implements capture confirmations and progress output on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/benmeehan/fieldcase/internal/capture"
)

// ErrNoAnswer is returned when input ends before the user answers.
var ErrNoAnswer = errors.New("no answer received")

// Terminal asks yes/no questions on out and reads answers from in.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex
}

// NewTerminal creates a Terminal prompt.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Confirm prints message and waits for y/yes or n/no. Anything else asks again.
func (t *Terminal) Confirm(message string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		fmt.Fprintf(t.out, "%s [y/N]: ", message)

		line, err := t.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			if answer == "" && err != nil {
				if errors.Is(err, io.EOF) {
					return false, ErrNoAnswer
				}
				return false, err
			}
			return false, nil
		}

		if err != nil {
			return false, ErrNoAnswer
		}
	}
}

// ProgressPrinter writes session progress lines to out.
type ProgressPrinter struct {
	out io.Writer
}

// NewProgressPrinter creates a ProgressPrinter.
func NewProgressPrinter(out io.Writer) *ProgressPrinter {
	return &ProgressPrinter{out: out}
}

func (p *ProgressPrinter) StateChanged(_ string, state capture.State) {
	switch state {
	case capture.StateSampling:
		fmt.Fprintln(p.out, "Capturing accurate location...")
	case capture.StateReconciling:
		fmt.Fprintln(p.out, "Comparing with saved location...")
	}
}

func (p *ProgressPrinter) ProgressUpdated(_ string, progress capture.Progress) {
	fmt.Fprintf(p.out, "Capturing location (%d/%d) accuracy %.1fm\n",
		progress.Completed, progress.Target, progress.Latest.Accuracy)
}
