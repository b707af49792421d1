// Package mapview opens stored case locations in an external map.
package mapview

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/rs/zerolog"
)

// Viewer shows a location to the user. Open does not wait for the viewer.
type Viewer interface {
	Open(record *models.LocationRecord)
}

// SatelliteURL returns a Google Maps link centered on record in satellite view.
func SatelliteURL(record *models.LocationRecord) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s&t=k",
		strconv.FormatFloat(record.Lat, 'f', -1, 64),
		strconv.FormatFloat(record.Lng, 'f', -1, 64))
}

// BrowserViewer opens the satellite URL with the platform's URL handler.
type BrowserViewer struct {
	logger  zerolog.Logger
	command func(url string) *exec.Cmd
}

// NewBrowserViewer creates a viewer for the current platform.
func NewBrowserViewer(logger zerolog.Logger) *BrowserViewer {
	return &BrowserViewer{logger: logger, command: openCommand}
}

// Open launches the browser and returns immediately.
func (b *BrowserViewer) Open(record *models.LocationRecord) {
	if record == nil {
		return
	}

	url := SatelliteURL(record)
	cmd := b.command(url)
	if err := cmd.Start(); err != nil {
		b.logger.Warn().Err(err).Str("url", url).Msg("Failed to open map viewer")
		return
	}
	go cmd.Wait()

	b.logger.Info().Str("url", url).Msg("Map viewer opened")
}

func openCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}
