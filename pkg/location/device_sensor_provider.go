package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// DefaultUERE is the user equivalent range error, in meters, used to turn HDOP into an accuracy radius.
const DefaultUERE = 5.0

// minHighAccuracySatellites is the satellite count required when a high accuracy fix is requested.
const minHighAccuracySatellites = 4

// DeviceSensorProvider is responsible for retrieving location data from a GPS device connected via serial port.
type DeviceSensorProvider struct {
	port     string  // Serial port to which the GPS device is connected
	baudRate int     // Baud rate for the serial communication
	uere     float64 // Meters per unit of HDOP

	open func() (io.ReadCloser, error)
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int, uere float64) *DeviceSensorProvider {
	d := &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
		uere:     uere,
	}
	d.open = d.openSerial
	return d
}

func (d *DeviceSensorProvider) openSerial() (io.ReadCloser, error) {
	c := &serial.Config{Name: d.port, Baud: d.baudRate, ReadTimeout: time.Second}
	return serial.OpenPort(c)
}

// GetCurrentFix reads NMEA sentences from the device until a usable GGA fix arrives.
// The port is opened per request, so every fix is fresh regardless of opts.MaxAge.
func (d *DeviceSensorProvider) GetCurrentFix(ctx context.Context, opts FixOptions) (Reading, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	s, err := d.open()
	if err != nil {
		if os.IsPermission(err) {
			return Reading{}, &PositionError{Code: PermissionDenied, Err: err}
		}
		return Reading{}, &PositionError{Code: Unavailable, Err: err}
	}

	type result struct {
		reading Reading
		err     error
	}
	done := make(chan result, 1)
	go func() {
		reading, err := d.scanFix(s, opts.HighAccuracy)
		done <- result{reading: reading, err: err}
	}()

	select {
	case res := <-done:
		s.Close()
		return res.reading, res.err
	case <-ctx.Done():
		// Closing the port unblocks the scanner goroutine.
		s.Close()
		return Reading{}, classifyError(ctx.Err())
	}
}

// scanFix reads lines until a valid GGA sentence is found.
func (d *DeviceSensorProvider) scanFix(r io.Reader, highAccuracy bool) (Reading, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") || !strings.Contains(line, "GGA") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// partial sentences are common right after the port opens
			continue
		}

		gga, ok := sentence.(nmea.GGA)
		if !ok || gga.FixQuality == nmea.Invalid || gga.FixQuality == "" {
			continue
		}
		if highAccuracy && gga.NumSatellites < minHighAccuracySatellites {
			continue
		}

		return Reading{
			Latitude:   gga.Latitude,
			Longitude:  gga.Longitude,
			Accuracy:   gga.HDOP * d.uere,
			CapturedAt: nowMillis(),
		}, nil
	}

	if err := scanner.Err(); err != nil {
		return Reading{}, &PositionError{Code: Unavailable, Err: err}
	}

	return Reading{}, &PositionError{Code: Unavailable, Err: errors.New("no valid GPS data found")}
}

// Close releases provider resources. The serial port is only held during a request.
func (d *DeviceSensorProvider) Close() error {
	return nil
}
