package location

import (
	"context"

	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider uses the Google Maps API to get location data.
type GoogleGeolocationProvider struct {
	client     *maps.Client // Maps API client for making geolocation requests
	modemIndex int
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:     c,
		modemIndex: modemIndex,
	}, nil
}

// GetCurrentFix retrieves the device's location using Google Maps Geolocation API.
// High accuracy requests include nearby WiFi access points and cell towers when they can be read.
func (g *GoogleGeolocationProvider) GetCurrentFix(ctx context.Context, opts FixOptions) (Reading, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req := &maps.GeolocationRequest{
		ConsiderIP: true,
	}

	if opts.HighAccuracy {
		if wifiAPs, err := getWiFiAccessPoints(ctx); err == nil {
			req.WiFiAccessPoints = wifiAPs
		}
		if cellTowers, err := getCellTowers(ctx, g.modemIndex); err == nil {
			req.CellTowers = cellTowers
		}
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Reading{}, classifyError(err)
	}

	return Reading{
		Latitude:   resp.Location.Lat,
		Longitude:  resp.Location.Lng,
		Accuracy:   resp.Accuracy,
		CapturedAt: nowMillis(),
	}, nil
}

// Close is a no-op; the maps client holds no open connections.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}
