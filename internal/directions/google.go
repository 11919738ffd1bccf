// Package directions asks the Google Routes API for a driving route between
// two points.
package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
)

const (
	DefaultURL = "https://routes.googleapis.com/directions/v2:computeRoutes"
	FieldMask  = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline,routes.legs"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("directions API key not configured")

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type waypoint struct {
	Location struct {
		LatLng latLng `json:"latLng"`
	} `json:"location"`
}

type routeRequest struct {
	Origin      waypoint `json:"origin"`
	Destination waypoint `json:"destination"`
	TravelMode  string   `json:"travelMode"`
}

func newWaypoint(l models.Location) waypoint {
	var w waypoint
	w.Location.LatLng = latLng{Latitude: l.Lat, Longitude: l.Lon}
	return w
}

// Client calls computeRoutes.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. An empty url selects DefaultURL.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Route returns the raw computeRoutes response for a drive from origin to destination.
func (c *Client) Route(ctx context.Context, origin, destination models.Location) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(routeRequest{
		Origin:      newWaypoint(origin),
		Destination: newWaypoint(destination),
		TravelMode:  "DRIVE",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", FieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("compute routes: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("compute routes http status: %d", resp.StatusCode)
	}
	if !json.Valid(b) {
		return nil, errors.New("compute routes returned invalid JSON")
	}
	return json.RawMessage(b), nil
}
