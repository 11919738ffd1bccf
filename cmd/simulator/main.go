package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bishop254/vts-backend/internal/fakefleet"
	"github.com/bishop254/vts-backend/internal/geo"
	"github.com/bishop254/vts-backend/internal/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// apiClient talks to the backend's HTTP API.
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) post(ctx context.Context, path string, body interface{}, out interface{}) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// login exchanges credentials for a token and keeps it for later requests.
func (c *apiClient) login(ctx context.Context, email, password string) error {
	var resp models.LoginResponse
	status, err := c.post(ctx, "/user/login", models.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", status)
	}
	c.token = resp.Token
	return nil
}

func (c *apiClient) createVehicle(ctx context.Context, v models.Vehicle) (int64, error) {
	var resp struct {
		VehicleID int64 `json:"vehicleId"`
	}
	status, err := c.post(ctx, "/vehicle/add", v, &resp)
	if err != nil {
		return 0, fmt.Errorf("failed to create vehicle: %w", err)
	}
	if status != http.StatusCreated {
		return 0, fmt.Errorf("vehicle creation failed with status: %d", status)
	}
	if resp.VehicleID <= 0 {
		return 0, fmt.Errorf("invalid vehicle ID in response")
	}
	return resp.VehicleID, nil
}

// Publisher delivers one location update.
type Publisher interface {
	Publish(ctx context.Context, fix models.LocationFix) error
}

type httpPublisher struct {
	api *apiClient
}

func (p httpPublisher) Publish(ctx context.Context, fix models.LocationFix) error {
	status, err := p.api.post(ctx, "/vehicle/location-updates", fix, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("location update rejected with status: %d", status)
	}
	return nil
}

type mqttPublisher struct {
	client mqtt.Client
}

func topicFor(vehicleID int64) string {
	return fmt.Sprintf("fleet/%d/location", vehicleID)
}

func (p mqttPublisher) Publish(_ context.Context, fix models.LocationFix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	token := p.client.Publish(topicFor(fix.VehicleID), 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topicFor(fix.VehicleID))
	}
	return token.Error()
}

// --- Routing & movement ---

type vehicleRoute struct {
	Points    []models.Location
	SegIndex  int
	SegOffset float64 // km along current segment
}

type vehicleState struct {
	VehicleID int64
	Position  models.Location
	SpeedKmh  float64
	Route     *vehicleRoute
	rng       *rand.Rand
}

func lerp(a, b models.Location, t float64) models.Location {
	return models.Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
}

// randomDestination picks a point in the service area at least minKm away.
func randomDestination(rng *rand.Rand, from models.Location, minKm float64) models.Location {
	var end models.Location
	for i := 0; i < 10; i++ {
		end = models.Location{
			Lat: fakefleet.MinLat + rng.Float64()*(fakefleet.MaxLat-fakefleet.MinLat),
			Lon: fakefleet.MinLon + rng.Float64()*(fakefleet.MaxLon-fakefleet.MinLon),
		}
		if geo.Haversine(from, end) >= minKm {
			break
		}
	}
	return end
}

// planNewRoute drives towards a new destination through one intermediate
// waypoint.
func planNewRoute(s *vehicleState) {
	end := randomDestination(s.rng, s.Position, 5)
	mid := lerp(s.Position, end, 0.5)
	mid.Lat += (s.rng.Float64()*2 - 1) * 0.02
	mid.Lon += (s.rng.Float64()*2 - 1) * 0.02
	s.Route = &vehicleRoute{Points: []models.Location{s.Position, mid, end}}
}

func stepAlongRoute(s *vehicleState, tickSec float64) {
	if s.Route == nil || len(s.Route.Points) < 2 {
		planNewRoute(s)
	}
	remKm := s.SpeedKmh * (tickSec / 3600.0)
	for remKm > 0 && s.Route.SegIndex < len(s.Route.Points)-1 {
		a := s.Route.Points[s.Route.SegIndex]
		b := s.Route.Points[s.Route.SegIndex+1]
		segLen := geo.Haversine(a, b)
		leftOnSeg := segLen - s.Route.SegOffset
		if remKm >= leftOnSeg {
			s.Position = b
			s.Route.SegIndex++
			s.Route.SegOffset = 0
			remKm -= leftOnSeg
			continue
		}
		t := (s.Route.SegOffset + remKm) / segLen
		s.Position = lerp(a, b, min(max(t, 0), 1))
		s.Route.SegOffset += remKm
		remKm = 0
	}
	if s.Route.SegIndex >= len(s.Route.Points)-1 {
		planNewRoute(s)
	}
}

func (s *vehicleState) fix(now time.Time) models.LocationFix {
	return models.LocationFix{
		VehicleID:    s.VehicleID,
		Latitude:     s.Position.Lat,
		Longitude:    s.Position.Lon,
		Speed:        s.SpeedKmh,
		LastSeenTime: now.UTC(),
	}
}

func simulateVehicle(ctx context.Context, pub Publisher, s *vehicleState, interval time.Duration) {
	if s.Route == nil {
		planNewRoute(s)
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			// small speed noise
			s.SpeedKmh = min(max(s.SpeedKmh+(s.rng.Float64()*2-1)*1.5, 15), 90)
			stepAlongRoute(s, interval.Seconds())

			if err := pub.Publish(ctx, s.fix(now)); err != nil {
				log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to send location update")
				continue
			}
			log.WithFields(log.Fields{
				"vehicle_id": s.VehicleID,
				"lat":        geo.Round2(s.Position.Lat),
				"lon":        geo.Round2(s.Position.Lon),
			}).Debug("Sent location update")
		}
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
	}
	return def
}

func newPublisher(api *apiClient) (Publisher, func(), error) {
	broker := os.Getenv("SIM_MQTT_BROKER")
	if broker == "" {
		return httpPublisher{api: api}, func() {}, nil
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("vts-simulator-%d", time.Now().UnixNano())).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, nil, err
	}
	return mqttPublisher{client: client}, func() { client.Disconnect(250) }, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	api := newAPIClient(apiURL, os.Getenv("SIM_AUTH_TOKEN"))
	if email := os.Getenv("SIM_EMAIL"); email != "" {
		if err := api.login(ctx, email, os.Getenv("SIM_PASSWORD")); err != nil {
			log.WithError(err).Fatal("Simulator login failed")
		}
	}

	fleetSize := envInt("FLEET_SIZE", 10)
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 2)) * time.Second

	pub, closePub, err := newPublisher(api)
	if err != nil {
		log.WithError(err).Fatal("Failed to create publisher")
	}
	defer closePub()

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"interval":   interval,
		"publisher":  fmt.Sprintf("%T", pub),
	}).Info("Starting fleet simulation")

	gen := fakefleet.New(time.Now().UnixNano())
	states := make([]*vehicleState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		vehicle := gen.Vehicle()
		id, err := api.createVehicle(ctx, vehicle)
		if err != nil {
			log.WithError(err).WithField("license_number", vehicle.LicenseNumber).Error("Failed to create vehicle")
			continue
		}
		log.WithFields(log.Fields{"vehicle_id": id, "license_number": vehicle.LicenseNumber}).Info("Created vehicle")
		states = append(states, &vehicleState{
			VehicleID: id,
			Position:  gen.Location(),
			SpeedKmh:  30 + rand.Float64()*30,
			rng:       rand.New(rand.NewSource(id)),
		})
	}

	log.WithField("created_vehicles", len(states)).Info("Vehicle creation completed")
	if len(states) == 0 {
		log.Error("No vehicles created. Ensure SIM_AUTH_TOKEN or SIM_EMAIL is valid and API is reachable. Exiting.")
		return
	}

	var wg sync.WaitGroup
	for _, s := range states {
		wg.Add(1)
		go func(s *vehicleState) {
			defer wg.Done()
			simulateVehicle(ctx, pub, s, interval)
		}(s)
	}

	log.Info("Location simulation started")
	wg.Wait()
	log.Info("Simulation stopped")
}
