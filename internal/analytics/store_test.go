package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockTrackStore is a mock implementation of TrackStore
type MockTrackStore struct {
	mock.Mock
}

func (m *MockTrackStore) FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error) {
	args := m.Called(ctx, vehicleID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LocationFix), args.Error(1)
}

// MockVehicleRegistry is a mock implementation of VehicleRegistry
type MockVehicleRegistry struct {
	mock.Mock
}

func (m *MockVehicleRegistry) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

// memTrackStore filters and orders fixes the way the storage backends do.
type memTrackStore struct {
	mu    sync.Mutex
	fixes map[int64][]models.LocationFix
}

func newMemTrackStore() *memTrackStore {
	return &memTrackStore{fixes: make(map[int64][]models.LocationFix)}
}

func (s *memTrackStore) add(vehicleID int64, fixes ...models.LocationFix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fixes {
		f.VehicleID = vehicleID
		s.fixes[vehicleID] = append(s.fixes[vehicleID], f)
	}
}

func (s *memTrackStore) FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	track := []models.LocationFix{}
	for _, f := range s.fixes[vehicleID] {
		if since != nil && f.LastSeenTime.Before(*since) {
			continue
		}
		track = append(track, f)
	}
	sort.SliceStable(track, func(i, j int) bool {
		return track[i].LastSeenTime.Before(track[j].LastSeenTime)
	})
	return track, nil
}

type trackStoreFunc func(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error)

func (f trackStoreFunc) FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error) {
	return f(ctx, vehicleID, since)
}

func vehicle(id int64, plate string) models.Vehicle {
	return models.Vehicle{
		ID:            id,
		LicenseNumber: plate,
		OwnerName:     "Owner " + plate,
		Manufacturer:  "Toyota",
		VehicleType:   "Sedan",
	}
}
