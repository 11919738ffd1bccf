package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bishop254/vts-backend/internal/analytics"
	"github.com/bishop254/vts-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockUserCollection is a mock implementation of db.UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 101
	}
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUserStatus(ctx context.Context, id int64, status bool) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of db.VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	if args.Error(0) == nil {
		vehicle.ID = 55
	}
	return args.Error(0)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, cursor int64, limit int) ([]models.Vehicle, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) CountVehicles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVehicleCollection) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehiclesByLicense(ctx context.Context, licenseNumbers ...string) ([]models.Vehicle, error) {
	args := m.Called(ctx, licenseNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) SearchVehicles(ctx context.Context, query string, limit int) ([]models.VehicleMatch, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VehicleMatch), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, vehicle models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLocationCollection is a mock implementation of db.LocationCollection
type MockLocationCollection struct {
	mock.Mock
}

func (m *MockLocationCollection) InsertFix(ctx context.Context, fix models.LocationFix) error {
	args := m.Called(ctx, fix)
	return args.Error(0)
}

func (m *MockLocationCollection) FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error) {
	args := m.Called(ctx, vehicleID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LocationFix), args.Error(1)
}

func (m *MockLocationCollection) LatestFixes(ctx context.Context, vehicleIDs ...int64) ([]models.LocationFix, error) {
	args := m.Called(ctx, vehicleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LocationFix), args.Error(1)
}

func (m *MockLocationCollection) DeleteFixes(ctx context.Context, vehicleID int64) error {
	args := m.Called(ctx, vehicleID)
	return args.Error(0)
}

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, fix models.LocationFix) (models.LocationFix, error) {
	args := m.Called(ctx, fix)
	return args.Get(0).(models.LocationFix), args.Error(1)
}

type MockRouteFinder struct {
	mock.Mock
}

func (m *MockRouteFinder) Route(ctx context.Context, origin, destination models.Location) (json.RawMessage, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) TotalDistance(ctx context.Context, window analytics.TimeRange) ([]models.TotalDistanceEntry, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TotalDistanceEntry), args.Error(1)
}

func (m *MockReporter) TopVehicles(ctx context.Context) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}
