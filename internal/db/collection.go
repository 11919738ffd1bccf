package db

import (
	"context"
	"errors"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context, cursor int64, limit int) ([]models.Vehicle, error)
	CountVehicles(ctx context.Context) (int64, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
	FindVehiclesByLicense(ctx context.Context, licenseNumbers ...string) ([]models.Vehicle, error)
	SearchVehicles(ctx context.Context, query string, limit int) ([]models.VehicleMatch, error)
	UpdateVehicle(ctx context.Context, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id int64) error
}

// LocationCollection defines the interface for location update operations.
type LocationCollection interface {
	InsertFix(ctx context.Context, fix models.LocationFix) error
	FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error)
	LatestFixes(ctx context.Context, vehicleIDs ...int64) ([]models.LocationFix, error)
	DeleteFixes(ctx context.Context, vehicleID int64) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUserStatus(ctx context.Context, id int64, status bool) error
	UpdateLastLogin(ctx context.Context, id int64) error
}
