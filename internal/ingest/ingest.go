// Package ingest validates and persists location updates arriving over HTTP
// or MQTT.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bishop254/vts-backend/internal/db"
	"github.com/bishop254/vts-backend/internal/models"
)

var (
	// ErrInvalidFix marks a location update that failed validation.
	ErrInvalidFix = errors.New("invalid location update")
	// ErrUnknownVehicle marks a location update for an unregistered vehicle.
	ErrUnknownVehicle = errors.New("unknown vehicle")
)

// FixWriter persists fixes.
type FixWriter interface {
	InsertFix(ctx context.Context, fix models.LocationFix) error
}

// VehicleLookup resolves vehicle ids.
type VehicleLookup interface {
	FindVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error)
}

// Ingestor is the single write path for location fixes.
type Ingestor struct {
	fixes    FixWriter
	vehicles VehicleLookup
	now      func() time.Time
}

func NewIngestor(fixes FixWriter, vehicles VehicleLookup) *Ingestor {
	return &Ingestor{fixes: fixes, vehicles: vehicles, now: time.Now}
}

// Validate checks a fix without touching storage.
func Validate(fix models.LocationFix) error {
	switch {
	case fix.VehicleID <= 0:
		return fmt.Errorf("%w: vehicle_id is required", ErrInvalidFix)
	case !fix.Location().Valid():
		return fmt.Errorf("%w: coordinates (%v, %v) out of range", ErrInvalidFix, fix.Latitude, fix.Longitude)
	case math.IsNaN(fix.Speed) || fix.Speed < 0:
		return fmt.Errorf("%w: speed %v must be non-negative", ErrInvalidFix, fix.Speed)
	}
	return nil
}

// Ingest validates fix, checks the vehicle exists and stores it. A fix
// without a timestamp is stamped with the current time.
func (i *Ingestor) Ingest(ctx context.Context, fix models.LocationFix) (models.LocationFix, error) {
	if err := Validate(fix); err != nil {
		return fix, err
	}
	if fix.LastSeenTime.IsZero() {
		fix.LastSeenTime = i.now()
	}
	fix.LastSeenTime = fix.LastSeenTime.UTC()

	if _, err := i.vehicles.FindVehicleByID(ctx, fix.VehicleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fix, fmt.Errorf("%w: %d", ErrUnknownVehicle, fix.VehicleID)
		}
		return fix, fmt.Errorf("look up vehicle %d: %w", fix.VehicleID, err)
	}

	if err := i.fixes.InsertFix(ctx, fix); err != nil {
		return fix, fmt.Errorf("store fix for vehicle %d: %w", fix.VehicleID, err)
	}
	return fix, nil
}
