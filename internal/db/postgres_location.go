package db

import (
	"context"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLocationCollection implements LocationCollection for PostgreSQL.
type PostgresLocationCollection struct {
	Pool *pgxpool.Pool
}

// InsertFix stores one location update.
func (c *PostgresLocationCollection) InsertFix(ctx context.Context, fix models.LocationFix) error {
	_, err := c.Pool.Exec(ctx,
		`INSERT INTO location_updates (vehicle_id, latitude, longitude, speed, last_seen_time) VALUES ($1, $2, $3, $4, $5)`,
		fix.VehicleID, fix.Latitude, fix.Longitude, fix.Speed, fix.LastSeenTime,
	)
	return err
}

// FetchTrack returns the fixes of a vehicle recorded at or after since,
// oldest first. Insertion order breaks timestamp ties.
func (c *PostgresLocationCollection) FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error) {
	const base = `SELECT vehicle_id, latitude, longitude, speed, last_seen_time FROM location_updates WHERE vehicle_id = $1`
	var (
		rows pgx.Rows
		err  error
	)
	if since != nil {
		rows, err = c.Pool.Query(ctx, base+` AND last_seen_time >= $2 ORDER BY last_seen_time, id`, vehicleID, *since)
	} else {
		rows, err = c.Pool.Query(ctx, base+` ORDER BY last_seen_time, id`, vehicleID)
	}
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanFix)
}

// LatestFixes returns the most recent fix of each listed vehicle that has one.
func (c *PostgresLocationCollection) LatestFixes(ctx context.Context, vehicleIDs ...int64) ([]models.LocationFix, error) {
	rows, err := c.Pool.Query(ctx, `
		SELECT DISTINCT ON (vehicle_id) vehicle_id, latitude, longitude, speed, last_seen_time
		FROM location_updates
		WHERE vehicle_id = ANY($1)
		ORDER BY vehicle_id, last_seen_time DESC, id DESC`, vehicleIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanFix)
}

// DeleteFixes removes every fix of a vehicle.
func (c *PostgresLocationCollection) DeleteFixes(ctx context.Context, vehicleID int64) error {
	_, err := c.Pool.Exec(ctx, `DELETE FROM location_updates WHERE vehicle_id = $1`, vehicleID)
	return err
}

func scanFix(row pgx.CollectableRow) (models.LocationFix, error) {
	var f models.LocationFix
	err := row.Scan(&f.VehicleID, &f.Latitude, &f.Longitude, &f.Speed, &f.LastSeenTime)
	return f, err
}
