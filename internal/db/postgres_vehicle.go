package db

import (
	"context"
	"strings"

	"github.com/bishop254/vts-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const vehicleColumns = `id, license_number, owner_name, owner_phone, owner_email, vehicle_type,
	manufacturer, model, year, color, registration_date, insurance_status, fuel_type, mileage,
	engine_number, chassis_number, status, last_service_date, created_at`

// PostgresVehicleCollection implements VehicleCollection for PostgreSQL.
type PostgresVehicleCollection struct {
	Pool *pgxpool.Pool
}

// InsertVehicle inserts the vehicle and stores the generated id on it.
func (c *PostgresVehicleCollection) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	const query = `
		INSERT INTO vehicles (license_number, owner_name, owner_phone, owner_email, vehicle_type,
			manufacturer, model, year, color, registration_date, insurance_status, fuel_type, mileage,
			engine_number, chassis_number, status, last_service_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`
	err := c.Pool.QueryRow(ctx, query,
		v.LicenseNumber, v.OwnerName, v.OwnerPhone, v.OwnerEmail, v.VehicleType,
		v.Manufacturer, v.Model, v.Year, v.Color, v.RegistrationDate, v.InsuranceStatus, v.FuelType, v.Mileage,
		v.EngineNumber, v.ChassisNumber, v.Status, v.LastServiceDate,
	).Scan(&v.ID, &v.CreatedAt)
	return pgErr(err)
}

// FindVehicles returns up to limit vehicles with an id below cursor, newest first.
func (c *PostgresVehicleCollection) FindVehicles(ctx context.Context, cursor int64, limit int) ([]models.Vehicle, error) {
	if cursor > 0 {
		return c.query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id < $1 ORDER BY id DESC LIMIT $2`, cursor, limit)
	}
	return c.query(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id DESC LIMIT $1`, limit)
}

// CountVehicles returns the number of registered vehicles.
func (c *PostgresVehicleCollection) CountVehicles(ctx context.Context) (int64, error) {
	var total int64
	err := c.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&total)
	return total, err
}

// ListVehicles returns every vehicle ordered by id.
func (c *PostgresVehicleCollection) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return c.query(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
}

// FindVehicleByID finds a vehicle by its ID.
func (c *PostgresVehicleCollection) FindVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	rows, err := c.Pool.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	v, err := pgx.CollectExactlyOneRow(rows, scanVehicle)
	if err != nil {
		return nil, pgErr(err)
	}
	return &v, nil
}

// FindVehiclesByLicense returns the vehicles whose license number is listed.
func (c *PostgresVehicleCollection) FindVehiclesByLicense(ctx context.Context, licenseNumbers ...string) ([]models.Vehicle, error) {
	return c.query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE license_number = ANY($1) ORDER BY id`, licenseNumbers)
}

// SearchVehicles matches license numbers containing query, ignoring case.
func (c *PostgresVehicleCollection) SearchVehicles(ctx context.Context, query string, limit int) ([]models.VehicleMatch, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := c.Pool.Query(ctx, `SELECT id, license_number FROM vehicles WHERE license_number ILIKE $1 ORDER BY id LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.VehicleMatch, error) {
		var m models.VehicleMatch
		err := row.Scan(&m.ID, &m.LicenseNumber)
		return m, err
	})
}

// UpdateVehicle replaces the attributes of a vehicle by its ID.
func (c *PostgresVehicleCollection) UpdateVehicle(ctx context.Context, v models.Vehicle) error {
	const query = `
		UPDATE vehicles
		SET owner_name=$1, owner_phone=$2, owner_email=$3, vehicle_type=$4,
			manufacturer=$5, model=$6, year=$7, color=$8, registration_date=$9,
			insurance_status=$10, fuel_type=$11, mileage=$12, engine_number=$13,
			chassis_number=$14, status=$15, last_service_date=$16
		WHERE id=$17`
	tag, err := c.Pool.Exec(ctx, query,
		v.OwnerName, v.OwnerPhone, v.OwnerEmail, v.VehicleType,
		v.Manufacturer, v.Model, v.Year, v.Color, v.RegistrationDate,
		v.InsuranceStatus, v.FuelType, v.Mileage, v.EngineNumber,
		v.ChassisNumber, v.Status, v.LastServiceDate, v.ID,
	)
	if err != nil {
		return pgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID. Its fixes go with it.
func (c *PostgresVehicleCollection) DeleteVehicle(ctx context.Context, id int64) error {
	tag, err := c.Pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *PostgresVehicleCollection) query(ctx context.Context, sql string, args ...any) ([]models.Vehicle, error) {
	rows, err := c.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	vehicles, err := pgx.CollectRows(rows, scanVehicle)
	if err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

func scanVehicle(row pgx.CollectableRow) (models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(
		&v.ID, &v.LicenseNumber, &v.OwnerName, &v.OwnerPhone, &v.OwnerEmail, &v.VehicleType,
		&v.Manufacturer, &v.Model, &v.Year, &v.Color, &v.RegistrationDate, &v.InsuranceStatus, &v.FuelType, &v.Mileage,
		&v.EngineNumber, &v.ChassisNumber, &v.Status, &v.LastServiceDate, &v.CreatedAt,
	)
	return v, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
