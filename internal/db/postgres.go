package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		phone         TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		status        BOOLEAN NOT NULL DEFAULT TRUE,
		role          TEXT NOT NULL DEFAULT 'user',
		last_login    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id                BIGSERIAL PRIMARY KEY,
		license_number    TEXT NOT NULL UNIQUE,
		owner_name        TEXT NOT NULL,
		owner_phone       TEXT NOT NULL DEFAULT '',
		owner_email       TEXT NOT NULL DEFAULT '',
		vehicle_type      TEXT NOT NULL,
		manufacturer      TEXT NOT NULL DEFAULT '',
		model             TEXT NOT NULL DEFAULT '',
		year              INTEGER NOT NULL DEFAULT 0,
		color             TEXT NOT NULL DEFAULT '',
		registration_date TEXT NOT NULL DEFAULT '',
		insurance_status  TEXT NOT NULL DEFAULT '',
		fuel_type         TEXT NOT NULL DEFAULT '',
		mileage           INTEGER NOT NULL DEFAULT 0,
		engine_number     TEXT NOT NULL DEFAULT '',
		chassis_number    TEXT NOT NULL DEFAULT '',
		status            TEXT NOT NULL DEFAULT 'active',
		last_service_date TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS location_updates (
		id             BIGSERIAL PRIMARY KEY,
		vehicle_id     BIGINT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		latitude       DOUBLE PRECISION NOT NULL,
		longitude      DOUBLE PRECISION NOT NULL,
		speed          DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_seen_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_location_updates_vehicle_time
		ON location_updates (vehicle_id, last_seen_time)`,
}

// ConnectPostgres opens a connection pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.HealthCheckPeriod = time.Minute
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// NewPostgresStore wires the PostgreSQL collections around pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Vehicles:  &PostgresVehicleCollection{Pool: pool},
		Locations: &PostgresLocationCollection{Pool: pool},
		Users:     &PostgresUserCollection{Pool: pool},
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}
}

const pgUniqueViolation = "23505"

func pgErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgError.Detail)
	}
	return err
}
