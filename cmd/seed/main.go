package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bishop254/vts-backend/internal/auth"
	"github.com/bishop254/vts-backend/internal/config"
	"github.com/bishop254/vts-backend/internal/db"
	"github.com/bishop254/vts-backend/internal/fakefleet"
	"github.com/bishop254/vts-backend/internal/models"
	log "github.com/sirupsen/logrus"
)

type vehicleWriter interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehiclesByLicense(ctx context.Context, licenseNumbers ...string) ([]models.Vehicle, error)
}

type fixWriter interface {
	InsertFix(ctx context.Context, fix models.LocationFix) error
}

type stats struct {
	Created int
	Reused  int
	Failed  int
	Fixes   int
}

type options struct {
	count         int
	seed          int64
	adminEmail    string
	adminPassword string
	adminName     string
}

func main() {
	var opts options
	flag.IntVar(&opts.count, "count", 1000, "number of vehicles to generate")
	flag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	flag.StringVar(&opts.adminEmail, "admin-email", "", "create an admin account with this email")
	flag.StringVar(&opts.adminPassword, "admin-password", "", "password for -admin-email")
	flag.StringVar(&opts.adminName, "admin-name", "Administrator", "display name for -admin-email")
	flag.Parse()

	if err := run(opts); err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
}

func run(opts options) error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyLogging(); err != nil {
		return fmt.Errorf("log settings: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	if opts.adminEmail != "" {
		authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
		if err != nil {
			return fmt.Errorf("auth service: %w", err)
		}
		if err := ensureAdmin(ctx, store.Users, authService, opts.adminName, opts.adminEmail, opts.adminPassword); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
	}

	log.WithFields(log.Fields{"count": opts.count, "seed": opts.seed}).Info("Generating vehicle records")
	result, err := seedFleet(ctx, store.Vehicles, store.Locations, fakefleet.New(opts.seed), opts.count)
	fields := log.Fields{
		"created": result.Created,
		"reused":  result.Reused,
		"failed":  result.Failed,
		"fixes":   result.Fixes,
	}
	if err != nil {
		log.WithFields(fields).Warn("Seeding interrupted")
		return err
	}
	log.WithFields(fields).Info("Data generation completed")
	return nil
}

// seedFleet inserts count generated vehicles with their fixes. A plate that is
// already registered gets the new fixes attached to the existing vehicle.
// Per-record failures are logged and skipped; only cancellation stops the run.
func seedFleet(ctx context.Context, vehicles vehicleWriter, fixes fixWriter, gen *fakefleet.Generator, count int) (stats, error) {
	var s stats
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		vehicle := gen.Vehicle()
		id, reused, err := insertOrFind(ctx, vehicles, &vehicle)
		if err != nil {
			s.Failed++
			log.WithError(err).WithField("license_number", vehicle.LicenseNumber).Error("Error inserting vehicle")
			continue
		}
		if reused {
			s.Reused++
		} else {
			s.Created++
		}

		for _, fix := range gen.Fixes(id) {
			if err := fixes.InsertFix(ctx, fix); err != nil {
				log.WithError(err).WithField("vehicle_id", id).Error("Error inserting location update")
				continue
			}
			s.Fixes++
		}

		if i%100 == 0 {
			log.Infof("Inserted %d records...", i)
		}
	}
	return s, nil
}

func insertOrFind(ctx context.Context, vehicles vehicleWriter, vehicle *models.Vehicle) (int64, bool, error) {
	err := vehicles.InsertVehicle(ctx, vehicle)
	if err == nil {
		return vehicle.ID, false, nil
	}
	if !errors.Is(err, db.ErrDuplicate) {
		return 0, false, err
	}

	existing, err := vehicles.FindVehiclesByLicense(ctx, vehicle.LicenseNumber)
	if err != nil {
		return 0, false, err
	}
	if len(existing) == 0 {
		return 0, false, fmt.Errorf("plate %s reported duplicate but not found", vehicle.LicenseNumber)
	}
	return existing[0].ID, true, nil
}

type userStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// ensureAdmin creates an active admin account unless the email is taken. The
// email is normalised the way signup and login do it.
func ensureAdmin(ctx context.Context, users userStore, authService *auth.Service, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := authService.ValidateEmail(email); err != nil {
		return err
	}
	if err := authService.ValidatePassword(password); err != nil {
		return err
	}

	if _, err := users.FindUserByEmail(ctx, email); err == nil {
		log.WithField("email", email).Info("Admin already exists")
		return nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Status:       true,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.InsertUser(ctx, admin); err != nil {
		return err
	}
	log.WithFields(log.Fields{"email": email, "user_id": admin.ID}).Info("Created admin")
	return nil
}
