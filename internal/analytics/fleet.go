package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrRetrieval marks a failed read of one vehicle's track.
	ErrRetrieval = errors.New("track retrieval failed")
	// ErrStoreUnavailable marks a failure of shared storage that prevents any report.
	ErrStoreUnavailable = errors.New("storage unavailable")
)

// DefaultConcurrency bounds parallel track reads when none is configured.
const DefaultConcurrency = 8

// TrackStore reads a vehicle's fixes ordered ascending by timestamp. A nil
// since returns the whole history. Unknown vehicles yield an empty track.
type TrackStore interface {
	FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error)
}

// ErrorPolicy decides what a failed per-vehicle read does to the whole run.
type ErrorPolicy int

const (
	// PolicySkip logs the failure and leaves the vehicle out of the results.
	PolicySkip ErrorPolicy = iota
	// PolicyFailFast cancels the remaining reads and fails the run.
	PolicyFailFast
)

// ParseErrorPolicy maps "skip" and "fail" to a policy.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return PolicySkip, nil
	case "fail", "fail-fast", "failfast":
		return PolicyFailFast, nil
	default:
		return PolicySkip, fmt.Errorf("unknown error policy %q", s)
	}
}

func (p ErrorPolicy) String() string {
	if p == PolicyFailFast {
		return "fail"
	}
	return "skip"
}

// Summary describes one aggregation run.
type Summary struct {
	Vehicles int
	Skipped  []int64
}

// Fleet applies the trip aggregator to every vehicle of a fleet.
type Fleet struct {
	store       TrackStore
	concurrency int
	policy      ErrorPolicy
}

// NewFleet creates a fleet aggregator. A concurrency below one falls back to
// DefaultConcurrency.
func NewFleet(store TrackStore, concurrency int, policy ErrorPolicy) *Fleet {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Fleet{store: store, concurrency: concurrency, policy: policy}
}

// Aggregate computes the distance of each vehicle over fixes at or after since.
// Results keep the order of vehicles; vehicles skipped under PolicySkip are
// absent and listed in the summary. A run in which every read fails returns
// ErrStoreUnavailable.
func (f *Fleet) Aggregate(ctx context.Context, vehicles []models.Vehicle, since *time.Time) ([]models.DistanceResult, Summary, error) {
	summary := Summary{Vehicles: len(vehicles)}
	slots := make([]*models.DistanceResult, len(vehicles))
	failed := make([]error, len(vehicles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, v := range vehicles {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := f.aggregateVehicle(gctx, v, since)
			if err != nil {
				if f.policy == PolicyFailFast {
					return err
				}
				failed[i] = err
				return nil
			}
			slots[i] = &result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, summary, err
	}
	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}

	var firstErr error
	results := make([]models.DistanceResult, 0, len(vehicles))
	for i, r := range slots {
		if r != nil {
			results = append(results, *r)
			continue
		}
		summary.Skipped = append(summary.Skipped, vehicles[i].ID)
		if firstErr == nil {
			firstErr = failed[i]
		}
		log.WithError(failed[i]).WithFields(log.Fields{
			"vehicle_id": vehicles[i].ID,
			"vehicle":    vehicles[i].Label(),
		}).Warn("Skipping vehicle in distance report")
	}
	if summary.Vehicles > 0 && len(summary.Skipped) == summary.Vehicles {
		return nil, summary, fmt.Errorf("%w: all %d track reads failed: %w", ErrStoreUnavailable, summary.Vehicles, firstErr)
	}
	return results, summary, nil
}

func (f *Fleet) aggregateVehicle(ctx context.Context, v models.Vehicle, since *time.Time) (models.DistanceResult, error) {
	track, err := f.store.FetchTrack(ctx, v.ID, since)
	if err != nil {
		return models.DistanceResult{}, fmt.Errorf("%w: vehicle %d: %w", ErrRetrieval, v.ID, err)
	}
	return models.DistanceResult{
		VehicleID:    v.ID,
		Vehicle:      v.Label(),
		Owner:        v.OwnerName,
		Manufacturer: v.Manufacturer,
		Type:         v.VehicleType,
		Distance:     TotalDistance(track),
	}, nil
}
