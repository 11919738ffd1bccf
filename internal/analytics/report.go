package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bishop254/vts-backend/internal/geo"
	"github.com/bishop254/vts-backend/internal/models"
	log "github.com/sirupsen/logrus"
)

// LeaderboardSize is the number of vehicles in the top vehicles ranking.
const LeaderboardSize = 10

// TimeRange is the lookback window of the distance report.
type TimeRange string

const (
	Range7Days  TimeRange = "7d"
	Range30Days TimeRange = "30d"
	Range90Days TimeRange = "90d"
)

// ParseTimeRange accepts 7d, 30d and 90d. Anything else selects 90d.
func ParseTimeRange(s string) TimeRange {
	switch TimeRange(s) {
	case Range7Days, Range30Days:
		return TimeRange(s)
	default:
		return Range90Days
	}
}

// Days returns the length of the window.
func (r TimeRange) Days() int {
	switch r {
	case Range7Days:
		return 7
	case Range30Days:
		return 30
	default:
		return 90
	}
}

// Since returns the inclusive start of the window ending at now.
func (r TimeRange) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -r.Days())
}

// VehicleRegistry lists the vehicles of the fleet.
type VehicleRegistry interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
}

// Service builds the dashboard reports.
type Service struct {
	vehicles VehicleRegistry
	fleet    *Fleet
	now      func() time.Time
}

// NewService creates the report service.
func NewService(vehicles VehicleRegistry, fleet *Fleet) *Service {
	return &Service{vehicles: vehicles, fleet: fleet, now: time.Now}
}

// TotalDistance reports the distance of every vehicle over the window.
func (s *Service) TotalDistance(ctx context.Context, window TimeRange) ([]models.TotalDistanceEntry, error) {
	since := window.Since(s.now().UTC())
	results, err := s.aggregate(ctx, &since)
	if err != nil {
		return nil, err
	}
	return BuildWindowedReport(results), nil
}

// TopVehicles ranks vehicles by lifetime distance and keeps the first
// LeaderboardSize entries.
func (s *Service) TopVehicles(ctx context.Context) ([]models.LeaderboardEntry, error) {
	results, err := s.aggregate(ctx, nil)
	if err != nil {
		return nil, err
	}
	return BuildLeaderboard(results, LeaderboardSize), nil
}

func (s *Service) aggregate(ctx context.Context, since *time.Time) ([]models.DistanceResult, error) {
	vehicles, err := s.vehicles.ListVehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list vehicles: %w", ErrStoreUnavailable, err)
	}

	start := time.Now()
	results, summary, err := s.fleet.Aggregate(ctx, vehicles, since)
	if err != nil {
		return nil, err
	}

	fields := log.Fields{
		"vehicles": summary.Vehicles,
		"skipped":  len(summary.Skipped),
		"elapsed":  time.Since(start),
	}
	if since != nil {
		fields["since"] = since.Format(time.RFC3339)
	}
	log.WithFields(fields).Debug("Aggregated fleet distances")
	return results, nil
}

// BuildWindowedReport lists every result in order with its distance rounded
// for display.
func BuildWindowedReport(results []models.DistanceResult) []models.TotalDistanceEntry {
	report := make([]models.TotalDistanceEntry, 0, len(results))
	for _, r := range results {
		report = append(report, models.TotalDistanceEntry{
			Vehicle:       r.Vehicle,
			TotalDistance: geo.Round2(r.Distance),
		})
	}
	return report
}

// BuildLeaderboard sorts results by distance descending, keeping the input
// order for ties, and truncates to n entries.
func BuildLeaderboard(results []models.DistanceResult, n int) []models.LeaderboardEntry {
	ranked := make([]models.DistanceResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance > ranked[j].Distance
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	board := make([]models.LeaderboardEntry, 0, len(ranked))
	for _, r := range ranked {
		board = append(board, models.LeaderboardEntry{
			Vehicle:       r.Vehicle,
			Owner:         r.Owner,
			Manufacturer:  r.Manufacturer,
			Type:          r.Type,
			TotalDistance: geo.Round2(r.Distance),
		})
	}
	return board
}
