package analytics

import (
	"testing"
	"time"

	"github.com/bishop254/vts-backend/internal/geo"
	"github.com/bishop254/vts-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func fix(lat, lon float64, at time.Time) models.LocationFix {
	return models.LocationFix{Latitude: lat, Longitude: lon, LastSeenTime: at}
}

func TestTotalDistance_ShortTracks(t *testing.T) {
	assert.Equal(t, 0.0, TotalDistance(nil))
	assert.Equal(t, 0.0, TotalDistance([]models.LocationFix{}))
	assert.Equal(t, 0.0, TotalDistance([]models.LocationFix{fix(-1.0, 36.5, t0)}))
}

func TestTotalDistance_RepeatedPoint(t *testing.T) {
	track := []models.LocationFix{
		fix(-1.0, 36.5, t0),
		fix(-1.0, 36.5, t0.Add(time.Minute)),
		fix(-1.0, 36.5, t0.Add(2*time.Minute)),
		fix(-1.0, 36.5, t0.Add(3*time.Minute)),
	}
	assert.Equal(t, 0.0, TotalDistance(track))
}

func TestTotalDistance_ThreeFixScenario(t *testing.T) {
	a := fix(-1.0, 36.5, t0)
	b := fix(-1.01, 36.51, t0.Add(time.Hour))
	c := fix(-1.02, 36.52, t0.Add(2*time.Hour))

	step := geo.Haversine(a.Location(), b.Location())
	total := TotalDistance([]models.LocationFix{a, b, c})

	assert.InDelta(t, 2*step, total, 1e-3)
	assert.InDelta(t, step+geo.Haversine(b.Location(), c.Location()), total, 1e-12)
	assert.Equal(t, 3.14, geo.Round2(total))
}

func TestTotalDistance_AdditiveAtSharedPoint(t *testing.T) {
	a := fix(-1.2, 36.7, t0)
	b := fix(-0.9, 36.2, t0.Add(time.Hour))
	c := fix(-1.25, 36.95, t0.Add(2*time.Hour))

	whole := TotalDistance([]models.LocationFix{a, b, c})
	parts := TotalDistance([]models.LocationFix{a, b}) + TotalDistance([]models.LocationFix{b, c})
	assert.InDelta(t, parts, whole, 1e-12)
}

func TestTotalDistance_WalksGivenOrder(t *testing.T) {
	a := fix(-1.0, 36.0, t0)
	b := fix(-1.0, 37.0, t0.Add(time.Hour))
	c := fix(-1.0, 36.5, t0.Add(2*time.Hour))

	// out of time order on purpose: a -> c -> b is shorter than a -> b -> c
	given := TotalDistance([]models.LocationFix{a, c, b})
	want := geo.Haversine(a.Location(), c.Location()) + geo.Haversine(c.Location(), b.Location())
	assert.InDelta(t, want, given, 1e-12)
	assert.Less(t, given, TotalDistance([]models.LocationFix{a, b, c}))
}
