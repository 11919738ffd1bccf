// Package analytics turns per-vehicle location tracks into distance reports.
package analytics

import (
	"github.com/bishop254/vts-backend/internal/geo"
	"github.com/bishop254/vts-backend/internal/models"
)

// TotalDistance sums the great-circle distance between consecutive fixes of a
// track. The track must already be ordered by time; it is walked as given.
func TotalDistance(track []models.LocationFix) float64 {
	var total float64
	for i := 1; i < len(track); i++ {
		total += geo.Haversine(track[i-1].Location(), track[i].Location())
	}
	return total
}
