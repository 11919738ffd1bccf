package models

// DistanceResult is the aggregated distance of a single vehicle.
type DistanceResult struct {
	VehicleID    int64
	Vehicle      string
	Owner        string
	Manufacturer string
	Type         string
	Distance     float64 // full precision, kilometers
}

// TotalDistanceEntry is one row of the windowed distance report.
type TotalDistanceEntry struct {
	Vehicle       string  `json:"vehicle"`
	TotalDistance float64 `json:"total_distance"`
}

// LeaderboardEntry is one row of the top vehicles ranking.
type LeaderboardEntry struct {
	Vehicle       string  `json:"vehicle"`
	Owner         string  `json:"owner"`
	Manufacturer  string  `json:"manufacturer"`
	Type          string  `json:"type"`
	TotalDistance float64 `json:"total_distance"`
}
