package models

import "time"

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// Valid reports whether the coordinates fall inside the decimal degree ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// LocationFix is one recorded GPS observation for a vehicle.
type LocationFix struct {
	VehicleID    int64     `bson:"vehicle_id" json:"vehicle_id"`
	Latitude     float64   `bson:"latitude" json:"latitude"`
	Longitude    float64   `bson:"longitude" json:"longitude"`
	Speed        float64   `bson:"speed" json:"speed"`
	LastSeenTime time.Time `bson:"last_seen_time" json:"last_seen_time"`
}

// Location returns the coordinates of the fix.
func (f LocationFix) Location() Location {
	return Location{Lat: f.Latitude, Lon: f.Longitude}
}
