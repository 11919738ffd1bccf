package models

import "testing"

func TestLocation_Valid(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{"nairobi", Location{Lat: -1.2921, Lon: 36.8219}, true},
		{"north pole", Location{Lat: 90, Lon: 0}, true},
		{"antimeridian", Location{Lat: 0, Lon: -180}, true},
		{"latitude too high", Location{Lat: 90.0001, Lon: 0}, false},
		{"latitude too low", Location{Lat: -91, Lon: 0}, false},
		{"longitude too high", Location{Lat: 0, Lon: 180.5}, false},
		{"longitude too low", Location{Lat: 0, Lon: -181}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.Valid(); got != tt.want {
				t.Errorf("Valid(%+v) = %v, want %v", tt.loc, got, tt.want)
			}
		})
	}
}

func TestLocationFix_Location(t *testing.T) {
	fix := LocationFix{VehicleID: 3, Latitude: -1.01, Longitude: 36.51}
	loc := fix.Location()
	if loc.Lat != -1.01 || loc.Lon != 36.51 {
		t.Errorf("unexpected location %+v", loc)
	}
}
