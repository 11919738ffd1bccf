// Package fakefleet generates plausible Nairobi-area vehicles and GPS fixes
// for seeding and simulation.
package fakefleet

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
)

// Bounding box of generated coordinates.
const (
	MinLat = -1.3
	MaxLat = -0.3
	MinLon = 36.0
	MaxLon = 37.0
)

var (
	manufacturers = []string{"Toyota", "Honda", "Ford", "Nissan", "BMW"}
	vehicleModels = []string{"Corolla", "Civic", "Focus", "Altima", "X5"}
	colors        = []string{"Red", "Blue", "White", "Black", "Grey"}
	vehicleTypes  = []string{"Sedan", "SUV", "Truck", "Motorcycle"}
	fuelTypes     = []string{"Petrol", "Diesel", "Electric"}
	firstNames    = []string{"Wanjiru", "Otieno", "Achieng", "Kamau", "Njeri", "Mwangi", "Chebet", "Kiprono", "Amina", "Omondi"}
	lastNames     = []string{"Mutua", "Odhiambo", "Wambui", "Kariuki", "Onyango", "Kiptoo", "Nyambura", "Hassan", "Ochieng", "Waweru"}
	emailDomains  = []string{"example.com", "mail.test", "fleet.test"}
)

// Generator produces random records. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// New returns a generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// Plate returns a license number like "KBA 123X".
func (g *Generator) Plate() string {
	return fmt.Sprintf("KBA %d%c", g.between(100, 999), 'A'+rune(g.rng.Intn(26)))
}

// Location returns a point inside the bounding box.
func (g *Generator) Location() models.Location {
	return models.Location{
		Lat: MinLat + g.rng.Float64()*(MaxLat-MinLat),
		Lon: MinLon + g.rng.Float64()*(MaxLon-MinLon),
	}
}

// PastTime returns a moment in the last 90 days: 30% within a week, 40%
// between 8 and 30 days ago and the rest up to 90 days ago.
func (g *Generator) PastTime() time.Time {
	var days int
	switch r := g.rng.Float64(); {
	case r < 0.3:
		days = g.between(1, 7)
	case r < 0.7:
		days = g.between(8, 30)
	default:
		days = g.between(31, 90)
	}
	offset := time.Duration(g.rng.Int63n(int64(12 * time.Hour)))
	return g.now().UTC().AddDate(0, 0, -days).Add(-offset)
}

// Vehicle returns an unsaved vehicle.
func (g *Generator) Vehicle() models.Vehicle {
	first, last := g.pick(firstNames), g.pick(lastNames)
	return models.Vehicle{
		LicenseNumber:    g.Plate(),
		OwnerName:        first + " " + last,
		OwnerPhone:       fmt.Sprintf("07%08d", g.rng.Intn(100000000)),
		OwnerEmail:       strings.ToLower(first+"."+last) + "@" + g.pick(emailDomains),
		VehicleType:      g.pick(vehicleTypes),
		Manufacturer:     g.pick(manufacturers),
		Model:            g.pick(vehicleModels),
		Year:             g.between(2000, 2024),
		Color:            g.pick(colors),
		RegistrationDate: g.PastTime().Format(time.DateOnly),
		InsuranceStatus:  g.pick([]string{"Active", "Expired"}),
		FuelType:         g.pick(fuelTypes),
		Mileage:          g.between(10000, 200000),
		EngineNumber:     fmt.Sprintf("ENG%d", g.between(190, 202400)),
		ChassisNumber:    fmt.Sprintf("CHAS%d", g.between(9000, 20000024)),
		Status:           "active",
		LastServiceDate:  g.now().UTC().AddDate(0, 0, -g.between(1, 730)).Format(time.DateOnly),
		CreatedAt:        g.now().UTC(),
	}
}

// Fixes returns between 5 and 20 fixes for a vehicle, in generation order.
func (g *Generator) Fixes(vehicleID int64) []models.LocationFix {
	n := g.between(5, 20)
	fixes := make([]models.LocationFix, 0, n)
	for i := 0; i < n; i++ {
		loc := g.Location()
		fixes = append(fixes, models.LocationFix{
			VehicleID:    vehicleID,
			Latitude:     loc.Lat,
			Longitude:    loc.Lon,
			Speed:        float64(g.between(0, 120)),
			LastSeenTime: g.PastTime(),
		})
	}
	return fixes
}
