package models

import "time"

// Vehicle represents a registered fleet vehicle.
type Vehicle struct {
	ID               int64     `bson:"_id" json:"id"`
	LicenseNumber    string    `bson:"license_number" json:"license_number"`
	OwnerName        string    `bson:"owner_name" json:"owner_name"`
	OwnerPhone       string    `bson:"owner_phone" json:"owner_phone"`
	OwnerEmail       string    `bson:"owner_email" json:"owner_email"`
	VehicleType      string    `bson:"vehicle_type" json:"vehicle_type"` // "Sedan", "SUV", "Truck", "Motorcycle"
	Manufacturer     string    `bson:"manufacturer" json:"manufacturer"`
	Model            string    `bson:"model" json:"model"`
	Year             int       `bson:"year" json:"year"`
	Color            string    `bson:"color" json:"color"`
	RegistrationDate string    `bson:"registration_date" json:"registration_date"` // YYYY-MM-DD
	InsuranceStatus  string    `bson:"insurance_status" json:"insurance_status"`   // "Active" or "Expired"
	FuelType         string    `bson:"fuel_type" json:"fuel_type"`
	Mileage          int       `bson:"mileage" json:"mileage"`
	EngineNumber     string    `bson:"engine_number" json:"engine_number"`
	ChassisNumber    string    `bson:"chassis_number" json:"chassis_number"`
	Status           string    `bson:"status" json:"status"` // "active" or "inactive"
	LastServiceDate  string    `bson:"last_service_date" json:"last_service_date"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}

// Label is the human-readable name used in reports.
func (v Vehicle) Label() string {
	return v.LicenseNumber
}

// VehiclePage is one page of the id-descending vehicle listing.
type VehiclePage struct {
	Data         []Vehicle `json:"data"`
	NextCursor   *int64    `json:"nextCursor"`
	TotalRecords int64     `json:"totalRecords"`
}

// VehicleMatch is a search hit.
type VehicleMatch struct {
	ID            int64  `json:"id"`
	LicenseNumber string `json:"license_number"`
}
