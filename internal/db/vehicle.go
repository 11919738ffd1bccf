package db

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
	Counters   *mongo.Collection
}

// InsertVehicle assigns the next vehicle id and inserts the record.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	id, err := nextSequence(ctx, c.Counters, vehiclesCollection)
	if err != nil {
		return err
	}
	vehicle.ID = id
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now().UTC()
	}
	_, err = c.Collection.InsertOne(ctx, vehicle)
	return mongoErr(err)
}

// FindVehicles returns up to limit vehicles with an id below cursor, newest first.
// A cursor of zero starts from the newest vehicle.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, cursor int64, limit int) ([]models.Vehicle, error) {
	filter := bson.M{}
	if cursor > 0 {
		filter["_id"] = bson.M{"$lt": cursor}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))
	return c.find(ctx, filter, opts)
}

// CountVehicles returns the number of registered vehicles.
func (c *MongoVehicleCollection) CountVehicles(ctx context.Context) (int64, error) {
	if c.Collection == nil {
		return 0, fmt.Errorf("mongo collection is nil")
	}
	return c.Collection.CountDocuments(ctx, bson.M{})
}

// ListVehicles returns every vehicle ordered by id.
func (c *MongoVehicleCollection) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return c.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var vehicle models.Vehicle
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle); err != nil {
		return nil, mongoErr(err)
	}
	return &vehicle, nil
}

// FindVehiclesByLicense returns the vehicles whose license number is listed.
func (c *MongoVehicleCollection) FindVehiclesByLicense(ctx context.Context, licenseNumbers ...string) ([]models.Vehicle, error) {
	return c.find(ctx, bson.M{"license_number": bson.M{"$in": licenseNumbers}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// SearchVehicles matches license numbers containing query, ignoring case.
func (c *MongoVehicleCollection) SearchVehicles(ctx context.Context, query string, limit int) ([]models.VehicleMatch, error) {
	filter := bson.M{"license_number": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	opts := options.Find().SetLimit(int64(limit)).SetProjection(bson.M{"license_number": 1})
	vehicles, err := c.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	matches := make([]models.VehicleMatch, 0, len(vehicles))
	for _, v := range vehicles {
		matches = append(matches, models.VehicleMatch{ID: v.ID, LicenseNumber: v.LicenseNumber})
	}
	return matches, nil
}

// UpdateVehicle replaces the attributes of a vehicle by its ID.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	update := bson.M{"$set": bson.M{
		"owner_name":        vehicle.OwnerName,
		"owner_phone":       vehicle.OwnerPhone,
		"owner_email":       vehicle.OwnerEmail,
		"vehicle_type":      vehicle.VehicleType,
		"manufacturer":      vehicle.Manufacturer,
		"model":             vehicle.Model,
		"year":              vehicle.Year,
		"color":             vehicle.Color,
		"registration_date": vehicle.RegistrationDate,
		"insurance_status":  vehicle.InsuranceStatus,
		"fuel_type":         vehicle.FuelType,
		"mileage":           vehicle.Mileage,
		"engine_number":     vehicle.EngineNumber,
		"chassis_number":    vehicle.ChassisNumber,
		"status":            vehicle.Status,
		"last_service_date": vehicle.LastServiceDate,
	}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": vehicle.ID}, update)
	if err != nil {
		return mongoErr(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id int64) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoVehicleCollection) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}
