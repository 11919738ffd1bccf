package db

import (
	"context"
	"fmt"
	"time"

	"github.com/bishop254/vts-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLocationCollection implements LocationCollection for MongoDB.
type MongoLocationCollection struct {
	Collection *mongo.Collection
}

// InsertFix stores one location update.
func (c *MongoLocationCollection) InsertFix(ctx context.Context, fix models.LocationFix) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, fix)
	return err
}

// FetchTrack returns the fixes of a vehicle recorded at or after since,
// oldest first. Insertion order breaks timestamp ties.
func (c *MongoLocationCollection) FetchTrack(ctx context.Context, vehicleID int64, since *time.Time) ([]models.LocationFix, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{"vehicle_id": vehicleID}
	if since != nil {
		filter["last_seen_time"] = bson.M{"$gte": *since}
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_seen_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	track := []models.LocationFix{}
	if err := cursor.All(ctx, &track); err != nil {
		return nil, err
	}
	return track, nil
}

// LatestFixes returns the most recent fix of each listed vehicle that has one.
func (c *MongoLocationCollection) LatestFixes(ctx context.Context, vehicleIDs ...int64) ([]models.LocationFix, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"vehicle_id": bson.M{"$in": vehicleIDs}}}},
		{{Key: "$sort", Value: bson.D{{Key: "last_seen_time", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{"_id": "$vehicle_id", "fix": bson.M{"$first": "$$ROOT"}}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$fix"}}},
		{{Key: "$sort", Value: bson.D{{Key: "vehicle_id", Value: 1}}}},
	}
	cursor, err := c.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	fixes := []models.LocationFix{}
	if err := cursor.All(ctx, &fixes); err != nil {
		return nil, err
	}
	return fixes, nil
}

// DeleteFixes removes every fix of a vehicle.
func (c *MongoLocationCollection) DeleteFixes(ctx context.Context, vehicleID int64) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{"vehicle_id": vehicleID})
	return err
}
