package mongo

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const accessLogCollectionName = "access_logs"

// mongoAccessLogRepository implements repository.AccessLogRepository.
// It only ever inserts and reads.
type mongoAccessLogRepository struct {
	collection *mongo.Collection
}

// NewMongoAccessLogRepository creates a new AccessLog repository.
func NewMongoAccessLogRepository(db *mongo.Database) repository.AccessLogRepository {
	return &mongoAccessLogRepository{
		collection: db.Collection(accessLogCollectionName),
	}
}

// Append inserts one audit entry. The timestamp must already be set by the caller.
func (r *mongoAccessLogRepository) Append(ctx context.Context, entry *domain.AccessLogEntry) (primitive.ObjectID, error) {
	if entry.UserID == primitive.NilObjectID || entry.FacilityID == primitive.NilObjectID || entry.Timestamp.IsZero() {
		return primitive.NilObjectID, errors.New("access log entry requires userId, facilityId, and timestamp")
	}
	entry.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, err
	}
	return entry.ID, nil
}

// Find returns entries matching filter, newest first.
func (r *mongoAccessLogRepository) Find(ctx context.Context, filter repository.AccessLogFilter) ([]domain.AccessLogEntry, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.FacilityID != nil {
		query["facilityId"] = *filter.FacilityID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.From != nil || filter.To != nil {
		ts := bson.M{}
		if filter.From != nil {
			ts["$gte"] = *filter.From
		}
		if filter.To != nil {
			ts["$lt"] = *filter.To
		}
		query["timestamp"] = ts
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.AccessLogEntry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureAccessLogIndexes creates indexes for the reporting queries.
func EnsureAccessLogIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "facilityId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
