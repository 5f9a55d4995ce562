package mongo

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainerProfileCollectionName = "trainer_profiles"

// mongoTrainerProfileRepository implements repository.TrainerProfileRepository
type mongoTrainerProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainerProfileRepository creates a new TrainerProfile repository.
func NewMongoTrainerProfileRepository(db *mongo.Database) repository.TrainerProfileRepository {
	return &mongoTrainerProfileRepository{
		collection: db.Collection(trainerProfileCollectionName),
	}
}

// Ensure upserts an empty profile for userID and returns the stored document.
// Calling it again for the same user returns the existing profile unchanged.
func (r *mongoTrainerProfileRepository) Ensure(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required for a trainer profile")
	}
	now := time.Now().UTC()
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"userId":     userID,
			"experience": "",
			"contactNo":  "",
			"createdAt":  now,
			"updatedAt":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var profile domain.TrainerProfile
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByUserID retrieves the profile owned by userID.
func (r *mongoTrainerProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	var profile domain.TrainerProfile
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile); err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// Update changes the editable profile fields.
func (r *mongoTrainerProfileRepository) Update(ctx context.Context, profile *domain.TrainerProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"experience": profile.Experience,
			"contactNo":  profile.ContactNo,
			"updatedAt":  profile.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": profile.UserID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserID removes the profile of userID. Missing profiles are not an error.
func (r *mongoTrainerProfileRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

// EnsureTrainerProfileIndexes enforces one profile per user.
func EnsureTrainerProfileIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
