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

const facilityCollectionName = "facilities"

// mongoFacilityRepository implements repository.FacilityRepository
type mongoFacilityRepository struct {
	collection *mongo.Collection
}

// NewMongoFacilityRepository creates a new Facility repository backed by MongoDB.
func NewMongoFacilityRepository(db *mongo.Database) repository.FacilityRepository {
	return &mongoFacilityRepository{
		collection: db.Collection(facilityCollectionName),
	}
}

// Create inserts a new facility.
func (r *mongoFacilityRepository) Create(ctx context.Context, facility *domain.Facility) (primitive.ObjectID, error) {
	if facility.Name == "" || facility.Code == "" || facility.RequiredTier == "" {
		return primitive.NilObjectID, errors.New("facility requires name, code, and required tier")
	}
	facility.ID = primitive.NewObjectID()
	facility.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, facility); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return facility.ID, nil
}

// GetByID retrieves a facility by its ID.
func (r *mongoFacilityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Facility, error) {
	var facility domain.Facility
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&facility); err != nil {
		return nil, notFound(err)
	}
	return &facility, nil
}

// GetByCode retrieves a facility by its scannable code.
func (r *mongoFacilityRepository) GetByCode(ctx context.Context, code string) (*domain.Facility, error) {
	var facility domain.Facility
	if err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&facility); err != nil {
		return nil, notFound(err)
	}
	return &facility, nil
}

// List returns all facilities ordered by name.
func (r *mongoFacilityRepository) List(ctx context.Context) ([]domain.Facility, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	facilities := []domain.Facility{}
	if err = cursor.All(ctx, &facilities); err != nil {
		return nil, err
	}
	return facilities, nil
}

// EnsureFacilityIndexes makes facility codes unique.
func EnsureFacilityIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
