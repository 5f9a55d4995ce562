// internal/repository/mongo/plan_repo.go
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

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository. Meal and workout
// plans share the collection and are told apart by "kind".
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new Plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan. A second open personal plan for the same
// requestee and kind is rejected by the partial unique index.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if !plan.Kind.Valid() || plan.AssignedTrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan requires a valid kind and assigned trainer")
	}
	if plan.PlanType == domain.PlanPersonal && plan.RequesteeID == nil {
		return primitive.NilObjectID, errors.New("personal plan requires a requestee")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	plan.Open = plan.IsOutstanding()

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return nil, notFound(err)
	}
	return &plan, nil
}

// Update writes every mutable field of plan, guarded on the status the caller
// read. Ownership and kind never change.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.Plan, expected domain.PlanStatus) error {
	plan.UpdatedAt = time.Now().UTC()
	plan.Open = plan.IsOutstanding()

	update := bson.M{
		"$set": bson.M{
			"status":            plan.Status,
			"open":              plan.Open,
			"assignedTrainerId": plan.AssignedTrainerID,
			"name":              plan.Name,
			"fitnessGoal":       plan.FitnessGoal,
			"instructions":      plan.Instructions,
			"calorieIntake":     plan.CalorieIntake,
			"protein":           plan.Protein,
			"carbs":             plan.Carbs,
			"allergies":         plan.Allergies,
			"intensityLevel":    plan.IntensityLevel,
			"durationDays":      plan.DurationDays,
			"updatedAt":         plan.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID, "status": expected}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": plan.ID})
		if err != nil {
			return err
		}
		if n > 0 {
			return repository.ErrStale
		}
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a plan document. Items and feedback are removed by the caller.
func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountOpenForRequestee counts outstanding personal plans of one kind.
func (r *mongoPlanRepository) CountOpenForRequestee(ctx context.Context, requesteeID primitive.ObjectID, kind domain.PlanKind) (int64, error) {
	filter := bson.M{
		"requesteeId": requesteeID,
		"kind":        kind,
		"open":        true,
	}
	return r.collection.CountDocuments(ctx, filter)
}

// ListByRequestee returns the member's personal plans of one kind, newest first.
func (r *mongoPlanRepository) ListByRequestee(ctx context.Context, requesteeID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	filter := bson.M{
		"requesteeId": requesteeID,
		"kind":        kind,
	}
	return r.find(ctx, filter)
}

// ListByTrainer returns personal plans assigned to a trainer in the given statuses.
func (r *mongoPlanRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, kind domain.PlanKind, statuses []domain.PlanStatus) ([]domain.Plan, error) {
	filter := bson.M{
		"assignedTrainerId": trainerID,
		"planType":          domain.PlanPersonal,
	}
	if kind != "" {
		filter["kind"] = kind
	}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return r.find(ctx, filter)
}

func (r *mongoPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.Plan, error) {
	// Sort by creation date, newest first
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.Plan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsurePlanIndexes creates indexes for the plans collection, including the
// partial unique index that allows at most one open plan per member and kind.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "requesteeId", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().
				SetName("one_open_plan_per_kind").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"open": true}),
		},
		{
			Keys:    bson.D{{Key: "assignedTrainerId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "requesteeId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
