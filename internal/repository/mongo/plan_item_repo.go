package mongo

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planItemCollectionName = "plan_items"

// mongoPlanItemRepository implements repository.PlanItemRepository
type mongoPlanItemRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanItemRepository creates a new PlanItem repository.
func NewMongoPlanItemRepository(db *mongo.Database) repository.PlanItemRepository {
	return &mongoPlanItemRepository{
		collection: db.Collection(planItemCollectionName),
	}
}

// GetByPlanID retrieves all items of a plan ordered by sequence.
func (r *mongoPlanItemRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []domain.PlanItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceForPlan swaps the full item set of a plan. Items keep their ID when
// one is given so clients can refer to them across edits.
func (r *mongoPlanItemRepository) ReplaceForPlan(ctx context.Context, planID primitive.ObjectID, items []domain.PlanItem) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID}); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(items))
	for i := range items {
		item := &items[i]
		if item.ID == primitive.NilObjectID {
			item.ID = primitive.NewObjectID()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.PlanID = planID
		item.Sequence = i + 1
		docs = append(docs, item)
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// DeleteByPlanID removes every item of a plan.
func (r *mongoPlanItemRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsurePlanItemIndexes creates the lookup index for plan items.
func EnsurePlanItemIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "sequence", Value: 1}},
		Options: options.Index(),
	})
	return err
}
