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

const planFeedbackCollectionName = "plan_feedback"

type mongoPlanFeedbackRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanFeedbackRepository creates a new PlanFeedback repository.
func NewMongoPlanFeedbackRepository(db *mongo.Database) repository.PlanFeedbackRepository {
	return &mongoPlanFeedbackRepository{
		collection: db.Collection(planFeedbackCollectionName),
	}
}

func (r *mongoPlanFeedbackRepository) Create(ctx context.Context, feedback *domain.PlanFeedback) (primitive.ObjectID, error) {
	if feedback.PlanID == primitive.NilObjectID || feedback.AuthorID == primitive.NilObjectID || feedback.Comment == "" {
		return primitive.NilObjectID, errors.New("feedback requires planId, authorId, and comment")
	}
	feedback.ID = primitive.NewObjectID()
	feedback.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, feedback); err != nil {
		return primitive.NilObjectID, err
	}
	return feedback.ID, nil
}

func (r *mongoPlanFeedbackRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanFeedback, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	feedback := []domain.PlanFeedback{}
	if err = cursor.All(ctx, &feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *mongoPlanFeedbackRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsurePlanFeedbackIndexes creates the lookup index for feedback.
func EnsurePlanFeedbackIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index(),
	})
	return err
}
