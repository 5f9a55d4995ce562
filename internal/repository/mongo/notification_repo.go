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

const notificationCollectionName = "notifications"

// mongoNotificationRepository implements repository.NotificationRepository
type mongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new Notification repository.
func NewMongoNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &mongoNotificationRepository{
		collection: db.Collection(notificationCollectionName),
	}
}

func prepareNotification(n *domain.Notification, now time.Time) error {
	if n.UserID == primitive.NilObjectID || n.Title == "" {
		return errors.New("notification requires userId and title")
	}
	n.ID = primitive.NewObjectID()
	if n.Category == "" {
		n.Category = domain.CategoryInfo
	}
	n.CreatedAt = now
	return nil
}

// Create inserts a single notification.
func (r *mongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	if err := prepareNotification(n, time.Now().UTC()); err != nil {
		return primitive.NilObjectID, err
	}
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return primitive.NilObjectID, err
	}
	return n.ID, nil
}

// CreateMany inserts a batch of notifications, one per recipient.
func (r *mongoNotificationRepository) CreateMany(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(ns))
	for i := range ns {
		if err := prepareNotification(&ns[i], now); err != nil {
			return err
		}
		docs = append(docs, ns[i])
	}
	// Unordered so one bad document does not block the rest of the fan-out
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

// CreateIfAbsent upserts on (userId, title, message) and reports whether a new
// document was inserted.
func (r *mongoNotificationRepository) CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	if err := prepareNotification(n, time.Now().UTC()); err != nil {
		return false, err
	}
	filter := bson.M{
		"userId":  n.UserID,
		"title":   n.Title,
		"message": n.Message,
	}
	update := bson.M{"$setOnInsert": n}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return result.UpsertedCount > 0, nil
}

// ListByUser returns a user's inbox, newest first.
func (r *mongoNotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, filter repository.NotificationFilter) ([]domain.Notification, error) {
	query := bson.M{"userId": userID}
	if filter.UnreadOnly {
		query["isRead"] = false
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []domain.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread counts unread notifications of a user.
func (r *mongoNotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "isRead": false})
}

// MarkRead flags one notification as read. The owner filter keeps users from
// touching each other's inbox.
func (r *mongoNotificationRepository) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*domain.Notification, error) {
	filter := bson.M{"_id": id, "userId": userID}
	update := bson.M{"$set": bson.M{"isRead": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n domain.Notification
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&n); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

// MarkAllRead flags every unread notification of a user as read.
func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsureNotificationIndexes creates inbox indexes.
func EnsureNotificationIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isRead", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "title", Value: 1}, {Key: "message", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
