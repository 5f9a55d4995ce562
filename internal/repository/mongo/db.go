package mongo

import (
	"alcyxob/gym-membership/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	err = client.Ping(pingCtx, readpref.Primary())
	if err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// mongoTransactor implements repository.Transactor with client sessions.
// Multi-document transactions need a replica set (a single-node one is enough).
type mongoTransactor struct {
	client *mongo.Client
}

// NewTransactor creates a Transactor bound to client.
func NewTransactor(client *mongo.Client) repository.Transactor {
	return &mongoTransactor{client: client}
}

// WithTransaction runs fn inside a session transaction. The driver retries fn
// on transient transaction errors, so fn must be safe to re-run.
func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes creates indexes for every collection. Call once during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	ensure := []struct {
		name string
		fn   func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{trainerProfileCollectionName, EnsureTrainerProfileIndexes},
		{facilityCollectionName, EnsureFacilityIndexes},
		{accessLogCollectionName, EnsureAccessLogIndexes},
		{planCollectionName, EnsurePlanIndexes},
		{planItemCollectionName, EnsurePlanItemIndexes},
		{planFeedbackCollectionName, EnsurePlanFeedbackIndexes},
		{notificationCollectionName, EnsureNotificationIndexes},
		{reportCollectionName, EnsureReportIndexes},
	}
	for _, e := range ensure {
		if err := e.fn(ctx, db.Collection(e.name)); err != nil {
			log.Printf("WARN: Failed to create indexes for collection %s: %v", e.name, err)
		}
	}
}

// notFound maps the driver's no-documents error to repository.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
