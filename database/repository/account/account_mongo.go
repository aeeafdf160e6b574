package accountRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adspace/database"
	"adspace/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoAccountRepo implements AccountRepository using MongoDB.
type MongoAccountRepo struct {
	coll *mongo.Collection
}

func NewMongoAccountRepo() AccountRepository {
	repo := &MongoAccountRepo{coll: database.DB().Collection("connected_accounts")}
	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("failed to create connected account indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoAccountRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stripeAccountId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoAccountRepo) findOne(ctx context.Context, filter bson.M) (*models.ConnectedAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var a models.ConnectedAccount
	err := r.coll.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching connected account: %w", err)
	}
	return &a, nil
}

func (r *MongoAccountRepo) GetAccountByOwnerID(ctx context.Context, ownerID string) (*models.ConnectedAccount, error) {
	return r.findOne(ctx, bson.M{"ownerId": ownerID})
}

func (r *MongoAccountRepo) GetAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.ConnectedAccount, error) {
	return r.findOne(ctx, bson.M{"stripeAccountId": stripeAccountID})
}

func (r *MongoAccountRepo) ListLinkedAccounts(ctx context.Context) ([]models.ConnectedAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"stripeAccountId": bson.M{"$exists": true, "$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("error listing connected accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []models.ConnectedAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("error decoding connected accounts: %w", err)
	}
	return accounts, nil
}

func healthGuardFilter(id string, g models.AccountHealthGuard) bson.M {
	filter := bson.M{"id": id, "status": g.Status}
	if g.DisconnectedAt == nil {
		filter["disconnectedAt"] = nil
	} else {
		filter["disconnectedAt"] = *g.DisconnectedAt
	}
	return filter
}

func healthSet(u models.AccountHealthUpdate) bson.M {
	return bson.M{
		"status":               u.Status,
		"onboardingComplete":   u.OnboardingComplete,
		"disconnectedAt":       u.DisconnectedAt,
		"disconnectNotifiedAt": u.DisconnectNotifiedAt,
		"spacesSuspendedAt":    u.SpacesSuspendedAt,
		"lastHealthCheckAt":    u.CheckedAt,
		"updatedAt":            u.CheckedAt,
	}
}

// CompareAndSetHealth writes the transition only if status and disconnectedAt are unchanged since the caller read them.
func (r *MongoAccountRepo) CompareAndSetHealth(ctx context.Context, id string, guard models.AccountHealthGuard, update models.AccountHealthUpdate) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, healthGuardFilter(id, guard), bson.M{"$set": healthSet(update)})
	if err != nil {
		return false, fmt.Errorf("error updating account %s health: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoAccountRepo) setOnce(ctx context.Context, id, field string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, field: nil},
		bson.M{"$set": bson.M{field: at, "updatedAt": at}})
	if err != nil {
		return false, fmt.Errorf("error setting %s on account %s: %w", field, id, err)
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoAccountRepo) MarkDisconnectNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.setOnce(ctx, id, "disconnectNotifiedAt", at)
}

func (r *MongoAccountRepo) MarkSpacesSuspended(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.setOnce(ctx, id, "spacesSuspendedAt", at)
}
