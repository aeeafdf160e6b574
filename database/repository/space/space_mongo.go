package spaceRepo

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

// SpaceRepository defines the space data access used by payouts and account health.
type SpaceRepository interface {
	GetSpaceByID(ctx context.Context, id string) (*models.Space, error)
	// SuspendActiveSpaces suspends every ACTIVE space of the owner and returns how many changed.
	SuspendActiveSpaces(ctx context.Context, ownerID, reason string, at time.Time) (int64, error)
}

type MongoSpaceRepo struct {
	coll *mongo.Collection
}

func NewMongoSpaceRepo() SpaceRepository {
	repo := &MongoSpaceRepo{coll: database.DB().Collection("spaces")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		zap.L().Warn("failed to create space indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoSpaceRepo) GetSpaceByID(ctx context.Context, id string) (*models.Space, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.Space
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching space with id %s: %w", id, err)
	}
	return &s, nil
}

func (r *MongoSpaceRepo) SuspendActiveSpaces(ctx context.Context, ownerID, reason string, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"ownerId": ownerID, "status": models.SpaceStatusActive},
		bson.M{"$set": bson.M{
			"status":           models.SpaceStatusSuspended,
			"suspendedAt":      at,
			"suspensionReason": reason,
			"updatedAt":        at,
		}})
	if err != nil {
		return 0, fmt.Errorf("error suspending spaces of owner %s: %w", ownerID, err)
	}
	return res.ModifiedCount, nil
}
