package notificationRepo

import (
	"context"
	"fmt"
	"time"

	"adspace/database"
	"adspace/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	MarkSent(ctx context.Context, id string, at time.Time) error
}

type MongoNotificationRepo struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepo() NotificationRepository {
	repo := &MongoNotificationRepo{coll: database.DB().Collection("notifications")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		zap.L().Warn("failed to create notification indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoNotificationRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"sent": true, "updatedAt": at}})
	if err != nil {
		return fmt.Errorf("error marking notification %s sent: %w", id, err)
	}
	return nil
}
