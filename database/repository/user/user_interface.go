package userRepo

import (
	"context"

	"adspace/models"

	"go.mongodb.org/mongo-driver/bson"
)

// UserRepository defines the user lookups the notification worker needs.
type UserRepository interface {
	// GetUserByID retrieves a user by its unique ID, or nil when it does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDWithProjection retrieves a user by its unique ID with a projection.
	GetByIDWithProjection(ctx context.Context, id string, projection bson.M) (*models.User, error)
}
