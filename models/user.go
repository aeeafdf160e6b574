package models

import "time"

// User is the slice of a platform user the notification worker needs.
type User struct {
	ID        string    `bson:"id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Username  string    `bson:"username" json:"username"`
	FCMToken  string    `bson:"fcmToken,omitempty" json:"-"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
