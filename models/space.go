package models

import "time"

type SpaceStatus string

const (
	SpaceStatusActive    SpaceStatus = "ACTIVE"
	SpaceStatusInactive  SpaceStatus = "INACTIVE"
	SpaceStatusSuspended SpaceStatus = "SUSPENDED"
)

// Space is an advertising space listed by an owner. Only the fields the payout core touches are modelled.
type Space struct {
	ID               string      `bson:"id" json:"id"`
	OwnerID          string      `bson:"ownerId" json:"ownerId"`
	Title            string      `bson:"title" json:"title"`
	Status           SpaceStatus `bson:"status" json:"status"`
	SuspendedAt      *time.Time  `bson:"suspendedAt,omitempty" json:"suspendedAt,omitempty"`
	SuspensionReason string      `bson:"suspensionReason,omitempty" json:"suspensionReason,omitempty"`
	UpdatedAt        time.Time   `bson:"updatedAt" json:"updatedAt"`
}
