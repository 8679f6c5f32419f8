package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tier type to distinguish between subscription levels
type Tier string

// Define constants for subscription tiers
const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// User represents an account in the system. The subscription tier drives the
// free generation quota and gates pro-only features (form analysis).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Tier         Tier               `bson:"tier" json:"tier"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Helper methods (Optional but can be useful)
func (u *User) IsPro() bool {
	return u.Tier == TierPro
}
