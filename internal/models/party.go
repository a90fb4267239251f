package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the business role of a registered party.
type Role string

const (
	RoleWholesaler Role = "wholesaler"
	RoleShopOwner  Role = "shop_owner"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleWholesaler, RoleShopOwner, RoleAdmin:
		return true
	}
	return false
}

// Party represents a registered account: a wholesaler extending credit,
// a shop owner receiving it, or an admin.
type Party struct {
	// ID is the unique identifier for the party (UUID format).
	ID string

	// Email is the login and notification address (unique).
	Email string

	DisplayName  string
	Role         Role
	PasswordHash string

	// CreditLimit caps a shop owner's total exposure. Zero means no limit has been set.
	CreditLimit decimal.Decimal

	CreatedAt int64
	UpdatedAt int64
}

// NewParty creates a party with a fresh ID and timestamps.
func NewParty(email, displayName, passwordHash string, role Role) *Party {
	now := time.Now().Unix()
	return &Party{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
