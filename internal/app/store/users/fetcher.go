package userstore

import (
	"context"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/dalemusser/churchroll/internal/app/system/normalize"
	"github.com/dalemusser/churchroll/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request,
// so deactivation and territory changes apply without a new sign-in.
type Fetcher struct {
	users store.Users
}

// NewFetcher creates a UserFetcher backed by users.
func NewFetcher(users store.Users) *Fetcher {
	return &Fetcher{users: users}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// inactive, or if any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.users.GetByID(ctx, oid)
	if err != nil || !u.IsActive {
		return nil
	}

	su := &auth.SessionUser{
		ID:         u.ID.Hex(),
		Name:       u.FullName,
		Email:      u.Email,
		Role:       normalize.Role(u.Role),
		DistrictID: u.DistrictID,
		FieldID:    u.FieldID,
	}
	if u.ChurchID != nil {
		su.ChurchID = u.ChurchID.Hex()
	}
	for _, id := range u.AssignedChurchIDs {
		su.AssignedChurchIDs = append(su.AssignedChurchIDs, id.Hex())
	}
	return su
}
