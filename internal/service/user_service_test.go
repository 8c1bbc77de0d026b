package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/testutil"
)

func TestUserService_Profile(t *testing.T) {
	gormDB := testutil.NewDB(t)
	user := testutil.SeedUser(t, gormDB, "user", model.RoleCustomer)
	svc := NewUserService(repository.NewUserRepository(gormDB), nil)
	ctx := context.Background()
	identity := auth.IdentityOf(user)

	profile, err := svc.GetProfile(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", profile.Email)

	updated, err := svc.UpdateProfile(ctx, identity, ProfileInput{
		FirstName: "Regular",
		LastName:  "User",
		Address:   "123 Main St, City, State 12345",
		Phone:     "555-0123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Regular", updated.FirstName)
	assert.Equal(t, "x", updated.PasswordHash, "password hash must survive profile edits")

	reloaded, err := svc.GetProfile(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "555-0123", reloaded.Phone)

	_, err = svc.GetProfile(ctx, auth.Identity{UserID: 404})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
