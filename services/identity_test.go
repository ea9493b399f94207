package services

import (
	"context"
	"coursehub/apperror"
	"coursehub/middleware"
	"coursehub/models"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupThenLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.identity.Signup(ctx, models.RoleAdmin, SignupInput{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		Password:  "analytical",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "analytical", user.Password)

	session, err := h.identity.Login(ctx, models.RoleAdmin, LoginInput{Email: "ada@example.com", Password: "analytical"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotNil(t, session.User.LastLogin)

	id, err := middleware.ParseJWT(session.Token, []byte("admin-secret"), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = middleware.ParseJWT(session.Token, []byte("user-secret"), models.RoleUser)
	assert.Error(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.account(t, models.RoleAdmin, "admin@example.com")

	_, wrongPassword := h.identity.Login(ctx, models.RoleAdmin, LoginInput{Email: "admin@example.com", Password: "nope-nope"})
	_, unknownEmail := h.identity.Login(ctx, models.RoleAdmin, LoginInput{Email: "ghost@example.com", Password: "secret123"})
	_, wrongRole := h.identity.Login(ctx, models.RoleUser, LoginInput{Email: "admin@example.com", Password: "secret123"})

	for _, err := range []error{wrongPassword, unknownEmail, wrongRole} {
		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperror.KindAuthentication, appErr.Kind)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	}
}

func TestSignupReportsEveryViolationWithoutStoring(t *testing.T) {
	h := newHarness(t)

	_, err := h.identity.Signup(context.Background(), models.RoleAdmin, SignupInput{
		FirstName: "Al",
		LastName:  "",
		Email:     "not-an-email",
		Password:  "123",
	})

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Details, 4)
	assert.Contains(t, appErr.Details, "firstName")
	assert.Contains(t, appErr.Details, "lastName")
	assert.Contains(t, appErr.Details, "email")
	assert.Contains(t, appErr.Details, "password")

	_, err = h.users.FindByEmail(context.Background(), "not-an-email", models.RoleAdmin)
	assert.Error(t, err)
}

func TestSignupConflict(t *testing.T) {
	h := newHarness(t)
	h.account(t, models.RoleAdmin, "dup@example.com")

	_, err := h.identity.Signup(context.Background(), models.RoleAdmin, SignupInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "DUP@example.com",
		Password:  "secret123",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "Admin already exists")
}

func TestSameEmailMayHoldBothRoles(t *testing.T) {
	h := newHarness(t)
	admin := h.account(t, models.RoleAdmin, "both@example.com")
	learner := h.account(t, models.RoleUser, "both@example.com")

	assert.NotEqual(t, admin.ID, learner.ID)
}
