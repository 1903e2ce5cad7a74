package services

import (
	"context"
	"strings"
	"testing"

	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser_HashesPasswordAndDefaultsFlags(t *testing.T) {
	db := setupDB(t)
	n := &recordingNotifier{}
	s := NewUserService(db, n)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.True(t, u.Active)
	assert.False(t, u.Verified)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
	assert.Equal(t, []string{"user.created"}, n.Actions())

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestCreateUser_RequiresUsername(t *testing.T) {
	s := NewUserService(setupDB(t), nil)
	_, err := s.CreateUser(context.Background(), "  ", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateUser_DuplicateUsernameIsValidationError(t *testing.T) {
	db := setupDB(t)
	s := NewUserService(db, nil)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "bob", "", "")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "bob", "other@example.com", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, countRows(t, db, "users"))
}

func TestCreateUser_PasswordTooLong(t *testing.T) {
	s := NewUserService(setupDB(t), nil)
	_, err := s.CreateUser(context.Background(), "carol", "", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUser_PartialMerge(t *testing.T) {
	s := NewUserService(setupDB(t), nil)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "dave", "dave@example.com", "pw")
	require.NoError(t, err)

	verified := true
	updated, err := s.UpdateUser(ctx, u.ID, models.UserPatch{Verified: &verified})
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.Equal(t, "dave", updated.Username)
	assert.Equal(t, "dave@example.com", updated.Email)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)

	newPw := "changed"
	updated, err = s.UpdateUser(ctx, u.ID, models.UserPatch{Password: &newPw})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("changed")))
}

func TestUpdateUser_RenameToTakenUsername(t *testing.T) {
	s := NewUserService(setupDB(t), nil)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "erin", "", "")
	require.NoError(t, err)
	frank, err := s.CreateUser(ctx, "frank", "", "")
	require.NoError(t, err)

	taken := "erin"
	_, err = s.UpdateUser(ctx, frank.ID, models.UserPatch{Username: &taken})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := NewUserService(setupDB(t), nil)
	_, err := s.UpdateUser(context.Background(), "missing", models.UserPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser_RowVanishedBeforeWrite(t *testing.T) {
	db := setupDB(t)
	n := &recordingNotifier{}
	s := NewUserService(db, n)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice", "", "pw")
	require.NoError(t, err)

	// The row is still readable but the UPDATE touches nothing.
	_, err = db.ExecContext(ctx, "CREATE TRIGGER skip_user_updates BEFORE UPDATE ON users BEGIN SELECT RAISE(IGNORE); END")
	require.NoError(t, err)

	name := "alicia"
	_, err = s.UpdateUser(ctx, u.ID, models.UserPatch{Username: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"user.created"}, n.Actions())
}

func TestToggleAndDeleteUser(t *testing.T) {
	s := NewUserService(setupDB(t), nil)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "gina", "", "")
	require.NoError(t, err)

	toggled, err := s.ToggleUserActive(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), ErrNotFound)

	all, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
