package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/db/sqliteschema"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func setupUsers(t *testing.T) (*gorm.DB, *Repository, Service) {
	t.Helper()
	conn, err := sqliteschema.OpenMemory(context.Background(), "users")
	require.NoError(t, err)
	repo := NewRepository(conn)
	svc, err := NewService(repo, testPasswordCfg)
	require.NoError(t, err)
	return conn, repo, svc
}

func createUser(t *testing.T, repo *Repository, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordCfg)
	require.NoError(t, err)
	first := "Ada"
	user, err := repo.Create(context.Background(), CreateUserDTO{Email: email, PasswordHash: hash, FirstName: &first})
	require.NoError(t, err)
	return user
}

func TestRepositoryNormalizesEmail(t *testing.T) {
	_, repo, _ := setupUsers(t)
	created := createUser(t, repo, "  Ada@Example.COM ", "password123")
	assert.Equal(t, "ada@example.com", created.Email)

	found, err := repo.FindByEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestGetProfile(t *testing.T) {
	_, repo, svc := setupUsers(t)
	user := createUser(t, repo, "ada@example.com", "password123")

	profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	require.NotNil(t, profile.FirstName)
	assert.Equal(t, "Ada", *profile.FirstName)

	_, err = svc.GetProfile(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateProfileNames(t *testing.T) {
	conn, repo, svc := setupUsers(t)
	user := createUser(t, repo, "ada@example.com", "password123")

	empty := ""
	last := "Lovelace"
	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{FirstName: &empty, LastName: &last})
	require.NoError(t, err)
	assert.Nil(t, profile.FirstName)
	require.NotNil(t, profile.LastName)
	assert.Equal(t, "Lovelace", *profile.LastName)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", user.ID).Error)
	assert.Nil(t, stored.FirstName)
	assert.Equal(t, "Lovelace", *stored.LastName)
}

func TestUpdateProfilePassword(t *testing.T) {
	conn, repo, svc := setupUsers(t)
	user := createUser(t, repo, "ada@example.com", "password123")
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{NewPassword: "new-password"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{CurrentPassword: "wrong-password", NewPassword: "new-password"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{CurrentPassword: "password123", NewPassword: "new-password"})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", user.ID).Error)
	ok, err := security.VerifyPassword("new-password", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfileNoFieldsIsNoop(t *testing.T) {
	_, repo, svc := setupUsers(t)
	user := createUser(t, repo, "ada@example.com", "password123")

	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)
}

func TestUpdateProfileMissingUser(t *testing.T) {
	_, _, svc := setupUsers(t)
	last := "X"
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), UpdateProfileRequest{LastName: &last})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
