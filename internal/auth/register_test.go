package auth

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/db/sqliteschema"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func setupRegister(t *testing.T) (*db.Client, RegisterService) {
	t.Helper()
	conn, err := sqliteschema.OpenMemory(context.Background(), "register")
	require.NoError(t, err)
	client := db.NewFromConn(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logger.New(logger.Options{Output: io.Discard}))
	svc, err := NewRegisterService(RegisterServiceParams{DB: client, Outbox: emitter, PasswordConfig: testPasswordCfg})
	require.NoError(t, err)
	return client, svc
}

func TestRegisterCreatesUserAndEvent(t *testing.T) {
	client, svc := setupRegister(t)
	first := "Grace"

	user, err := svc.Register(context.Background(), RegisterRequest{Email: "Grace@Example.com", Password: "hopper-123", FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", user.Email)
	require.NotNil(t, user.FirstName)
	assert.Equal(t, "Grace", *user.FirstName)

	var events []models.OutboxEvent
	require.NoError(t, client.DB().Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventUserRegistered, events[0].EventType)
	assert.Equal(t, user.ID, events[0].AggregateID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	client, svc := setupRegister(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "dup@example.com", Password: "password-1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "DUP@example.com", Password: "password-2"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, emailTakenMessage, typed.Message())

	var users int64
	require.NoError(t, client.DB().Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)

	var events int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestRegisterValidatesInput(t *testing.T) {
	_, svc := setupRegister(t)
	_, err := svc.Register(context.Background(), RegisterRequest{Email: " ", Password: "password-1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "a@b.co", Password: "short"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
