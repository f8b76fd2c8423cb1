package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"assetd/internal/db"
	"assetd/internal/models"
	"assetd/internal/policy"
	"assetd/internal/store"
)

// testStore opens an isolated in-memory database with the full schema.
func testStore(t *testing.T) (*store.Store, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// A :memory: database exists per connection; keep the pool at one.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, gdb))
	require.NoError(t, db.Seed(ctx, gdb))

	return store.New(gdb), gdb
}

func createUser(t *testing.T, st *store.Store, username string, superuser bool) models.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), username, username, "hunter22", superuser)
	require.NoError(t, err)
	return user
}

func createManager(t *testing.T, st *store.Store, username string) models.User {
	t.Helper()
	user := createUser(t, st, username, false)
	require.NoError(t, st.AddUserToGroup(context.Background(), username, policy.ManagersGroup))
	loaded, err := st.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	return loaded
}

func TestCreateAndAuthenticateUser(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	created := createUser(t, st, "uma", false)
	require.NotEmpty(t, created.ID)

	user, err := st.Authenticate(ctx, "uma", "hunter22")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = st.Authenticate(ctx, "uma", "wrong")
	require.ErrorIs(t, err, store.ErrInvalidCredentials)

	_, err = st.Authenticate(ctx, "nobody", "hunter22")
	require.ErrorIs(t, err, store.ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	st, _ := testStore(t)

	_, err := st.CreateUser(context.Background(), "", "No Name", "", false)
	var verr store.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr, "username")
	require.Contains(t, verr, "password")
}

func TestSessionLifecycle(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	user := createManager(t, st, "mike")

	session, err := st.CreateSession(ctx, user, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	resolved, err := st.SessionUser(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
	require.True(t, resolved.InGroup(policy.ManagersGroup))

	require.NoError(t, st.RevokeSession(ctx, session.Token))
	_, err = st.SessionUser(ctx, session.Token)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Revoking an unknown token is a no-op.
	require.NoError(t, st.RevokeSession(ctx, "no-such-token"))
}

func TestExpiredSessionIsRejected(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	user := createUser(t, st, "uma", false)
	session, err := st.CreateSession(ctx, user, -time.Minute)
	require.NoError(t, err)

	_, err = st.SessionUser(ctx, session.Token)
	require.ErrorIs(t, err, store.ErrNotFound)
}
