package accounts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/redditgrowth/reddit-manager/migrations"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("reddit_manager"),
		postgres.WithUsername("reddit_manager"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connString)
	require.NoError(t, err)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("pgx"))
	require.NoError(t, goose.UpContext(ctx, db, "."))

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, first_name, last_name, password_hash, role)
		VALUES ($1, $2, 'Test', 'User', $3, 'user')`,
		id, email, []byte("x"))
	require.NoError(t, err)
	return id
}

func testCreateParams(userID uuid.UUID, username string, karma int) CreateAccountParams {
	return CreateAccountParams{
		UserID:         userID,
		RedditUsername: username,
		AccessToken:    "enc:sealed-access",
		RefreshToken:   "enc:sealed-refresh",
		TokenExpires:   time.Now().UTC().Add(time.Hour),
		KarmaCount:     karma,
	}
}

func TestPostgresRepository_CreateAndFind(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresAccountsRepository(pool)
	ctx := context.Background()
	userID := createTestUser(t, pool, "create@example.com")

	created, err := repo.CreateAccount(ctx, testCreateParams(userID, "spez", 100))
	require.NoError(t, err)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "spez", created.RedditUsername)
	assert.Equal(t, "enc:sealed-access", created.AccessToken)

	found, err := repo.FindByUserAndUsername(ctx, userID, "spez")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByUserAndUsername(ctx, userID, "someone_else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_DuplicateConstraint(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresAccountsRepository(pool)
	ctx := context.Background()
	userID := createTestUser(t, pool, "dup@example.com")
	otherID := createTestUser(t, pool, "other@example.com")

	_, err := repo.CreateAccount(ctx, testCreateParams(userID, "spez", 100))
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, testCreateParams(userID, "spez", 100))
	var dup ErrDuplicateAccount
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "spez", dup.RedditUsername)

	// the constraint is per user, not global
	_, err = repo.CreateAccount(ctx, testCreateParams(otherID, "spez", 100))
	assert.NoError(t, err)
}

func TestPostgresRepository_FindByUserNewestFirst(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresAccountsRepository(pool)
	ctx := context.Background()
	userID := createTestUser(t, pool, "order@example.com")

	first, err := repo.CreateAccount(ctx, testCreateParams(userID, "older", 10))
	require.NoError(t, err)
	// created_at has microsecond resolution; space the rows out
	_, err = pool.Exec(ctx, `UPDATE reddit_account SET created_at = created_at - interval '1 minute' WHERE id = $1`, first.ID)
	require.NoError(t, err)
	_, err = repo.CreateAccount(ctx, testCreateParams(userID, "newer", 20))
	require.NoError(t, err)

	listing, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listing, 2)
	assert.Equal(t, "newer", listing[0].RedditUsername)
	assert.Equal(t, "older", listing[1].RedditUsername)
}

func TestPostgresRepository_UpdatePassword(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresAccountsRepository(pool)
	ctx := context.Background()
	userID := createTestUser(t, pool, "pwd@example.com")

	created, err := repo.CreateAccount(ctx, testCreateParams(userID, "spez", 100))
	require.NoError(t, err)
	assert.Empty(t, created.Password)

	require.NoError(t, repo.UpdatePassword(ctx, created.ID, "enc:sealed-password"))

	found, err := repo.FindByIDAndUser(ctx, created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "enc:sealed-password", found.Password)

	err = repo.UpdatePassword(ctx, uuid.New(), "enc:whatever")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_Delete(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresAccountsRepository(pool)
	ctx := context.Background()
	userID := createTestUser(t, pool, "del@example.com")

	created, err := repo.CreateAccount(ctx, testCreateParams(userID, "spez", 100))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAccount(ctx, created.ID))
	_, err = repo.FindByIDAndUser(ctx, created.ID, userID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.DeleteAccount(ctx, created.ID), ErrNotFound)
}

func TestPostgresRepository_ListUsersWithAccounts(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresAccountsRepository(pool)
	ctx := context.Background()

	aliceID := createTestUser(t, pool, "alice@example.com")
	bobID := createTestUser(t, pool, "bob@example.com")
	createTestUser(t, pool, "empty@example.com")

	_, err := repo.CreateAccount(ctx, testCreateParams(aliceID, "low_karma", 10))
	require.NoError(t, err)
	_, err = repo.CreateAccount(ctx, testCreateParams(aliceID, "high_karma", 5000))
	require.NoError(t, err)
	_, err = repo.CreateAccount(ctx, testCreateParams(bobID, "bob_account", 300))
	require.NoError(t, err)

	overviews, err := repo.ListUsersWithAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, overviews, 2, "users without accounts are excluded")

	assert.Equal(t, "alice@example.com", overviews[0].Email)
	require.Len(t, overviews[0].Accounts, 2)
	assert.Equal(t, "high_karma", overviews[0].Accounts[0].RedditUsername)
	assert.Equal(t, "low_karma", overviews[0].Accounts[1].RedditUsername)

	assert.Equal(t, "bob@example.com", overviews[1].Email)
	require.Len(t, overviews[1].Accounts, 1)
}
