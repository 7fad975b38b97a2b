package auth

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memento-app/memento-api/internal/api"
)

func newMockAuthRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresAuthRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresAuthRepo(mockPool, slog.Default())
}

func userRow(id uuid.UUID, email, username, hash string, ts time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "email", "username", "password_hash", "created_at", "updated_at"}).
		AddRow(id, email, username, hash, ts, ts)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockAuthRepo(t)
		id := uuid.New()
		now := time.Now()

		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (email, username, password_hash)")).
			WithArgs("test@example.com", "testuser", "hash").
			WillReturnRows(userRow(id, "test@example.com", "testuser", "hash", now))

		user, err := repo.CreateUser(ctx, "test@example.com", "testuser", "hash")

		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "testuser", user.Username)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("EmailUniqueViolation", func(t *testing.T) {
		mockPool, repo := newMockAuthRepo(t)

		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("dupe@example.com", "testuser", "hash").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		user, err := repo.CreateUser(ctx, "dupe@example.com", "testuser", "hash")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrEmailTaken)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UsernameUniqueViolation", func(t *testing.T) {
		mockPool, repo := newMockAuthRepo(t)

		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs("new@example.com", "takenname", "hash").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		user, err := repo.CreateUser(ctx, "new@example.com", "takenname", "hash")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrUsernameTaken)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetUserByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mockPool, repo := newMockAuthRepo(t)
		id := uuid.New()
		now := time.Now()

		mockPool.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("test@example.com").
			WillReturnRows(userRow(id, "test@example.com", "testuser", "hash", now))

		user, err := repo.GetUserByEmail(ctx, "test@example.com")

		require.NoError(t, err)
		assert.Equal(t, "hash", user.Password)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockAuthRepo(t)

		mockPool.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		user, err := repo.GetUserByEmail(ctx, "nobody@example.com")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockAuthRepo(t)
		id := uuid.New()

		mockPool.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		user, err := repo.GetUserByID(ctx, id)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
