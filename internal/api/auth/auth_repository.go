package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/memento-app/memento-api/internal/api"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for user identity persistence.
type AuthRepo interface {
	// CreateUser inserts a new user. Returns ErrEmailTaken or
	// ErrUsernameTaken when the corresponding unique constraint collides.
	CreateUser(ctx context.Context, email, username, hashedPassword string) (*User, error)

	// GetUserByEmail returns api.ErrNotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID returns api.ErrNotFound when the id does not resolve.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	db     api.Querier
}

func NewPostgresAuthRepo(db api.Querier, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
	}
}

const userColumns = "id, email, username, password_hash, created_at, updated_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, email, username, hashedPassword string) (*User, error) {
	query := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, email, username, hashedPassword))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Map the unique violation back to the colliding field.
			switch pgErr.ConstraintName {
			case "users_email_key":
				return nil, ErrEmailTaken
			case "users_username_key":
				return nil, ErrUsernameTaken
			}
			return nil, fmt.Errorf("%w: user already exists", api.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.DebugContext(ctx, "User created", slog.String("user_id", user.ID.String()))
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = $1"
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email not found: %w", api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user by id: %w", err)
	}
	return user, nil
}
