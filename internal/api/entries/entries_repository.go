package entries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/memento-app/memento-api/app/observability/metrics"
	"github.com/memento-app/memento-api/internal/api"
)

var _ EntriesRepo = (*PostgresEntriesRepo)(nil)

// EntriesRepo defines the contract for journal entry persistence. Every
// lookup and mutation is keyed by (entry id, owner id) jointly so an entry
// belonging to another owner is indistinguishable from a nonexistent one.
type EntriesRepo interface {
	List(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]JournalEntry, int, error)
	GetByID(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error)
	Create(ctx context.Context, userID uuid.UUID, params CreateEntryRequest) (*JournalEntry, error)
	Update(ctx context.Context, userID, entryID uuid.UUID, params UpdateEntryRequest) (*JournalEntry, error)
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	ToggleFavorite(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error)
}

type PostgresEntriesRepo struct {
	logger *slog.Logger
	db     api.Querier
}

func NewPostgresEntriesRepo(db api.Querier, logger *slog.Logger) *PostgresEntriesRepo {
	return &PostgresEntriesRepo{
		logger: logger,
		db:     db,
	}
}

const entryColumns = "id, user_id, title, content, category, phonetic, example, is_favorite, created_at, updated_at"

func scanEntry(row pgx.Row) (*JournalEntry, error) {
	var e JournalEntry
	var category string
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &category,
		&e.Phonetic, &e.Example, &e.IsFavorite, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Category = EntryCategory(category)
	return &e, nil
}

// observeQuery records db query duration and errors for the operation.
func observeQuery(ctx context.Context, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

// buildListPredicate conjoins the mandatory owner filter with the optional
// category, favorite and search predicates. The owner filter is never
// optional: results must not include another owner's entries under any
// filter combination.
func buildListPredicate(userID uuid.UUID, filters ListFilters) (string, []any) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	argID := 2

	if filters.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", argID))
		args = append(args, string(*filters.Category))
		argID++
	}
	if filters.IsFavorite != nil {
		where = append(where, fmt.Sprintf("is_favorite = $%d", argID))
		args = append(args, *filters.IsFavorite)
		argID++
	}
	if filters.Search != nil && *filters.Search != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", argID, argID))
		args = append(args, "%"+*filters.Search+"%")
		argID++
	}

	return strings.Join(where, " AND "), args
}

func (r *PostgresEntriesRepo) List(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]JournalEntry, int, error) {
	start := time.Now()
	predicate, args := buildListPredicate(userID, filters)

	// Total count is computed independently of pagination.
	var total int
	countQuery := "SELECT COUNT(*) FROM journal_entries WHERE " + predicate
	err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		observeQuery(ctx, "count_entries", start, err)
		return nil, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	// Most recent first; id breaks created_at ties so pagination stays stable.
	pageQuery := fmt.Sprintf(
		"SELECT %s FROM journal_entries WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		entryColumns, predicate, len(args)+1, len(args)+2,
	)
	pageArgs := append(args, filters.Limit, filters.Skip)

	rows, err := r.db.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		observeQuery(ctx, "list_entries", start, err)
		return nil, 0, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]JournalEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			observeQuery(ctx, "list_entries", start, err)
			return nil, 0, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		observeQuery(ctx, "list_entries", start, err)
		return nil, 0, fmt.Errorf("failed iterating entry rows: %w", err)
	}

	observeQuery(ctx, "list_entries", start, nil)
	return entries, total, nil
}

func (r *PostgresEntriesRepo) GetByID(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error) {
	start := time.Now()
	query := "SELECT " + entryColumns + " FROM journal_entries WHERE id = $1 AND user_id = $2"

	entry, err := scanEntry(r.db.QueryRow(ctx, query, entryID, userID))
	observeQuery(ctx, "get_entry", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entry not found: %w", api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch entry: %w", err)
	}
	return entry, nil
}

func (r *PostgresEntriesRepo) Create(ctx context.Context, userID uuid.UUID, params CreateEntryRequest) (*JournalEntry, error) {
	start := time.Now()
	query := `
		INSERT INTO journal_entries (user_id, title, content, category, phonetic, example, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + entryColumns

	entry, err := scanEntry(r.db.QueryRow(ctx, query,
		userID, params.Title, params.Content, string(params.Category),
		params.Phonetic, params.Example, params.IsFavorite))
	observeQuery(ctx, "create_entry", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	r.logger.DebugContext(ctx, "Entry created",
		slog.String("entry_id", entry.ID.String()),
		slog.String("user_id", userID.String()),
	)
	return entry, nil
}

func (r *PostgresEntriesRepo) Update(ctx context.Context, userID, entryID uuid.UUID, params UpdateEntryRequest) (*JournalEntry, error) {
	// Nothing supplied: return the current row untouched rather than issuing
	// an UPDATE that would only bump updated_at.
	if params.IsEmpty() {
		return r.GetByID(ctx, userID, entryID)
	}

	start := time.Now()
	var setClauses []string
	var args []any
	argID := 1

	// Only explicitly supplied fields enter the SET clause.
	if params.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *params.Title)
		argID++
	}
	if params.Content != nil {
		setClauses = append(setClauses, fmt.Sprintf("content = $%d", argID))
		args = append(args, *params.Content)
		argID++
	}
	if params.Category != nil {
		setClauses = append(setClauses, fmt.Sprintf("category = $%d", argID))
		args = append(args, string(*params.Category))
		argID++
	}
	if params.Phonetic != nil {
		setClauses = append(setClauses, fmt.Sprintf("phonetic = $%d", argID))
		args = append(args, *params.Phonetic)
		argID++
	}
	if params.Example != nil {
		setClauses = append(setClauses, fmt.Sprintf("example = $%d", argID))
		args = append(args, *params.Example)
		argID++
	}
	if params.IsFavorite != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_favorite = $%d", argID))
		args = append(args, *params.IsFavorite)
		argID++
	}

	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(
		"UPDATE journal_entries SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argID, argID+1, entryColumns,
	)
	args = append(args, entryID, userID)

	entry, err := scanEntry(r.db.QueryRow(ctx, query, args...))
	observeQuery(ctx, "update_entry", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entry not found: %w", api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return entry, nil
}

func (r *PostgresEntriesRepo) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	start := time.Now()
	tag, err := r.db.Exec(ctx,
		"DELETE FROM journal_entries WHERE id = $1 AND user_id = $2",
		entryID, userID)
	observeQuery(ctx, "delete_entry", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry not found: %w", api.ErrNotFound)
	}
	return nil
}

// ToggleFavorite flips the flag relative to its persisted value in a single
// UPDATE so concurrent toggles cannot lose an update.
func (r *PostgresEntriesRepo) ToggleFavorite(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error) {
	start := time.Now()
	query := `
		UPDATE journal_entries
		SET is_favorite = NOT is_favorite, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + entryColumns

	entry, err := scanEntry(r.db.QueryRow(ctx, query, entryID, userID))
	observeQuery(ctx, "toggle_favorite", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("entry not found: %w", api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return entry, nil
}
