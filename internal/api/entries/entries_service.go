package entries

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

var _ Service = (*ServiceImpl)(nil)

// Service enforces field constraints before anything reaches the repository.
// Ownership scoping itself lives in the repository queries.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, filters ListFilters) (*ListEntriesResponse, error)
	Get(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateEntryRequest) (*JournalEntry, error)
	Update(ctx context.Context, userID, entryID uuid.UUID, req UpdateEntryRequest) (*JournalEntry, error)
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	ToggleFavorite(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   EntriesRepo
}

func NewService(repo EntriesRepo, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) List(ctx context.Context, userID uuid.UUID, filters ListFilters) (*ListEntriesResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultLimit
	}

	entries, total, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		return nil, err
	}

	return &ListEntriesResponse{
		Entries: entries,
		Total:   total,
		Skip:    filters.Skip,
		Limit:   filters.Limit,
	}, nil
}

func (s *ServiceImpl) Get(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error) {
	return s.repo.GetByID(ctx, userID, entryID)
}

func (s *ServiceImpl) Create(ctx context.Context, userID uuid.UUID, req CreateEntryRequest) (*JournalEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry, err := s.repo.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Journal entry created",
		slog.String("entry_id", entry.ID.String()),
		slog.String("category", string(entry.Category)),
	)
	return entry, nil
}

func (s *ServiceImpl) Update(ctx context.Context, userID, entryID uuid.UUID, req UpdateEntryRequest) (*JournalEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, entryID, req)
}

func (s *ServiceImpl) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	return s.repo.Delete(ctx, userID, entryID)
}

func (s *ServiceImpl) ToggleFavorite(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error) {
	return s.repo.ToggleFavorite(ctx, userID, entryID)
}
