package entries

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/memento-app/memento-api/internal/api"
)

// EntryCategory is the fixed categorization of a journal entry.
type EntryCategory string

const (
	CategoryFact    EntryCategory = "Fact"
	CategoryWord    EntryCategory = "Word"
	CategoryInsight EntryCategory = "Insight"
	CategoryQuote   EntryCategory = "Quote"
)

func (c EntryCategory) IsValid() bool {
	switch c {
	case CategoryFact, CategoryWord, CategoryInsight, CategoryQuote:
		return true
	}
	return false
}

const (
	maxTitleLen    = 255
	maxContentLen  = 5000
	maxPhoneticLen = 255
	maxExampleLen  = 2000

	DefaultLimit = 20
	MaxLimit     = 100
)

// JournalEntry is a note owned by exactly one user.
type JournalEntry struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Category   EntryCategory `json:"category"`
	Phonetic   *string       `json:"phonetic"`
	Example    *string       `json:"example"`
	IsFavorite bool          `json:"is_favorite"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateEntryRequest represents the expected JSON body for entry creation.
// Category defaults to Fact and is_favorite to false when omitted.
type CreateEntryRequest struct {
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Category   EntryCategory `json:"category"`
	Phonetic   *string       `json:"phonetic"`
	Example    *string       `json:"example"`
	IsFavorite bool          `json:"is_favorite"`
}

func (r *CreateEntryRequest) Validate() error {
	if r.Category == "" {
		r.Category = CategoryFact
	}
	if len(r.Title) == 0 || len(r.Title) > maxTitleLen {
		return fmt.Errorf("%w: title must be between 1 and %d characters", api.ErrValidation, maxTitleLen)
	}
	if len(r.Content) == 0 || len(r.Content) > maxContentLen {
		return fmt.Errorf("%w: content must be between 1 and %d characters", api.ErrValidation, maxContentLen)
	}
	if !r.Category.IsValid() {
		return fmt.Errorf("%w: category must be one of Fact, Word, Insight, Quote", api.ErrValidation)
	}
	if r.Phonetic != nil && len(*r.Phonetic) > maxPhoneticLen {
		return fmt.Errorf("%w: phonetic must be at most %d characters", api.ErrValidation, maxPhoneticLen)
	}
	if r.Example != nil && len(*r.Example) > maxExampleLen {
		return fmt.Errorf("%w: example must be at most %d characters", api.ErrValidation, maxExampleLen)
	}
	return nil
}

// UpdateEntryRequest is a partial update: a nil field was not supplied and
// must be left untouched. Presence is decided by the pointer, never by
// comparing against a zero value.
type UpdateEntryRequest struct {
	Title      *string        `json:"title"`
	Content    *string        `json:"content"`
	Category   *EntryCategory `json:"category"`
	Phonetic   *string        `json:"phonetic"`
	Example    *string        `json:"example"`
	IsFavorite *bool          `json:"is_favorite"`
}

func (r *UpdateEntryRequest) Validate() error {
	if r.Title != nil && (len(*r.Title) == 0 || len(*r.Title) > maxTitleLen) {
		return fmt.Errorf("%w: title must be between 1 and %d characters", api.ErrValidation, maxTitleLen)
	}
	if r.Content != nil && (len(*r.Content) == 0 || len(*r.Content) > maxContentLen) {
		return fmt.Errorf("%w: content must be between 1 and %d characters", api.ErrValidation, maxContentLen)
	}
	if r.Category != nil && !r.Category.IsValid() {
		return fmt.Errorf("%w: category must be one of Fact, Word, Insight, Quote", api.ErrValidation)
	}
	if r.Phonetic != nil && len(*r.Phonetic) > maxPhoneticLen {
		return fmt.Errorf("%w: phonetic must be at most %d characters", api.ErrValidation, maxPhoneticLen)
	}
	if r.Example != nil && len(*r.Example) > maxExampleLen {
		return fmt.Errorf("%w: example must be at most %d characters", api.ErrValidation, maxExampleLen)
	}
	return nil
}

// IsEmpty reports whether no field was supplied at all.
func (r *UpdateEntryRequest) IsEmpty() bool {
	return r.Title == nil && r.Content == nil && r.Category == nil &&
		r.Phonetic == nil && r.Example == nil && r.IsFavorite == nil
}

// ListFilters describes the optional predicates and pagination of a listing.
// Nil pointer filters are absent, not false/empty.
type ListFilters struct {
	Category   *EntryCategory
	Search     *string
	IsFavorite *bool
	Skip       int
	Limit      int
}

// ListEntriesResponse pairs the page with the total count so the caller can
// compute page boundaries.
type ListEntriesResponse struct {
	Entries []JournalEntry `json:"entries"`
	Total   int            `json:"total"`
	Skip    int            `json:"skip"`
	Limit   int            `json:"limit"`
}
