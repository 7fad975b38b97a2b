package entries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/memento-app/memento-api/internal/api"
	"github.com/memento-app/memento-api/internal/api/auth"
)

type MockEntriesService struct {
	mock.Mock
}

var _ Service = (*MockEntriesService)(nil)

func (m *MockEntriesService) List(ctx context.Context, userID uuid.UUID, filters ListFilters) (*ListEntriesResponse, error) {
	args := m.Called(ctx, userID, filters)
	var resp *ListEntriesResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*ListEntriesResponse)
	}
	return resp, args.Error(1)
}

func (m *MockEntriesService) Get(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error) {
	args := m.Called(ctx, userID, entryID)
	var entry *JournalEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*JournalEntry)
	}
	return entry, args.Error(1)
}

func (m *MockEntriesService) Create(ctx context.Context, userID uuid.UUID, req CreateEntryRequest) (*JournalEntry, error) {
	args := m.Called(ctx, userID, req)
	var entry *JournalEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*JournalEntry)
	}
	return entry, args.Error(1)
}

func (m *MockEntriesService) Update(ctx context.Context, userID, entryID uuid.UUID, req UpdateEntryRequest) (*JournalEntry, error) {
	args := m.Called(ctx, userID, entryID, req)
	var entry *JournalEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*JournalEntry)
	}
	return entry, args.Error(1)
}

func (m *MockEntriesService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	args := m.Called(ctx, userID, entryID)
	return args.Error(0)
}

func (m *MockEntriesService) ToggleFavorite(ctx context.Context, userID, entryID uuid.UUID) (*JournalEntry, error) {
	args := m.Called(ctx, userID, entryID)
	var entry *JournalEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*JournalEntry)
	}
	return entry, args.Error(1)
}

// authedRequest stamps the authenticated user and the chi route param the way
// the router does before a handler runs.
func authedRequest(method, target string, body []byte, userID uuid.UUID, entryID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
	if entryID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("entryID", entryID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestListEntriesHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		page := &ListEntriesResponse{
			Entries: []JournalEntry{{ID: uuid.New(), UserID: userID, Title: "t", Category: CategoryFact}},
			Total:   1,
			Skip:    0,
			Limit:   DefaultLimit,
		}
		mockService.On("List", mock.Anything, userID, ListFilters{Limit: DefaultLimit}).Return(page, nil)

		rr := httptest.NewRecorder()
		handler.ListEntriesHandler(rr, authedRequest(http.MethodGet, "/api/entries", nil, userID, ""))

		require.Equal(t, http.StatusOK, rr.Code)
		var got ListEntriesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, 1, got.Total)
		assert.Len(t, got.Entries, 1)
		mockService.AssertExpectations(t)
	})

	t.Run("QueryParamsForwardedAsFilters", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		category := CategoryWord
		search := "ephemeral"
		favorite := true
		want := ListFilters{Category: &category, Search: &search, IsFavorite: &favorite, Skip: 40, Limit: 50}
		mockService.On("List", mock.Anything, userID, mock.MatchedBy(func(f ListFilters) bool {
			return f.Category != nil && *f.Category == category &&
				f.Search != nil && *f.Search == search &&
				f.IsFavorite != nil && *f.IsFavorite == favorite &&
				f.Skip == want.Skip && f.Limit == want.Limit
		})).Return(&ListEntriesResponse{Entries: []JournalEntry{}, Skip: 40, Limit: 50}, nil)

		target := "/api/entries?category=Word&search=ephemeral&is_favorite=true&skip=40&limit=50"
		rr := httptest.NewRecorder()
		handler.ListEntriesHandler(rr, authedRequest(http.MethodGet, target, nil, userID, ""))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("BadQueryParams", func(t *testing.T) {
		cases := []struct {
			name   string
			target string
		}{
			{"UnknownCategory", "/api/entries?category=Poem"},
			{"NonBooleanFavorite", "/api/entries?is_favorite=maybe"},
			{"NegativeSkip", "/api/entries?skip=-1"},
			{"ZeroLimit", "/api/entries?limit=0"},
			{"LimitOverMax", "/api/entries?limit=101"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				mockService := new(MockEntriesService)
				handler := NewHandler(mockService, slog.Default())

				rr := httptest.NewRecorder()
				handler.ListEntriesHandler(rr, authedRequest(http.MethodGet, tc.target, nil, userID, ""))

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("NoUserInContext", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		rr := httptest.NewRecorder()
		handler.ListEntriesHandler(rr, httptest.NewRequest(http.MethodGet, "/api/entries", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetEntryHandler(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("Get", mock.Anything, userID, entryID).
			Return(&JournalEntry{ID: entryID, UserID: userID, Title: "t", Category: CategoryQuote}, nil)

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/entries/"+entryID.String(), nil, userID, entryID.String())
		handler.GetEntryHandler(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var got JournalEntry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, entryID, got.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("Get", mock.Anything, userID, entryID).
			Return(nil, fmt.Errorf("entry not found: %w", api.ErrNotFound))

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/entries/"+entryID.String(), nil, userID, entryID.String())
		handler.GetEntryHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Entry not found.")
	})

	t.Run("MalformedEntryID", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/entries/not-a-uuid", nil, userID, "not-a-uuid")
		handler.GetEntryHandler(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCreateEntryHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		body := []byte(`{"title":"serendipity","content":"a happy accident","category":"Word","phonetic":"ser-uhn-DIP-i-tee"}`)
		created := &JournalEntry{ID: uuid.New(), UserID: userID, Title: "serendipity", Category: CategoryWord}
		mockService.On("Create", mock.Anything, userID, mock.MatchedBy(func(req CreateEntryRequest) bool {
			return req.Title == "serendipity" && req.Category == CategoryWord &&
				req.Phonetic != nil && *req.Phonetic == "ser-uhn-DIP-i-tee"
		})).Return(created, nil)

		rr := httptest.NewRecorder()
		handler.CreateEntryHandler(rr, authedRequest(http.MethodPost, "/api/entries", body, userID, ""))

		require.Equal(t, http.StatusCreated, rr.Code)
		var got JournalEntry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, created.ID, got.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("ValidationError", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("Create", mock.Anything, userID, mock.Anything).
			Return(nil, fmt.Errorf("%w: title must be between 1 and 255 characters", api.ErrValidation))

		rr := httptest.NewRecorder()
		body := []byte(`{"title":"","content":"c"}`)
		handler.CreateEntryHandler(rr, authedRequest(http.MethodPost, "/api/entries", body, userID, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "title")
	})

	t.Run("UnknownField", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		rr := httptest.NewRecorder()
		body := []byte(`{"title":"t","content":"c","owner":"someone-else"}`)
		handler.CreateEntryHandler(rr, authedRequest(http.MethodPost, "/api/entries", body, userID, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		rr := httptest.NewRecorder()
		handler.CreateEntryHandler(rr, authedRequest(http.MethodPost, "/api/entries", []byte(`{"title":`), userID, ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateEntryHandler(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("OnlySuppliedFieldsPresent", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		body := []byte(`{"is_favorite":true}`)
		mockService.On("Update", mock.Anything, userID, entryID, mock.MatchedBy(func(req UpdateEntryRequest) bool {
			// Omitted fields decode to nil pointers and stay untouched.
			return req.IsFavorite != nil && *req.IsFavorite &&
				req.Title == nil && req.Content == nil && req.Category == nil &&
				req.Phonetic == nil && req.Example == nil
		})).Return(&JournalEntry{ID: entryID, UserID: userID, IsFavorite: true}, nil)

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/entries/"+entryID.String(), body, userID, entryID.String())
		handler.UpdateEntryHandler(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("Update", mock.Anything, userID, entryID, mock.Anything).
			Return(nil, fmt.Errorf("entry not found: %w", api.ErrNotFound))

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/entries/"+entryID.String(), []byte(`{"title":"x"}`), userID, entryID.String())
		handler.UpdateEntryHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("ValidationError", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("Update", mock.Anything, userID, entryID, mock.Anything).
			Return(nil, fmt.Errorf("%w: category must be one of Fact, Word, Insight, Quote", api.ErrValidation))

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/entries/"+entryID.String(), []byte(`{"category":"Poem"}`), userID, entryID.String())
		handler.UpdateEntryHandler(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "category")
	})
}

func TestDeleteEntryHandler(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("Delete", mock.Anything, userID, entryID).Return(nil)

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodDelete, "/api/entries/"+entryID.String(), nil, userID, entryID.String())
		handler.DeleteEntryHandler(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("Delete", mock.Anything, userID, entryID).
			Return(fmt.Errorf("entry not found: %w", api.ErrNotFound))

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodDelete, "/api/entries/"+entryID.String(), nil, userID, entryID.String())
		handler.DeleteEntryHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestToggleFavoriteHandler(t *testing.T) {
	userID := uuid.New()
	entryID := uuid.New()

	t.Run("ReturnsUpdatedEntry", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("ToggleFavorite", mock.Anything, userID, entryID).
			Return(&JournalEntry{ID: entryID, UserID: userID, IsFavorite: true}, nil)

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPatch, "/api/entries/"+entryID.String()+"/favorite", nil, userID, entryID.String())
		handler.ToggleFavoriteHandler(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var got JournalEntry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.True(t, got.IsFavorite)
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockEntriesService)
		handler := NewHandler(mockService, slog.Default())

		mockService.On("ToggleFavorite", mock.Anything, userID, entryID).
			Return(nil, fmt.Errorf("entry not found: %w", api.ErrNotFound))

		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPatch, "/api/entries/"+entryID.String()+"/favorite", nil, userID, entryID.String())
		handler.ToggleFavoriteHandler(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
