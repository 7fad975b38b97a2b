package entries

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/memento-app/memento-api/app/observability/metrics"
	"github.com/memento-app/memento-api/internal/api"
	"github.com/memento-app/memento-api/internal/api/auth"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListEntriesHandler(w http.ResponseWriter, r *http.Request)
	GetEntryHandler(w http.ResponseWriter, r *http.Request)
	CreateEntryHandler(w http.ResponseWriter, r *http.Request)
	UpdateEntryHandler(w http.ResponseWriter, r *http.Request)
	DeleteEntryHandler(w http.ResponseWriter, r *http.Request)
	ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

func countOp(r *http.Request, op, outcome string) {
	metrics.Get().EntryOperationsTotal.Add(r.Context(), 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func (h *HandlerImpl) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EntriesHandler").Start(r.Context(), "ListEntries")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListEntriesHandler"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	filters := ListFilters{Skip: 0, Limit: DefaultLimit}
	q := r.URL.Query()

	if v := q.Get("category"); v != "" {
		category := EntryCategory(v)
		if !category.IsValid() {
			span.SetStatus(codes.Error, "Invalid category")
			api.ErrorResponse(w, r, http.StatusBadRequest, "category must be one of Fact, Word, Insight, Quote")
			return
		}
		filters.Category = &category
	}
	if v := q.Get("search"); v != "" {
		filters.Search = &v
	}
	if v := q.Get("is_favorite"); v != "" {
		isFavorite, err := strconv.ParseBool(v)
		if err != nil {
			span.SetStatus(codes.Error, "Invalid is_favorite")
			api.ErrorResponse(w, r, http.StatusBadRequest, "is_favorite must be a boolean")
			return
		}
		filters.IsFavorite = &isFavorite
	}
	if v := q.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			span.SetStatus(codes.Error, "Invalid skip")
			api.ErrorResponse(w, r, http.StatusBadRequest, "skip must be a non-negative integer")
			return
		}
		filters.Skip = skip
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxLimit {
			span.SetStatus(codes.Error, "Invalid limit")
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		filters.Limit = limit
	}

	page, err := h.service.List(ctx, userID, filters)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to list entries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list entries")
		countOp(r, "list", "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list entries")
		return
	}

	span.SetAttributes(attribute.Int("entries.total", page.Total))
	span.SetStatus(codes.Ok, "Entries listed")
	countOp(r, "list", "success")
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

func (h *HandlerImpl) GetEntryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EntriesHandler").Start(r.Context(), "GetEntry")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetEntryHandler"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	entryIDStr := chi.URLParam(r, "entryID")
	entryID, err := uuid.Parse(entryIDStr)
	if err != nil {
		l.WarnContext(ctx, "Invalid entry ID format", slog.String("entryID_str", entryIDStr))
		span.SetStatus(codes.Error, "Invalid Entry ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid entry ID format")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("entry.id", entryID.String()))

	entry, err := h.service.Get(ctx, userID, entryID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrNotFound) {
			span.SetStatus(codes.Error, "Entry not found")
			countOp(r, "get", "not_found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Entry not found.")
			return
		}
		l.ErrorContext(ctx, "Service failed to fetch entry", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to fetch entry")
		countOp(r, "get", "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch entry")
		return
	}

	span.SetStatus(codes.Ok, "Entry fetched")
	countOp(r, "get", "success")
	api.WriteJSONResponse(w, r, http.StatusOK, entry)
}

func (h *HandlerImpl) CreateEntryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EntriesHandler").Start(r.Context(), "CreateEntry")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateEntryHandler"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var req CreateEntryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode create request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.service.Create(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrValidation) {
			span.SetStatus(codes.Error, "Validation failed")
			countOp(r, "create", "invalid")
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Service failed to create entry", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to create entry")
		countOp(r, "create", "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create entry")
		return
	}

	span.SetAttributes(attribute.String("entry.id", entry.ID.String()))
	span.SetStatus(codes.Ok, "Entry created")
	countOp(r, "create", "success")
	api.WriteJSONResponse(w, r, http.StatusCreated, entry)
}

func (h *HandlerImpl) UpdateEntryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EntriesHandler").Start(r.Context(), "UpdateEntry")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateEntryHandler"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	entryIDStr := chi.URLParam(r, "entryID")
	entryID, err := uuid.Parse(entryIDStr)
	if err != nil {
		l.WarnContext(ctx, "Invalid entry ID format", slog.String("entryID_str", entryIDStr))
		span.SetStatus(codes.Error, "Invalid Entry ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid entry ID format")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("entry.id", entryID.String()))

	var req UpdateEntryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode update request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.service.Update(ctx, userID, entryID, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrValidation) {
			span.SetStatus(codes.Error, "Validation failed")
			countOp(r, "update", "invalid")
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, api.ErrNotFound) {
			span.SetStatus(codes.Error, "Entry not found")
			countOp(r, "update", "not_found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Entry not found.")
			return
		}
		l.ErrorContext(ctx, "Service failed to update entry", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to update entry")
		countOp(r, "update", "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update entry")
		return
	}

	span.SetStatus(codes.Ok, "Entry updated")
	countOp(r, "update", "success")
	api.WriteJSONResponse(w, r, http.StatusOK, entry)
}

func (h *HandlerImpl) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EntriesHandler").Start(r.Context(), "DeleteEntry")
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteEntryHandler"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	entryIDStr := chi.URLParam(r, "entryID")
	entryID, err := uuid.Parse(entryIDStr)
	if err != nil {
		l.WarnContext(ctx, "Invalid entry ID format", slog.String("entryID_str", entryIDStr))
		span.SetStatus(codes.Error, "Invalid Entry ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid entry ID format")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("entry.id", entryID.String()))

	if err := h.service.Delete(ctx, userID, entryID); err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrNotFound) {
			span.SetStatus(codes.Error, "Entry not found")
			countOp(r, "delete", "not_found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Entry not found.")
			return
		}
		l.ErrorContext(ctx, "Service failed to delete entry", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to delete entry")
		countOp(r, "delete", "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete entry")
		return
	}

	span.SetStatus(codes.Ok, "Entry deleted")
	countOp(r, "delete", "success")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("EntriesHandler").Start(r.Context(), "ToggleFavorite")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ToggleFavoriteHandler"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	entryIDStr := chi.URLParam(r, "entryID")
	entryID, err := uuid.Parse(entryIDStr)
	if err != nil {
		l.WarnContext(ctx, "Invalid entry ID format", slog.String("entryID_str", entryIDStr))
		span.SetStatus(codes.Error, "Invalid Entry ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid entry ID format")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("entry.id", entryID.String()))

	entry, err := h.service.ToggleFavorite(ctx, userID, entryID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrNotFound) {
			span.SetStatus(codes.Error, "Entry not found")
			countOp(r, "toggle_favorite", "not_found")
			api.ErrorResponse(w, r, http.StatusNotFound, "Entry not found.")
			return
		}
		l.ErrorContext(ctx, "Service failed to toggle favorite", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to toggle favorite")
		countOp(r, "toggle_favorite", "error")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to toggle favorite")
		return
	}

	span.SetAttributes(attribute.Bool("entry.is_favorite", entry.IsFavorite))
	span.SetStatus(codes.Ok, "Favorite toggled")
	countOp(r, "toggle_favorite", "success")
	api.WriteJSONResponse(w, r, http.StatusOK, entry)
}
