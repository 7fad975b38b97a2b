package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/memento-app/memento-api/app/observability/metrics"
	"github.com/memento-app/memento-api/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service AuthService
}

func NewHandler(service AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// Register creates a new account. 409 names the colliding field.
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode register request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		l.WarnContext(ctx, "Register validation failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "Validation failed")
		api.ErrorResponse(w, r, http.StatusBadRequest, errMessage(err))
		return
	}

	user, err := h.service.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrConflict) {
			l.WarnContext(ctx, "Registration conflict", slog.Any("error", err))
			span.SetStatus(codes.Error, "Conflict")
			metrics.Get().RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "conflict")))
			api.ErrorResponse(w, r, http.StatusConflict, errMessage(err))
			return
		}
		l.ErrorContext(ctx, "Service failed to register user", slog.Any("error", err))
		span.SetStatus(codes.Error, "Registration failed")
		metrics.Get().RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to register user")
		return
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	span.SetStatus(codes.Ok, "User registered")
	metrics.Get().RegisterRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	api.WriteJSONResponse(w, r, http.StatusCreated, user)
}

// Login authenticates with a form-encoded username (carrying the email) and
// password, mirroring the OAuth2 password flow, and returns a bearer token.
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Login"))

	if err := r.ParseForm(); err != nil {
		l.WarnContext(ctx, "Failed to parse login form", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		span.SetStatus(codes.Error, "Missing credentials")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, err := h.service.Login(ctx, email, password)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrUnauthenticated) {
			l.WarnContext(ctx, "Login rejected")
			span.SetStatus(codes.Error, "Unauthorized")
			metrics.Get().LoginRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "unauthorized")))
			w.Header().Set("WWW-Authenticate", "Bearer")
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Incorrect email or password.")
			return
		}
		l.ErrorContext(ctx, "Service failed to login user", slog.Any("error", err))
		span.SetStatus(codes.Error, "Login failed")
		metrics.Get().LoginRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to login")
		return
	}

	span.SetStatus(codes.Ok, "Login successful")
	metrics.Get().LoginRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	api.WriteJSONResponse(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me returns the authenticated user's record. A valid token referencing a
// deleted user yields 401, not 404.
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Me")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Me"))

	userIDStr, ok := GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token subject")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	user, err := h.service.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, api.ErrNotFound) {
			l.WarnContext(ctx, "Token references nonexistent user", slog.String("user_id", userIDStr))
			span.SetStatus(codes.Error, "Unknown user")
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}
		l.ErrorContext(ctx, "Service failed to fetch user", slog.Any("error", err))
		span.SetStatus(codes.Error, "Failed to fetch user")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	span.SetStatus(codes.Ok, "User fetched")
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// errMessage strips the sentinel prefix so clients see only the human text.
func errMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{api.ErrConflict, api.ErrValidation} {
		prefix := sentinel.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
