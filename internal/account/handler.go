package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefront/accounts/internal/observability"
	"github.com/storefront/accounts/internal/platform/httpx"
	"github.com/storefront/accounts/internal/shared"
)

// Handler wires HTTP endpoints for account flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler constructs a Handler instance. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers account routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/me", h.handleInfo)
		r.Put("/profile", h.handleUpdateProfile)
		r.Put("/address", h.handleUpdateAddress)
		r.Post("/logout", h.handleLogout)
	})
}

// requireSession rejects requests without an authenticated session before the
// body is read.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.service.Authorize(sessionOf(r)); err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "", user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Login(r.Context(), sessionOf(r), req); err != nil {
		h.metrics.ObserveLogin(loginOutcome(err))
		h.fail(w, r, "login", err)
		return
	}
	h.metrics.ObserveLogin("success")
	httpx.OK(w, http.StatusOK, "Login successful", nil)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Info(r.Context(), sessionOf(r))
	if err != nil {
		h.fail(w, r, "get user info", err)
		return
	}
	httpx.OK(w, http.StatusOK, "", user)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := h.service.UpdateProfile(r.Context(), sessionOf(r), req); err != nil {
		h.fail(w, r, "update profile", err)
		return
	}
	httpx.OK(w, http.StatusOK, "User updated successfully", nil)
}

func (h *Handler) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	var req UpdateAddressRequest
	if !h.decode(w, r, &req) {
		return
	}
	address, err := h.service.UpdateAddress(r.Context(), sessionOf(r), req)
	if err != nil {
		h.fail(w, r, "update address", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Address updated successfully", address)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionOf(r)); err != nil {
		h.fail(w, r, "logout", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Logout successful", nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		h.logger.Debug("decode request", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, &shared.ValidationError{Fields: map[string]string{"body": "json"}})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if status := httpx.StatusOf(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, shared.ErrValidation):
		return "invalid_request"
	default:
		return "error"
	}
}

// sessionOf returns the request session as a SessionStore, keeping a missing
// session a true nil interface.
func sessionOf(r *http.Request) SessionStore {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess
	}
	return nil
}
