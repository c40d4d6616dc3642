package handler

import (
	"errors"
	"net/http"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/session"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	reg *Registry
}

func NewAuthHandler(reg *Registry) *AuthHandler {
	return &AuthHandler{reg: reg}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}

type sessionResponse struct {
	User     domain.Account `json:"user"`
	Role     domain.Role    `json:"role"`
	Redirect string         `json:"redirect"`
	Warning  string         `json:"warning,omitempty"`
}

func newSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{User: s.Account, Role: s.Role, Redirect: session.HomeRoute(s.Role)}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	b, ok := browser(w, r)
	if !ok {
		return
	}
	var creds domain.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, "login", err)
		return
	}
	s, err := b.Session.Login(r.Context(), creds)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	h.reg.signedIn(r.Context(), b, s)
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	b, ok := browser(w, r)
	if !ok {
		return
	}
	var input domain.NewAccount
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, "signup", err)
		return
	}
	s, err := b.Session.Signup(r.Context(), input)
	if err != nil && !errors.Is(err, session.ErrProfileNotSaved) {
		writeError(w, r, "signup", err)
		return
	}
	h.reg.signedIn(r.Context(), b, s)
	resp := newSessionResponse(s)
	if err != nil {
		// The account exists and is signed in; only the profile is missing.
		if logger, ok := logging.GetFromContext(r.Context()); ok {
			logger.Warn(r.Context(), "signup incomplete", zap.Error(err))
		}
		resp.Warning = session.ErrProfileNotSaved.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Logout always succeeds for the caller: the local session is gone even
// when the backend could not be told.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	b, ok := browser(w, r)
	if !ok {
		return
	}
	if err := b.Session.Logout(r.Context()); err != nil {
		if logger, ok := logging.GetFromContext(r.Context()); ok {
			logger.Warn(r.Context(), "backend logout failed", zap.Error(err))
		}
	}
	h.reg.signedOut(r.Context(), b)
	w.WriteHeader(http.StatusNoContent)
}

type loginPage struct {
	Login  string `json:"login"`
	Signup string `json:"signup"`
}

// LoginPage is the target of redirects for signed-out browsers. A browser
// that is already signed in is sent on to its role home.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	b, ok := browser(w, r)
	if !ok {
		return
	}
	switch b.Session.State() {
	case session.StateInit, session.StateLoading:
		w.Header().Set("Retry-After", "1")
		writeErrorJSON(w, http.StatusServiceUnavailable, "session is loading")
		return
	}
	if s, ok := b.Session.Current(); ok {
		http.Redirect(w, r, session.HomeRoute(s.Role), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, loginPage{Login: "/auth/login", Signup: "/auth/signup"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	b, ok := browser(w, r)
	if !ok {
		return
	}
	switch b.Session.State() {
	case session.StateInit, session.StateLoading:
		w.Header().Set("Retry-After", "1")
		writeErrorJSON(w, http.StatusServiceUnavailable, "session is loading")
		return
	}
	s, ok := b.Session.Current()
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}
