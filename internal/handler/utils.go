package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/errdefs"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxUploadSize bounds multipart bodies held in memory.
const MaxUploadSize = 10 << 20

var ErrBadRequest = fmt.Errorf("bad request: %w", errdefs.ErrValidation)

func mapErr(err error) int {
	return errdefs.HTTPStatus(err)
}

// errorMessage is the text shown to the user for err. Only validation and
// sign-in failures carry details; everything else is the status text.
func errorMessage(err error, status int) string {
	switch {
	case errors.Is(err, errdefs.ErrValidation):
		return err.Error()
	case errors.Is(err, errdefs.ErrAuthentication):
		return "invalid email or password"
	case errors.Is(err, errdefs.ErrAlreadyExists):
		return "an account with this email already exists"
	default:
		return http.StatusText(status)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErr(err)
	if logger, ok := logging.GetFromContext(r.Context()); ok {
		log := logger.Warn
		if status >= http.StatusInternalServerError {
			log = logger.Error
		}
		log(r.Context(), op+" failed", zap.Int("status", status), zap.Error(err))
	}
	writeErrorJSON(w, status, errorMessage(err, status))
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	w.Write(resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func decodeJSON(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid request body", ErrBadRequest)
	}
	return nil
}

func parsePathParam(r *http.Request, key string) (string, error) {
	val := chi.URLParam(r, key)
	if val == "" {
		return "", fmt.Errorf("%w: missing path param: %s", ErrBadRequest, key)
	}
	return val, nil
}

// parseDeadline accepts a calendar date or an RFC 3339 timestamp.
func parseDeadline(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: deadline must be YYYY-MM-DD or RFC 3339", ErrBadRequest)
	}
	return t, nil
}

func browser(w http.ResponseWriter, r *http.Request) (*Browser, bool) {
	b, ok := BrowserFrom(r.Context())
	if !ok {
		writeErrorJSON(w, http.StatusInternalServerError, "browser session missing")
	}
	return b, ok
}
