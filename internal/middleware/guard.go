package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/session"
	"github.com/CodeWithGeorg/Academic/pkg/ctxdata"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"go.uber.org/zap"
)

// RetryAfter is sent with 503 while a browser's session is still resolving.
const RetryAfter = "1"

// ManagerLookup finds the session of the browser making r, or nil.
type ManagerLookup func(r *http.Request) *session.Manager

// NewGuardMiddleware lets a request through only when its session is
// signed in with one of the allowed roles; no roles means any signed-in
// user. Anonymous callers are sent to the login route and callers with
// another role to their own home route.
func NewGuardMiddleware(lookup ManagerLookup, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			m := lookup(r)
			if m == nil {
				http.Redirect(w, r, session.LoginRoute, http.StatusSeeOther)
				return
			}

			decision := m.Authorize(allowed...)
			switch decision.Kind {
			case session.Loading:
				w.Header().Set("Retry-After", RetryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "session is loading"})
				return
			case session.RedirectLogin, session.Redirect:
				if logger, ok := logging.GetFromContext(ctx); ok {
					logger.Debug(ctx, "guard redirect",
						zap.String("path", r.URL.Path),
						zap.String("location", decision.Route),
					)
				}
				http.Redirect(w, r, decision.Route, http.StatusSeeOther)
				return
			}

			s, ok := m.Current()
			if !ok {
				http.Redirect(w, r, session.LoginRoute, http.StatusSeeOther)
				return
			}
			ctx = ctxdata.WithUserID(ctx, s.Account.ID)
			ctx = ctxdata.WithUserRole(ctx, s.Role.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
