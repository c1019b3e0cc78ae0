package middleware

import (
	"net/http"

	"github.com/ayush/fundraiser/backend/internal/auth"
	"github.com/ayush/fundraiser/backend/internal/httpx"
)

// RequireAuth validates the session cookie and injects the account id into
// the request context.
func RequireAuth(sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			accountID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil || accountID == "" {
				httpx.Error(w, http.StatusUnauthorized, "session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAccountID(r.Context(), accountID)))
		})
	}
}
