package server

import (
	"net/http"
	"strings"
)

// TestUserID is the account every locally issued test token maps
// to. Real deployments would swap resolveToken for a verifier.
const TestUserID = "test-user-1"

// userHandler is a handler that runs on behalf of an
// authenticated user.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// resolveToken maps a bearer token to a user ID. The local token
// scheme accepts the fixed test token and self-identifying
// "user-" tokens; anything else is rejected.
func resolveToken(token string) (string, bool) {
	switch {
	case token == "test-token":
		return TestUserID, true
	case strings.HasPrefix(token, "user-"):
		return token, true
	default:
		return "", false
	}
}

// authenticate resolves the bearer token on the request. On
// failure it writes a 401 and returns false.
func (s *Server) authenticate(
	w http.ResponseWriter, r *http.Request,
) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return "", false
	}
	userID, ok := resolveToken(token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return "", false
	}
	return userID, true
}

// requireUser authenticates the request and resolves the
// effective user. A user_id query parameter may only name the
// authenticated user; it defaults to them when absent.
func (s *Server) requireUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		if requested := r.URL.Query().Get("user_id"); requested != "" && requested != userID {
			writeError(w, http.StatusForbidden, "access denied to requested user data")
			return
		}
		h(w, r, userID)
	}
}
