package server_test

import (
	"net/http"
	"testing"
	"time"
)

func TestAuthRequired(t *testing.T) {
	te := setup(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"MissingToken", "", http.StatusUnauthorized},
		{"TestToken", "test-token", http.StatusOK},
		{"SelfIdentifyingToken", "user-amara", http.StatusOK},
		{"UnknownToken", "hunter2", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := te.do(t, "GET", basePath+"weekly", "", tt.token)
			assertStatus(t, w, tt.status)
		})
	}
}

func TestAuthScopesUserParam(t *testing.T) {
	te := setup(t)
	te.seedSession(t, "s1", "user-amara", "python",
		testNow.Add(-time.Hour), 30)

	t.Run("OwnDataAllowed", func(t *testing.T) {
		w := te.do(t, "GET",
			basePath+"weekly?user_id=user-amara", "", "user-amara")
		assertStatus(t, w, http.StatusOK)
	})

	t.Run("ForeignDataDenied", func(t *testing.T) {
		w := te.do(t, "GET",
			basePath+"weekly?user_id=user-amara", "", "user-bo")
		assertStatus(t, w, http.StatusForbidden)
		assertDetailContains(t, w, "access denied")
	})

	t.Run("TestTokenIsItsOwnUser", func(t *testing.T) {
		w := te.do(t, "GET",
			basePath+"weekly?user_id=user-amara", "", "test-token")
		assertStatus(t, w, http.StatusForbidden)
	})

	t.Run("MissingParamDefaultsToCaller", func(t *testing.T) {
		w := te.do(t, "GET", basePath+"summary", "", "user-amara")
		assertStatus(t, w, http.StatusOK)
	})
}

func TestAuthOnWriteEndpoints(t *testing.T) {
	te := setup(t)

	w := te.do(t, "POST", basePath+"analyze",
		`{"analysis_type":"weekly"}`, "")
	assertStatus(t, w, http.StatusUnauthorized)

	w = te.do(t, "POST", basePath+"goals", `{"daily_minutes":30}`, "")
	assertStatus(t, w, http.StatusUnauthorized)
}
