package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(t *testing.T, secret string) http.Handler {
	mw, err := HMACMiddleware(secret)
	require.NoError(t, err)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(AgentID(r.Context())))
	}))
}

func call(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHMACMiddlewareAcceptsSignedToken(t *testing.T) {
	h := protected(t, "dev-secret")

	token, err := IssueAgentToken("dev-secret", "agent-7", time.Hour)
	require.NoError(t, err)

	rec := call(h, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "agent-7", rec.Body.String())
}

func TestHMACMiddlewareRejects(t *testing.T) {
	h := protected(t, "dev-secret")

	wrongKey, err := IssueAgentToken("other-secret", "agent-7", time.Hour)
	require.NoError(t, err)
	expired, err := IssueAgentToken("dev-secret", "agent-7", -time.Minute)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "agent-7"}).SignedString([]byte("dev-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"wrong key":      "Bearer " + wrongKey,
		"expired":        "Bearer " + expired,
		"no expiry":      "Bearer " + noExpiry,
		"garbage":        "Bearer not.a.jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, call(h, header).Code)
		})
	}
}

func TestMiddlewareConstructorsRequireConfig(t *testing.T) {
	_, err := HMACMiddleware("")
	assert.Error(t, err)

	_, err = Middleware(t.Context(), "")
	assert.Error(t, err)
}
