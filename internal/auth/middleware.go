package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const agentIDKey contextKey = "agent_id"

// Middleware verifies agent bearer tokens against an OIDC issuer.
func Middleware(ctx context.Context, issuer string) (func(http.Handler) http.Handler, error) {
	if issuer == "" {
		return nil, fmt.Errorf("OIDC_ISSUER not set")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	// SkipClientIDCheck → any client of the realm may call the agent API
	verifier := provider.Verifier(&oidc.Config{
		SkipClientIDCheck: true,
	})

	return bearerMiddleware(func(ctx context.Context, rawToken string) (string, error) {
		idToken, err := verifier.Verify(ctx, rawToken)
		if err != nil {
			return "", err
		}
		var claims struct {
			Sub string `json:"sub"`
		}
		if err := idToken.Claims(&claims); err != nil {
			return "", fmt.Errorf("failed to parse claims: %w", err)
		}
		return claims.Sub, nil
	}), nil
}

// HMACMiddleware verifies HS256 agent tokens signed with a shared secret.
// Used for local development and tests.
func HMACMiddleware(secret string) (func(http.Handler) http.Handler, error) {
	if secret == "" {
		return nil, fmt.Errorf("AUTH_HMAC_SECRET not set")
	}
	key := []byte(secret)

	return bearerMiddleware(func(_ context.Context, rawToken string) (string, error) {
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}), nil
}

type verifyFunc func(ctx context.Context, rawToken string) (string, error)

func bearerMiddleware(verify verifyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			agentID, err := verify(r.Context(), rawToken)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if agentID == "" {
				http.Error(w, "token has no subject", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), agentIDKey, agentID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper to extract the agent ID in handlers
func AgentID(ctx context.Context) string {
	if id, ok := ctx.Value(agentIDKey).(string); ok {
		return id
	}
	return ""
}
