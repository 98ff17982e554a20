package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type contextKey struct{}

// OwnerFromContext returns the authenticated owner id, or "" when the
// request carried no verified identity.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(contextKey{}).(string)
	return owner
}

// WithOwner returns a context carrying the given owner id (for tests)
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, contextKey{}, owner)
}

// Verifier validates bearer tokens issued by the external identity
// provider and extracts the subject as the owner id.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a token verifier with the shared signing secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// OwnerFromToken verifies a compact JWT and returns its subject
func (v *Verifier) OwnerFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}

// Middleware rejects requests without a valid bearer token and puts the
// owner id on the request context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			http.Error(w, "Authentication required. Please sign in to continue.", http.StatusUnauthorized)
			return
		}

		owner, err := v.OwnerFromToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected bearer token")
			http.Error(w, "Authentication required. Please sign in to continue.", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}
