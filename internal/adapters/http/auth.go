package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sp3dr4/shortlink/internal/pkg/logging"
)

type ownerIDKey struct{}

var (
	errMissingToken      = errors.New("missing bearer token")
	errAuthNotConfigured = errors.New("authentication is not configured")
)

// JWTAuthenticator verifies HS256 bearer tokens issued by the identity
// provider. The subject claim carries the numeric owner ID.
type JWTAuthenticator struct {
	secret []byte
	issuer string
}

func NewJWTAuthenticator(secret, issuer string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), issuer: issuer}
}

// Authenticate returns the owner ID carried by a valid token.
func (a *JWTAuthenticator) Authenticate(tokenString string) (int64, error) {
	if len(a.secret) == 0 {
		return 0, errAuthNotConfigured
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return 0, err
	}

	ownerID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || ownerID <= 0 {
		return 0, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return ownerID, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// owner ID in the request context.
func (a *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := a.fromRequest(r)
		if err != nil {
			logging.FromContext(r.Context()).Debug("Rejected request", "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="shortlink"`)
			respondWithError(w, r, http.StatusUnauthorized, "Invalid or missing credentials")
			return
		}

		ctx := WithOwnerID(r.Context(), ownerID)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("owner_id", ownerID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *JWTAuthenticator) fromRequest(r *http.Request) (int64, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return 0, errMissingToken
	}
	return a.Authenticate(strings.TrimSpace(token))
}

func WithOwnerID(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, ownerID)
}

func OwnerIDFromContext(ctx context.Context) (int64, bool) {
	ownerID, ok := ctx.Value(ownerIDKey{}).(int64)
	return ownerID, ok
}
