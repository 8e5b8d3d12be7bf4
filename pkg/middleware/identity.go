package middleware

import (
	"context"
	"errors"
	"net/http"
	apperrors "roomly/pkg/errors"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const requesterKey contextKey = "requester"

// IdentityClaims are the bearer token claims the service relies on.
type IdentityClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity verifies an HS256 bearer token and stores the requester it names
// in the request context. Requests without a token pass through anonymously
// so read-only routes stay public; handlers that need an identity check for
// one with RequesterFrom.
func Identity(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				rejectUnauthorized(w, log, r, "missing bearer token")
				return
			}

			requester, err := ParseRequester(strings.TrimSpace(raw), key)
			if err != nil {
				rejectUnauthorized(w, log, r, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
		})
	}
}

// ParseRequester validates token with key and returns the identity it carries.
func ParseRequester(token string, key []byte) (*model.Requester, error) {
	claims := &IdentityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Email) == "" {
		return nil, errors.New("token has no email claim")
	}

	return &model.Requester{
		Name:  strings.TrimSpace(claims.Name),
		Email: strings.ToLower(strings.TrimSpace(claims.Email)),
	}, nil
}

func WithRequester(ctx context.Context, requester *model.Requester) context.Context {
	return context.WithValue(ctx, requesterKey, requester)
}

// RequesterFrom returns the authenticated requester, or nil.
func RequesterFrom(ctx context.Context) *model.Requester {
	requester, _ := ctx.Value(requesterKey).(*model.Requester)
	return requester
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Bearer token rejected",
		"request_id", RequestIDFrom(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired bearer token"))
}
