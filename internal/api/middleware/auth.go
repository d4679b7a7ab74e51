package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/api"
	"github.com/syllabiq/syllabiq/internal/domain"
)

const institutionIDKey contextKey = "institution_id"

// Authenticator resolves an API token to an institution.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// APIKeyAuth requires a bearer API key and scopes the request to the key's
// institution. Every tenant-scoped route sits behind it.
func APIKeyAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				api.Error(w, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing api key")
				return
			}
			institutionID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				api.DomainError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithInstitutionID(r.Context(), institutionID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(r.Header.Get("X-Api-Key"))
}

// WithInstitutionID scopes a context to an institution.
func WithInstitutionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, institutionIDKey, id)
}

// GetInstitutionID returns the authenticated institution from the context.
func GetInstitutionID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(institutionIDKey).(uuid.UUID)
	return id, ok
}
