package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/repository"
)

const apiKeyPrefix = "sqk_"

// APIKeyStore is the persistence surface AuthService needs.
type APIKeyStore interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*repository.APIKey, error)
	Create(ctx context.Context, institutionID uuid.UUID, tokenHash, name string) (*repository.APIKey, error)
}

// AuthService resolves API tokens to institutions.
type AuthService struct {
	keys APIKeyStore
}

// NewAuthService creates an AuthService.
func NewAuthService(keys APIKeyStore) *AuthService {
	return &AuthService{keys: keys}
}

// GenerateToken mints a new API token. The raw token is returned once; only
// its hash is stored.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 of a raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IsValidTokenFormat reports whether a token looks like one we minted.
func IsValidTokenFormat(token string) bool {
	return strings.HasPrefix(token, apiKeyPrefix) && len(token) == len(apiKeyPrefix)+64
}

// CreateKey mints a token for an institution and stores its hash. Returns
// the raw token.
func (s *AuthService) CreateKey(ctx context.Context, institutionID uuid.UUID, name string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	if _, err := s.keys.Create(ctx, institutionID, HashToken(token), name); err != nil {
		return "", err
	}
	return token, nil
}

// RegisterKey stores the hash of a caller-supplied token, used by bootstrap.
func (s *AuthService) RegisterKey(ctx context.Context, institutionID uuid.UUID, token, name string) error {
	_, err := s.keys.Create(ctx, institutionID, HashToken(token), name)
	return err
}

// Authenticate resolves a raw token to its institution.
func (s *AuthService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if !IsValidTokenFormat(token) {
		return uuid.Nil, domain.ErrInvalidAPIKey
	}
	key, err := s.keys.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if domainErr, ok := err.(*domain.DomainError); ok && domainErr.Code == domain.ErrCodeNotFound {
			return uuid.Nil, domain.ErrInvalidAPIKey
		}
		return uuid.Nil, err
	}
	if key.Revoked() {
		return uuid.Nil, domain.ErrAPIKeyRevoked
	}
	return key.InstitutionID, nil
}
