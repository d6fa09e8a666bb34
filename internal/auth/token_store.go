package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recipeshop/internal/cache"
	apperrors "recipeshop/internal/errors"
)

const refreshTokenKeyPrefix = "refresh_token:"

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID uint, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
}

// TokenStore keeps issued refresh token IDs so they can be revoked. The
// backing store must report write failures (see cache.Client.Strict); they
// surface as apperrors.ErrUnavailable.
type TokenStore struct {
	cache cache.Store
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

type refreshRecord struct {
	UserID uint `json:"user_id"`
}

// NewTokenStore creates a new token store.
func NewTokenStore(store cache.Store) *TokenStore {
	return &TokenStore{cache: store}
}

// StoreRefreshToken records a refresh token ID with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	payload, err := json.Marshal(refreshRecord{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	if err := s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl); err != nil {
		return unavailable("store refresh token", err)
	}
	return nil
}

// GetRefreshToken returns the owner of a stored refresh token, or
// ErrInvalidToken when it was never issued, expired or was revoked.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil {
		return 0, unavailable("read refresh token", err)
	}
	if data == nil {
		return 0, apperrors.ErrInvalidToken
	}

	var rec refreshRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, fmt.Errorf("unmarshal token data: %w", err)
	}
	if rec.UserID == 0 {
		return 0, apperrors.ErrInvalidToken
	}
	return rec.UserID, nil
}

// DeleteRefreshToken revokes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	if err := s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID); err != nil {
		return unavailable("revoke refresh token", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, apperrors.ErrUnavailable, err)
}
