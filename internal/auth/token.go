package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/db/models"
)

// TokenManager validates and maintains long-lived API tokens. Only the
// SHA-512 digest of a secret is ever stored; the raw value surfaces exactly
// once, at creation or regeneration.
type TokenManager struct {
	db *gorm.DB
}

// NewTokenManager creates a token manager.
func NewTokenManager(db *gorm.DB) *TokenManager {
	return &TokenManager{db: db}
}

// digestToken derives the stored digest from a raw secret. The digest is
// deterministic so it can be looked up by index; the secret itself carries
// enough entropy that no salt is needed.
func digestToken(raw string) string {
	sum := sha512.Sum512([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Validate looks up an enabled token by the digest of the raw secret.
// Absent and disabled tokens produce the same ErrNotAuthorized so the
// response does not leak which one it was. Expiry is absolute and checked
// after the lookup.
func (m *TokenManager) Validate(raw string, now time.Time) (*models.Token, error) {
	var token models.Token

	err := m.db.Where("token_digest = ? AND status = ?", digestToken(raw), models.TokenEnabled).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAuthorized
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	if token.ExpiresAt != 0 && token.ExpiresAt < now.Unix() {
		return nil, ErrTokenExpired
	}

	return &token, nil
}

// Touch updates the token's last access time.
func (m *TokenManager) Touch(token *models.Token, now time.Time) error {
	token.LastAccess = now.Unix()

	err := m.db.Model(&models.Token{}).
		Where("id = ?", token.ID).
		Update("last_access", token.LastAccess).Error
	if err != nil {
		return fmt.Errorf("failed to touch token: %w", err)
	}

	return nil
}

// Create issues a new token for the user and returns it together with the
// raw secret. The raw value is not retrievable afterwards.
func (m *TokenManager) Create(
	userID uint64,
	name string,
	expiresAt int64,
	creatorUserID uint64,
) (*models.Token, string, error) {
	raw, err := generateSecret()
	if err != nil {
		return nil, "", err
	}

	token := models.Token{
		ID:            uuid.NewString(),
		Name:          name,
		UserID:        userID,
		TokenDigest:   digestToken(raw),
		Status:        models.TokenEnabled,
		ExpiresAt:     expiresAt,
		CreatorUserID: creatorUserID,
	}

	if err = m.db.Create(&token).Error; err != nil {
		return nil, "", fmt.Errorf("failed to insert token: %w", err)
	}

	return &token, raw, nil
}

// Regenerate rotates the token secret and returns the new raw value once.
// The previous secret stops validating immediately.
func (m *TokenManager) Regenerate(token *models.Token) (string, error) {
	raw, err := generateSecret()
	if err != nil {
		return "", err
	}

	token.TokenDigest = digestToken(raw)

	err = m.db.Model(&models.Token{}).
		Where("id = ?", token.ID).
		Update("token_digest", token.TokenDigest).Error
	if err != nil {
		return "", fmt.Errorf("failed to update token: %w", err)
	}

	return raw, nil
}
