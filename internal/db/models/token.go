package models

import "time"

// TokenStatus enables or disables an API token.
type TokenStatus int

const (
	// TokenEnabled allows the token to authenticate requests.
	TokenEnabled TokenStatus = 0
	// TokenDisabled blocks the token without deleting it.
	TokenDisabled TokenStatus = 1
)

// Token represents a long-lived API token. Only the digest of the secret
// is stored; the raw value is shown to the caller exactly once, at creation
// or regeneration. Expiry is absolute, never renewed on use.
type Token struct {
	// ID is the unique identifier for the token, exposed to admins as an
	// opaque UUID string in API payloads.
	ID string `gorm:"primaryKey;size:36"`
	// Name is the admin-facing label of the token.
	Name string `gorm:"size:128;not null"`
	// UserID is the user the token authenticates as. Tokens cascade away
	// with the user.
	UserID uint64 `gorm:"not null;index"`
	// User is the associated user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// TokenDigest is the SHA-512 hex digest of the raw secret, used for
	// indexed lookup.
	TokenDigest string `gorm:"uniqueIndex;size:128"`
	// Status enables or disables the token.
	Status TokenStatus `gorm:"not null;default:0"`
	// ExpiresAt is the unix expiry time; 0 means the token never expires.
	ExpiresAt int64
	// LastAccess is the unix time of the last successful validation.
	LastAccess int64
	// CreatorUserID is the admin who issued the token.
	CreatorUserID uint64
	// CreatedAt is the timestamp when the token was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the token was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Token model.
func (Token) TableName() string {
	return "token"
}
