package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AttemptIPMaxLen is the longest client address stored on a failed login
// attempt (textual IPv6 maximum).
const AttemptIPMaxLen = 39

// User represents a user account in the system.
// Users either carry a local password digest (UserDirectoryID == 0) or are
// owned by an external directory that provisions them just in time.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Username is the unique login name. For directory-owned users this
	// field is written only by the provisioner, never by the local write path.
	Username string `gorm:"unique;size:100;not null"`
	// Passwd is the Argon2id password digest. Empty is allowed only for
	// users that do not authenticate internally.
	Passwd string `gorm:"size:255"`
	// Name is the user's given name.
	Name string `gorm:"size:100"`
	// Surname is the user's family name.
	Surname string `gorm:"size:100"`
	// RoleID is the assigned role; 0 means no role.
	RoleID uint64
	// UserDirectoryID links a provisioned user to its owning directory.
	// 0 means the user is locally managed.
	UserDirectoryID uint64
	// AutoLogin indicates the browser may restore the session automatically.
	// Mutually exclusive with a non-zero AutoLogout.
	AutoLogin bool
	// AutoLogout is the idle session lifetime in seconds; 0 disables it.
	AutoLogout int64
	// AttemptFailed counts consecutive failed login attempts.
	AttemptFailed int
	// AttemptClock is the unix time of the last failed attempt.
	AttemptClock int64
	// AttemptIP is the client address of the last failed attempt.
	AttemptIP string `gorm:"size:39"`
	// TSProvisioned is the unix time of the last directory sync; 0 if the
	// user was never provisioned.
	TSProvisioned int64
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// LoginPolicyValid reports whether the auto-login settings are consistent:
// auto-login and auto-logout cannot be enabled at the same time.
func (u *User) LoginPolicyValid() bool {
	return !u.AutoLogin || u.AutoLogout == 0
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored
// digest using constant-time comparison. A user without a digest (directory
// owned) never verifies.
func (u *User) VerifyPassword(password string) bool {
	if u.Passwd == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Passwd)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
