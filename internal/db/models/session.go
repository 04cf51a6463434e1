package models

// SessionStatus marks a session row as the live lineage or a superseded one.
type SessionStatus int

const (
	// SessionActive is the session lineage kept alive by sliding expiration.
	SessionActive SessionStatus = 0
	// SessionPassive marks a superseded session, retained briefly then purged.
	SessionPassive SessionStatus = 1
)

// Session represents a browser session. The session ID is an opaque random
// secret handed to the client and is never written to logs.
type Session struct {
	// SessionID is the opaque secret identifying the session.
	SessionID string `gorm:"primaryKey;size:64"`
	// UserID is the owning user.
	UserID uint64 `gorm:"not null;index"`
	// LastAccess is the unix time of the last validated request.
	LastAccess int64 `gorm:"not null"`
	// Status is Active for the live lineage, Passive once superseded.
	Status SessionStatus `gorm:"not null;default:0"`
	// Secret is per-session signing material (anti-CSRF), independent of
	// the session ID.
	Secret string `gorm:"size:64"`
}

// TableName specifies the database table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}
