package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/db/models"
)

// SessionManager creates, extends and terminates browser sessions. All
// state lives in the sessions table; nothing is cached in process memory,
// so any instance can validate any session.
type SessionManager struct {
	db *gorm.DB
}

// NewSessionManager creates a session manager.
func NewSessionManager(db *gorm.DB) *SessionManager {
	return &SessionManager{db: db}
}

// generateSecret returns a new secure random hex string (256 bits).
func generateSecret() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// Create inserts a fresh active session for the user. The session ID and
// secret are random and never logged.
func (m *SessionManager) Create(user *models.User, now time.Time) (*models.Session, error) {
	sessionID, err := generateSecret()
	if err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}

	session := models.Session{
		SessionID:  sessionID,
		UserID:     user.ID,
		LastAccess: now.Unix(),
		Status:     models.SessionActive,
		Secret:     secret,
	}

	if err = m.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return &session, nil
}

// Find returns the active session with the given ID, or ErrSessionNotFound.
func (m *SessionManager) Find(sessionID string) (*models.Session, error) {
	var session models.Session

	err := m.db.Where("session_id = ? AND status = ?", sessionID, models.SessionActive).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

// IsExpired reports whether the session ran past the owner's auto-logout
// window. autologout 0 means the session never idles out.
func (m *SessionManager) IsExpired(session *models.Session, autologout int64, now time.Time) bool {
	return autologout != 0 && session.LastAccess+autologout <= now.Unix()
}

// Expire terminates the session lineage of its owner: all passive siblings
// are deleted and the current session is demoted to passive. Callers raise
// ErrSessionExpired afterwards.
func (m *SessionManager) Expire(session *models.Session) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND status = ?", session.UserID, models.SessionPassive).
			Delete(&models.Session{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete passive sessions: %w", err)
		}

		err = tx.Model(&models.Session{}).
			Where("session_id = ?", session.SessionID).
			Update("status", models.SessionPassive).Error
		if err != nil {
			return fmt.Errorf("failed to demote session: %w", err)
		}

		return nil
	})
}

// Extend slides the session window forward. The write is skipped when the
// clock did not move, so repeated validations in the same second stay
// read-only.
func (m *SessionManager) Extend(session *models.Session, now time.Time) error {
	if session.LastAccess == now.Unix() {
		return nil
	}

	session.LastAccess = now.Unix()

	err := m.db.Model(&models.Session{}).
		Where("session_id = ?", session.SessionID).
		Update("last_access", session.LastAccess).Error
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}

	return nil
}

// Logout demotes the active session to passive and deletes every passive
// session of the same user, so an explicit logout also cleans up stale
// lineages.
func (m *SessionManager) Logout(session *models.Session) error {
	return m.Expire(session)
}

// TerminateAllForUser deletes every session row of the user. Used on
// password change and explicit logout-all.
func (m *SessionManager) TerminateAllForUser(userID uint64) error {
	err := m.db.Where("user_id = ?", userID).Delete(&models.Session{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	return nil
}
