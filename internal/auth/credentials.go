package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/db/models"
)

// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
var ErrInvalidOldPassword = errors.New("invalid old password")

// ErrDirectoryOwnedUser is returned when the local write path tries to touch
// credentials of a directory-owned user.
var ErrDirectoryOwnedUser = errors.New("user credentials are owned by a directory")

// CredentialStore wraps the storage layer for user lookup and password
// maintenance. Password hashing itself lives on the models (Argon2id).
type CredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore creates a credential store over the given database.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// FindByUsername returns all users matching the login name. With
// caseSensitive false the comparison happens on LOWER(username), which may
// yield several candidates; the caller decides how to treat collisions.
func (s *CredentialStore) FindByUsername(username string, caseSensitive bool) ([]models.User, error) {
	var users []models.User

	query := s.db
	if caseSensitive {
		query = query.Where("username = ?", username)
	} else {
		query = query.Where("LOWER(username) = ?", strings.ToLower(username))
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return users, nil
}

// GetUserByID retrieves a user by ID.
func (s *CredentialStore) GetUserByID(userID uint64) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// Memberships returns the user's groups with their directory association
// preloaded, ready for permission resolution.
func (s *CredentialStore) Memberships(userID uint64) ([]models.UserGroup, error) {
	var groups []models.UserGroup

	err := s.db.Table("usrgrp").
		Joins("JOIN users_groups ON users_groups.group_id = usrgrp.id").
		Where("users_groups.user_id = ?", userID).
		Preload("UserDirectory").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	return groups, nil
}

// Directory loads a user directory with its mapping rules.
func (s *CredentialStore) Directory(directoryID uint64) (*models.UserDirectory, error) {
	var dir models.UserDirectory

	err := s.db.Preload("GroupMappings.Groups").
		Preload("MediaMappings").
		First(&dir, directoryID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user directory: %w", err)
	}

	return &dir, nil
}

// ChangePassword verifies the old password, stores the new digest and
// demotes every session of the user to passive, forcing a re-login.
// Directory-owned users have no local password to change.
func (s *CredentialStore) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if user.UserDirectoryID != 0 {
		return ErrDirectoryOwnedUser
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	hashed := models.HashPassword(newPassword)

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("passwd", hashed).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		// All existing sessions lose their active lineage.
		if err := tx.Model(&models.Session{}).
			Where("user_id = ?", userID).
			Update("status", models.SessionPassive).Error; err != nil {
			return fmt.Errorf("failed to demote sessions: %w", err)
		}

		return nil
	})
}
