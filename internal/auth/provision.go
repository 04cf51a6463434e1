package auth

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/audit"
	"github.com/hawkmon/hawkmon/internal/config"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

// Provisioner reconciles local user records with attributes supplied by a
// directory (just-in-time provisioning).
type Provisioner struct {
	db       *gorm.DB
	sink     audit.Sink
	cfg      *config.Auth
	validate *validator.Validate
}

// NewProvisioner creates a provisioner.
func NewProvisioner(db *gorm.DB, sink audit.Sink, cfg *config.Auth) *Provisioner {
	return &Provisioner{
		db:       db,
		sink:     sink,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// IsTimeToProvision reports whether the minimum re-provisioning interval
// has elapsed since the last directory sync.
func (p *Provisioner) IsTimeToProvision(tsProvisioned int64, now time.Time) bool {
	return now.Unix()-tsProvisioned >= int64(p.cfg.ProvisionInterval.Seconds())
}

// assignment is the local shape computed from directory attributes.
type assignment struct {
	roleID   uint64
	groupIDs []uint64
	media    []models.Media
}

// MapGroups matches the IdP group names against the directory's configured
// patterns. The granted user groups are the union over all matching rules;
// the role comes from the first matching rule. No match at all means no
// role and no groups, which effectively disables the user on first login —
// that is not an error.
func (p *Provisioner) MapGroups(dir *models.UserDirectory, idpGroups []string) (uint64, []uint64) {
	var (
		roleID uint64
		seen   = make(map[uint64]struct{})
		ids    []uint64
	)

	for _, mapping := range dir.GroupMappings {
		matched := false

		for _, name := range idpGroups {
			if matchPattern(mapping.Pattern, name) {
				matched = true
				break
			}
		}

		if !matched {
			continue
		}

		if roleID == 0 {
			roleID = mapping.RoleID
		}

		for _, g := range mapping.Groups {
			if _, ok := seen[g.ID]; !ok {
				seen[g.ID] = struct{}{}
				ids = append(ids, g.ID)
			}
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return roleID, ids
}

// matchPattern matches an IdP group name against a configured pattern.
// Patterns are compared case-insensitively and `*` matches any run of
// characters.
func matchPattern(pattern, name string) bool {
	pattern = strings.ToLower(pattern)
	name = strings.ToLower(name)

	if !strings.Contains(pattern, "*") {
		return pattern == name
	}

	parts := strings.Split(pattern, "*")

	// Anchored prefix and suffix, the middle parts float in order.
	if !strings.HasPrefix(name, parts[0]) {
		return false
	}

	name = name[len(parts[0]):]
	last := len(parts) - 1

	for i := 1; i < last; i++ {
		idx := strings.Index(name, parts[i])
		if idx < 0 {
			return false
		}

		name = name[idx+len(parts[i]):]
	}

	return strings.HasSuffix(name, parts[last])
}

// SanitizeMedia maps the IdP media attributes onto media rows. Entries with
// an empty recipient are dropped; e-mail recipients additionally must pass
// address validation, and recipients that would overflow the stored length
// are dropped from the end rather than truncated mid-address.
func (p *Provisioner) SanitizeMedia(dir *models.UserDirectory, attrs *AttributeSet) ([]models.Media, error) {
	media := make([]models.Media, 0, len(dir.MediaMappings))

	for _, mapping := range dir.MediaMappings {
		values := attrs.Media[mapping.Attribute]
		if len(values) == 0 {
			continue
		}

		var mediaType models.MediaType
		if err := p.db.First(&mediaType, mapping.MediaTypeID).Error; err != nil {
			return nil, fmt.Errorf("failed to query media type: %w", err)
		}

		recipients := make([]string, 0, len(values))

		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}

			if mediaType.Kind == models.MediaKindEmail {
				if err := p.validate.Var(v, "email"); err != nil {
					continue
				}
			}

			recipients = append(recipients, v)
		}

		// Drop whole recipients from the end until the joined list fits.
		for len(recipients) > 0 && len(strings.Join(recipients, "\n")) > models.SendtoMaxLen {
			recipients = recipients[:len(recipients)-1]
		}

		if len(recipients) == 0 {
			continue
		}

		media = append(media, models.Media{
			MediaTypeID: mapping.MediaTypeID,
			Sendto:      strings.Join(recipients, "\n"),
		})
	}

	return media, nil
}

// CreateProvisionedUser persists a brand-new user from directory
// attributes. The user may end up without role and groups when no mapping
// rule matched.
func (p *Provisioner) CreateProvisionedUser(
	dir *models.UserDirectory,
	attrs *AttributeSet,
	now time.Time,
) (*models.User, error) {
	roleID, groupIDs := p.MapGroups(dir, attrs.Groups)

	media, err := p.SanitizeMedia(dir, attrs)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:        attrs.Username,
		Name:            attrs.Name,
		Surname:         attrs.Surname,
		RoleID:          roleID,
		UserDirectoryID: dir.ID,
		TSProvisioned:   now.Unix(),
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			return fmt.Errorf("failed to create user: %w", errCreate)
		}

		for _, groupID := range groupIDs {
			member := models.UserGroupMember{UserID: user.ID, GroupID: groupID}
			if errMember := tx.Create(&member).Error; errMember != nil {
				return fmt.Errorf("failed to add group membership: %w", errMember)
			}
		}

		for i := range media {
			media[i].UserID = user.ID
			if errMedia := tx.Create(&media[i]).Error; errMedia != nil {
				return fmt.Errorf("failed to create media: %w", errMedia)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	p.sink.Record(audit.Event{
		Action:   audit.ActionProvision,
		Username: user.Username,
		UserID:   user.ID,
		Details:  "user provisioned from directory " + dir.Name,
	})

	return &user, nil
}

// UpdateProvisionedUser re-syncs an existing user from fresh directory
// attributes. A recomputed empty group set deprovisions the user: the
// membership is replaced with exactly the well-known disabled group, the
// role is removed and the caller must treat the user as no longer
// authenticated (signalled by the true return).
//
// The sync is idempotent apart from the provisioning timestamp: identical
// attributes produce no further writes.
func (p *Provisioner) UpdateProvisionedUser(
	dir *models.UserDirectory,
	user *models.User,
	attrs *AttributeSet,
	now time.Time,
) (bool, error) {
	roleID, groupIDs := p.MapGroups(dir, attrs.Groups)

	if len(groupIDs) == 0 {
		if err := p.deprovision(user, now); err != nil {
			return false, err
		}

		return true, nil
	}

	media, err := p.SanitizeMedia(dir, attrs)
	if err != nil {
		return false, err
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"ts_provisioned": now.Unix()}

		if user.Name != attrs.Name {
			updates["name"] = attrs.Name
		}

		if user.Surname != attrs.Surname {
			updates["surname"] = attrs.Surname
		}

		if user.RoleID != roleID {
			updates["role_id"] = roleID
		}

		if errUpd := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; errUpd != nil {
			return fmt.Errorf("failed to update user: %w", errUpd)
		}

		if errGroups := p.syncMemberships(tx, user.ID, groupIDs); errGroups != nil {
			return errGroups
		}

		return p.syncMedia(tx, user.ID, media)
	})
	if err != nil {
		return false, err
	}

	user.Name = attrs.Name
	user.Surname = attrs.Surname
	user.RoleID = roleID
	user.TSProvisioned = now.Unix()

	p.sink.Record(audit.Event{
		Action:   audit.ActionProvision,
		Username: user.Username,
		UserID:   user.ID,
		Details:  "user re-provisioned from directory " + dir.Name,
	})

	return false, nil
}

// deprovision moves the user into the well-known disabled group and strips
// the role, without deleting the row.
func (p *Provisioner) deprovision(user *models.User, now time.Time) error {
	err := p.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"role_id":        uint64(0),
			"ts_provisioned": now.Unix(),
		}

		if errUpd := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; errUpd != nil {
			return fmt.Errorf("failed to update user: %w", errUpd)
		}

		var groupIDs []uint64
		if p.cfg.DeprovisionedGroupID != 0 {
			groupIDs = []uint64{p.cfg.DeprovisionedGroupID}
		}

		return p.syncMemberships(tx, user.ID, groupIDs)
	})
	if err != nil {
		return err
	}

	user.RoleID = 0
	user.TSProvisioned = now.Unix()

	p.sink.Record(audit.Event{
		Action:   audit.ActionDeprovision,
		Username: user.Username,
		UserID:   user.ID,
		Details:  "user deprovisioned, no matching directory groups",
	})

	return nil
}

// syncMemberships replaces the user's group memberships when they differ
// from the wanted set. The write is skipped when nothing changed.
func (p *Provisioner) syncMemberships(tx *gorm.DB, userID uint64, wanted []uint64) error {
	var current []uint64

	err := tx.Model(&models.UserGroupMember{}).
		Where("user_id = ?", userID).
		Order("group_id").
		Pluck("group_id", &current).Error
	if err != nil {
		return fmt.Errorf("failed to query memberships: %w", err)
	}

	if equalIDs(current, wanted) {
		return nil
	}

	if err = tx.Where("user_id = ?", userID).Delete(&models.UserGroupMember{}).Error; err != nil {
		return fmt.Errorf("failed to remove old group memberships: %w", err)
	}

	for _, groupID := range wanted {
		member := models.UserGroupMember{UserID: userID, GroupID: groupID}
		if err = tx.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to add group membership: %w", err)
		}
	}

	return nil
}

// syncMedia replaces the user's media rows when they differ from the
// sanitized set. An empty set simply clears the media: unlike groups, an
// empty media result does not deprovision.
func (p *Provisioner) syncMedia(tx *gorm.DB, userID uint64, wanted []models.Media) error {
	var current []models.Media

	err := tx.Where("user_id = ?", userID).
		Order("media_type_id, sendto").
		Find(&current).Error
	if err != nil {
		return fmt.Errorf("failed to query media: %w", err)
	}

	if equalMedia(current, wanted) {
		return nil
	}

	if err = tx.Where("user_id = ?", userID).Delete(&models.Media{}).Error; err != nil {
		return fmt.Errorf("failed to remove old media: %w", err)
	}

	for i := range wanted {
		wanted[i].UserID = userID
		wanted[i].ID = 0

		if err = tx.Create(&wanted[i]).Error; err != nil {
			return fmt.Errorf("failed to create media: %w", err)
		}
	}

	return nil
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func equalMedia(current, wanted []models.Media) bool {
	if len(current) != len(wanted) {
		return false
	}

	type key struct {
		mediaTypeID uint64
		sendto      string
	}

	set := make(map[key]int, len(current))
	for _, m := range current {
		set[key{m.MediaTypeID, m.Sendto}]++
	}

	for _, m := range wanted {
		k := key{m.MediaTypeID, m.Sendto}
		if set[k] == 0 {
			return false
		}

		set[k]--
	}

	return true
}
