package auth

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hawkmon/hawkmon/internal/audit"
	"github.com/hawkmon/hawkmon/internal/db/models"
)

// LockoutTracker maintains the per-user failed-attempt counter and block
// window. The counter is last-write-wins on purpose: concurrent failures
// may under-count by one attempt, which is acceptable.
type LockoutTracker struct {
	db    *gorm.DB
	sink  audit.Sink
	max   int
	block time.Duration
}

// NewLockoutTracker creates a lockout tracker with the configured attempt
// threshold and block duration.
func NewLockoutTracker(db *gorm.DB, sink audit.Sink, maxAttempts int, block time.Duration) *LockoutTracker {
	return &LockoutTracker{
		db:    db,
		sink:  sink,
		max:   maxAttempts,
		block: block,
	}
}

// IsBlocked reports whether the user sits inside an active lockout window:
// the attempt threshold was reached and the block duration has not elapsed
// since the last failure.
func (t *LockoutTracker) IsBlocked(user *models.User, now time.Time) bool {
	if user.AttemptFailed < t.max {
		return false
	}

	return now.Unix()-user.AttemptClock < int64(t.block.Seconds())
}

// RecordFailure increments the failure counter and stamps the attempt time
// and client address. Callers skip this for deprovisioned users, whose
// failures are meaningless.
func (t *LockoutTracker) RecordFailure(user *models.User, now time.Time, ip string) error {
	if len(ip) > models.AttemptIPMaxLen {
		ip = ip[:models.AttemptIPMaxLen]
	}

	user.AttemptFailed++
	user.AttemptClock = now.Unix()
	user.AttemptIP = ip

	err := t.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"attempt_failed": user.AttemptFailed,
			"attempt_clock":  user.AttemptClock,
			"attempt_ip":     user.AttemptIP,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	t.sink.Record(audit.Event{
		Action:   audit.ActionLoginFailed,
		Username: user.Username,
		UserID:   user.ID,
		IP:       ip,
		Details:  "login failed",
	})

	return nil
}

// RecordSuccess resets the failure counter. The write is skipped when the
// counter is already zero.
func (t *LockoutTracker) RecordSuccess(user *models.User) error {
	if user.AttemptFailed == 0 {
		return nil
	}

	user.AttemptFailed = 0

	err := t.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("attempt_failed", 0).Error
	if err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}

	return nil
}

// Reset clears the lockout state of the given users. Used by the
// privileged unblock operation.
func (t *LockoutTracker) Reset(userIDs []uint64) error {
	err := t.db.Model(&models.User{}).
		Where("id IN ?", userIDs).
		Updates(map[string]interface{}{
			"attempt_failed": 0,
			"attempt_clock":  0,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset lockout state: %w", err)
	}

	for _, id := range userIDs {
		t.sink.Record(audit.Event{Action: audit.ActionUnblock, UserID: id, Details: "lockout counters reset"})
	}

	return nil
}
