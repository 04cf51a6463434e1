// Package audit records security-relevant authentication events.
//
// The sink is an interface so that deployments can forward events to an
// external trail; the default sink writes structured zerolog records.
// Usernames from failed attempts are recorded on purpose, even when no such
// account exists, to make enumeration attempts visible. Session IDs and
// secrets are never part of an event.
package audit

import "github.com/rs/zerolog/log"

// Action identifies the audited operation.
type Action string

const (
	// ActionLogin is a successful interactive login.
	ActionLogin Action = "login"
	// ActionLoginFailed is a definitively failed interactive login.
	ActionLoginFailed Action = "login.failed"
	// ActionLoginBlocked is a login attempt rejected by the lockout window.
	ActionLoginBlocked Action = "login.blocked"
	// ActionLogout is an explicit logout.
	ActionLogout Action = "logout"
	// ActionUnblock is a privileged lockout counter reset.
	ActionUnblock Action = "user.unblock"
	// ActionProvision is a directory sync of a user record.
	ActionProvision Action = "user.provision"
	// ActionDeprovision is the removal of a user's directory-granted access.
	ActionDeprovision Action = "user.deprovision"
)

// Event is one audit trail entry.
type Event struct {
	Action   Action
	Username string
	UserID   uint64
	IP       string
	Details  string
}

// Sink consumes audit events.
type Sink interface {
	Record(e Event)
}

// ZerologSink writes audit events to the global zerolog logger.
type ZerologSink struct{}

// Record implements Sink.
func (ZerologSink) Record(e Event) {
	ev := log.Info().Str("audit", string(e.Action))

	if e.Username != "" {
		ev = ev.Str("username", e.Username)
	}

	if e.UserID != 0 {
		ev = ev.Uint64("user_id", e.UserID)
	}

	if e.IP != "" {
		ev = ev.Str("ip", e.IP)
	}

	ev.Msg(e.Details)
}
