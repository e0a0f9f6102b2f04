package accounts

import (
	"context"

	"github.com/uptrace/bun"
)

// ActivityKind enumerates the audited account actions.
type ActivityKind string

const (
	ActivityRegister       ActivityKind = "register"
	ActivityLogin          ActivityKind = "login"
	ActivityLogout         ActivityKind = "logout"
	ActivityProfileUpdate  ActivityKind = "profile_update"
	ActivityPasswordChange ActivityKind = "password_change"
	ActivityEmailChange    ActivityKind = "email_change"
)

var activityDescriptions = map[ActivityKind]string{
	ActivityRegister:       "User registered successfully",
	ActivityLogin:          "User logged in successfully",
	ActivityLogout:         "User logged out successfully",
	ActivityProfileUpdate:  "Profile updated successfully",
	ActivityPasswordChange: "Password changed successfully",
	ActivityEmailChange:    "Email changed successfully",
}

// Valid reports whether the kind is one of the known activity kinds
func (k ActivityKind) Valid() bool {
	_, ok := activityDescriptions[k]
	return ok
}

// Description is the default human readable text for the kind
func (k ActivityKind) Description() string {
	return activityDescriptions[k]
}

// ActivityEntry captures a single audited action before it is persisted.
type ActivityEntry struct {
	UserID      string
	Kind        ActivityKind
	Description string
	Client      ClientInfo
}

// ActivityRecorder appends audit entries. The tx argument lets callers
// commit the entry atomically with the state change it describes.
type ActivityRecorder interface {
	Record(ctx context.Context, tx bun.IDB, entry ActivityEntry) error
}

// ActivityRecorderFunc adapts a function to the ActivityRecorder interface.
type ActivityRecorderFunc func(ctx context.Context, tx bun.IDB, entry ActivityEntry) error

// Record implements ActivityRecorder.
func (f ActivityRecorderFunc) Record(ctx context.Context, tx bun.IDB, entry ActivityEntry) error {
	if f == nil {
		return nil
	}
	return f(ctx, tx, entry)
}

func newActivityEntry(user *User, kind ActivityKind, client ClientInfo) ActivityEntry {
	return ActivityEntry{
		UserID:      user.ID.String(),
		Kind:        kind,
		Description: kind.Description(),
		Client:      client,
	}
}
