package accounts

import (
	"strings"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// newHashUserID derives a stable uuid from the normalised email
func newHashUserID(email string) (uuid.UUID, error) {
	return hashid.NewUUID(strings.ToLower(strings.TrimSpace(email)))
}

// ParseUserID parses a user id, returning ErrIdentityNotFound for garbage
func ParseUserID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, ErrIdentityNotFound
	}
	return uid, nil
}
