package accounts

// UserIdentity is a point-in-time Identity view of a User.
// It copies the fields so later mutations of the record do not leak into
// tokens minted from it.
type UserIdentity struct {
	id       string
	username string
	email    string
	role     UserRole
	active   bool
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		role:     user.Role,
		active:   user.IsActive,
	}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string { return u.id }

// Username returns the user's username.
func (u UserIdentity) Username() string { return u.username }

// Email returns the user's email address.
func (u UserIdentity) Email() string { return u.email }

// Role returns the user's role.
func (u UserIdentity) Role() string { return u.role }

// Active reports whether the account may hold a session.
func (u UserIdentity) Active() bool { return u.active }

var _ Identity = UserIdentity{}

type activeAwareIdentity interface {
	Active() bool
}

// identityActive treats identities that do not expose an active flag as active.
func identityActive(identity Identity) bool {
	if identity == nil {
		return false
	}
	if aa, ok := identity.(activeAwareIdentity); ok {
		return aa.Active()
	}
	return true
}
