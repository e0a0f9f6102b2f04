package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleAdmin can list and inspect every account
	RoleAdmin UserRole = "admin"
	// RoleUser is the default role for registered accounts
	RoleUser UserRole = "user"
	// RoleModerator is a staff role without directory access
	RoleModerator UserRole = "moderator"
)

// User is the user model
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Email           string     `bun:"email,notnull" json:"email"`
	Username        string     `bun:"username,notnull" json:"username"`
	FirstName       string     `bun:"first_name,notnull" json:"first_name"`
	LastName        string     `bun:"last_name,notnull" json:"last_name"`
	PasswordHash    string     `bun:"password_hash,notnull" json:"-"`
	Role            UserRole   `bun:"role,notnull,default:'user'" json:"role"`
	ProfilePicture  string     `bun:"profile_picture,notnull,default:''" json:"profile_picture"`
	Phone           string     `bun:"phone_number,notnull,default:''" json:"phone_number"`
	DateOfBirth     *time.Time `bun:"date_of_birth,nullzero" json:"date_of_birth"`
	Bio             string     `bun:"bio,notnull,default:''" json:"bio"`
	IsActive        bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	IsEmailVerified bool       `bun:"is_email_verified,notnull,default:false" json:"is_email_verified"`
	LastLogin       *time.Time `bun:"last_login,nullzero" json:"last_login"`
	LastLoginIP     *string    `bun:"last_login_ip,nullzero" json:"-"`
	CreatedAt       time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

// FullName is first and last name joined and trimmed
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Identity returns the read-only identity view of the user
func (u *User) Identity() Identity {
	return NewIdentityFromUser(u)
}

// ActivityLog is an immutable audit entry owned by a user.
// Rows are removed only when the owning user is deleted.
type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_logs,alias:act"`
	ID            uuid.UUID    `bun:"id,pk,type:uuid" json:"id"`
	UserID        uuid.UUID    `bun:"user_id,notnull,type:uuid" json:"user_id"`
	ActivityType  ActivityKind `bun:"activity_type,notnull" json:"activity_type"`
	Description   string       `bun:"description,notnull" json:"description"`
	IPAddress     *string      `bun:"ip_address,nullzero" json:"ip_address"`
	UserAgent     string       `bun:"user_agent,notnull,default:''" json:"user_agent"`
	CreatedAt     time.Time    `bun:"created_at,notnull" json:"created_at"`
}

// Token types carried in the token_type claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// BlacklistedToken marks a token id as permanently revoked
type BlacklistedToken struct {
	bun.BaseModel `bun:"table:token_blacklist,alias:tbl"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	JTI           string    `bun:"jti,notnull" json:"jti"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	TokenType     string    `bun:"token_type,notnull" json:"token_type"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at"`
	BlacklistedAt time.Time `bun:"blacklisted_at,notnull" json:"blacklisted_at"`
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
