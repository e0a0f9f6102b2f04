package accounts

import "time"

// IdentitySnapshot is the public view of a user. It never carries the hash.
type IdentitySnapshot struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	FullName        string     `json:"full_name"`
	Role            UserRole   `json:"role"`
	ProfilePicture  string     `json:"profile_picture"`
	Phone           string     `json:"phone_number"`
	DateOfBirth     *string    `json:"date_of_birth"`
	Bio             string     `json:"bio"`
	IsEmailVerified bool       `json:"is_email_verified"`
	LastLogin       *time.Time `json:"last_login"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ActivitySnapshot is the public view of an audit entry
type ActivitySnapshot struct {
	ID           string       `json:"id"`
	UserEmail    string       `json:"user_email"`
	ActivityType ActivityKind `json:"activity_type"`
	Description  string       `json:"description"`
	IPAddress    *string      `json:"ip_address"`
	Timestamp    time.Time    `json:"timestamp"`
}

// DateLayout is the wire format of date_of_birth
const DateLayout = "2006-01-02"

// NewIdentitySnapshot builds the snapshot of user
func NewIdentitySnapshot(user *User) IdentitySnapshot {
	if user == nil {
		return IdentitySnapshot{}
	}

	var dob *string
	if user.DateOfBirth != nil {
		s := user.DateOfBirth.Format(DateLayout)
		dob = &s
	}

	return IdentitySnapshot{
		ID:              user.ID.String(),
		Email:           user.Email,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		FullName:        user.FullName(),
		Role:            user.Role,
		ProfilePicture:  user.ProfilePicture,
		Phone:           user.Phone,
		DateOfBirth:     dob,
		Bio:             user.Bio,
		IsEmailVerified: user.IsEmailVerified,
		LastLogin:       user.LastLogin,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// NewIdentitySnapshots maps a slice of users
func NewIdentitySnapshots(users []*User) []IdentitySnapshot {
	out := make([]IdentitySnapshot, 0, len(users))
	for _, u := range users {
		out = append(out, NewIdentitySnapshot(u))
	}
	return out
}

// NewActivitySnapshot builds the snapshot of an activity row.
// ownerEmail is the email of the user who owns the entry.
func NewActivitySnapshot(entry *ActivityLog, ownerEmail string) ActivitySnapshot {
	if entry == nil {
		return ActivitySnapshot{}
	}

	return ActivitySnapshot{
		ID:           entry.ID.String(),
		UserEmail:    ownerEmail,
		ActivityType: entry.ActivityType,
		Description:  entry.Description,
		IPAddress:    entry.IPAddress,
		Timestamp:    entry.CreatedAt,
	}
}
