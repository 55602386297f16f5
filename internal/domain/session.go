package domain

// UserSummary is the user record returned alongside a session token.
type UserSummary struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phoneNumber,omitempty"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user may use the admin screens.
func (u UserSummary) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Session is created from a login or register response and persisted so it
// survives restarts.
type Session struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}
