package models

// Role is the access level assigned to a user account.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleUser      Role = "USER"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// CanSeeAllImages reports whether the role bypasses ownership on image reads.
func (r Role) CanSeeAllImages() bool {
	return r == RoleAdmin || r == RoleModerator
}
