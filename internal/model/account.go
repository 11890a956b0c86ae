package model

// Role is the closed set of staff roles. Authorization allow-lists are
// expressed as slices of this type, never as raw strings.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleReceptionist Role = "RECEPTIONIST"
	RolePhysician    Role = "PHYSICIAN"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleReceptionist, RolePhysician:
		return true
	}
	return false
}

// Account represents a staff login record with one role. The password hash
// is never serialized; API responses carry the account without it.
type Account struct {
	Base
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
}

// CreateAccountRequest represents account creation parameters
type CreateAccountRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required,oneof=ADMIN RECEPTIONIST PHYSICIAN"`
}

// UpdateAccountRequest represents account update parameters. Only the fields
// present in the request are applied.
type UpdateAccountRequest struct {
	Username *string `json:"username"`
	Role     *Role   `json:"role" binding:"omitempty,oneof=ADMIN RECEPTIONIST PHYSICIAN"`
}
