package model

// Role names carried in the JWT "role" claim.
const (
	RoleAdmin  = "ADMIN"
	RoleWaiter = "WAITER"
)

// User represents one of the two fixed operator accounts.  The records
// live in memory; PasswordHash is a bcrypt hash computed at startup from
// the configured plain password.
//
// Fields:
//  ID           – stable identifier placed in the "sub" claim.
//  Username     – login name, matched case-insensitively.
//  DisplayName  – name shown in the operator screens.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or WAITER.
type User struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"name"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
