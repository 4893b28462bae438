package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleBiochemist Role = "BIOCHEMIST"
	RolePatient    Role = "PATIENT"
)

// ParseRole maps a role name onto the closed role set. Anything outside
// the set is rejected so a mistyped claim can never reach a permission
// check.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleAdmin, RoleBiochemist, RolePatient:
		return Role(name), nil
	}
	return "", fmt.Errorf("unknown role %q", name)
}

// PendingEmailSuffix marks accounts created by administrative backfill
// that have not completed self-service registration.
const PendingEmailSuffix = "@pending.local"

// Account is the credential state of a user. A patient created by
// backfill starts as PendingAccount and may log in with DNI alone until
// registration is completed; every other account carries a password
// hash. Modelling this as a variant keeps the DNI-only login path an
// explicit branch rather than a nil check.
type Account interface {
	isAccount()
}

// PendingAccount has no password yet. DNI is the bootstrap credential.
type PendingAccount struct{}

func (PendingAccount) isAccount() {}

// RegisteredAccount authenticates with a bcrypt password hash.
type RegisteredAccount struct {
	PasswordHash string
}

func (RegisteredAccount) isAccount() {}

type User struct {
	ID        int64     `json:"id"`
	DNI       string    `json:"dni"`
	Email     string    `json:"email"`
	License   string    `json:"license,omitempty"`
	RoleID    int64     `json:"role_id"`
	Role      Role      `json:"role"`
	Account   Account   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Pending reports whether the user is still in the pre-registration
// state.
func (u *User) Pending() bool {
	if _, ok := u.Account.(PendingAccount); ok {
		return true
	}
	return strings.HasSuffix(u.Email, PendingEmailSuffix)
}

type Profile struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}
