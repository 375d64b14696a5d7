package accounts

import "time"

// Role enumerates account roles. End users self-register with RoleUser;
// only admin and employee are assignable through provisioning.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleUser     Role = "user"
)

// assignableRoles is the allow-set for provisioned accounts. Anything
// outside it, including an absent role, falls back to employee.
var assignableRoles = map[Role]struct{}{
	RoleAdmin:    {},
	RoleEmployee: {},
}

// ResolveRole maps a requested role onto the allow-set.
func ResolveRole(requested string) Role {
	role := Role(requested)
	if _, ok := assignableRoles[role]; ok {
		return role
	}
	return RoleEmployee
}

// Account is the document-store projection of an identity.
type Account struct {
	IdentityID  string
	Email       string
	Role        Role
	IsActive    bool
	FirstName   string
	MiddleName  string
	LastName    string
	DisplayName string
	CreatedAt   time.Time
}

// Profile is the caller-supplied input for provisioning an account.
// Extra fields ride along into the document minus the reserved set.
type Profile struct {
	Email      string
	Password   string
	Birthday   string
	FirstName  string
	MiddleName string
	LastName   string
	FullName   string
	Role       string
	Extra      map[string]any
}

// Document collections used by the service.
const (
	CollectionAccounts  = "accounts"
	CollectionInventory = "inventory"
)

// reservedFields are system-managed document attributes that
// caller-supplied extras may never overwrite.
var reservedFields = map[string]struct{}{
	"identityId":  {},
	"email":       {},
	"role":        {},
	"isActive":    {},
	"createdAt":   {},
	"password":    {},
	"firstName":   {},
	"middleName":  {},
	"lastName":    {},
	"displayName": {},
}

// fields renders the account as document-store fields.
func (a *Account) fields() map[string]any {
	return map[string]any{
		"identityId":  a.IdentityID,
		"email":       a.Email,
		"role":        string(a.Role),
		"isActive":    a.IsActive,
		"firstName":   a.FirstName,
		"middleName":  a.MiddleName,
		"lastName":    a.LastName,
		"displayName": a.DisplayName,
		"createdAt":   a.CreatedAt.Format(time.RFC3339),
	}
}
