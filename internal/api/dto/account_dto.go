package dto

import "time"

// EmailChangeRequest payload for requesting an email change.
type EmailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

// EmailChangeConfirmRequest payload carrying the signed token back.
type EmailChangeConfirmRequest struct {
	Token string `json:"token"`
}

// AccountCreateRequest payload for provisioning a privileged account.
// Profile carries arbitrary extra fields for the account document.
type AccountCreateRequest struct {
	Email      string         `json:"email"`
	Password   string         `json:"password,omitempty"`
	Birthday   string         `json:"birthday,omitempty"`
	FirstName  string         `json:"first_name,omitempty"`
	MiddleName string         `json:"middle_name,omitempty"`
	LastName   string         `json:"last_name,omitempty"`
	FullName   string         `json:"full_name,omitempty"`
	Role       string         `json:"role,omitempty"`
	Profile    map[string]any `json:"profile,omitempty"`
}

// AccountArchiveRequest payload toggling archive state.
type AccountArchiveRequest struct {
	Archived *bool `json:"archived"`
}

// AccountResponse is the outward account projection.
type AccountResponse struct {
	IdentityID  string    `json:"identity_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
