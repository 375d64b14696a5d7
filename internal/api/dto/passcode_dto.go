package dto

import "time"

// PasscodeIssueRequest payload for issuing a one-time passcode.
type PasscodeIssueRequest struct {
	Email string `json:"email"`
}

// PasscodeIssueResponse reports the passcode validity window. The code
// itself travels only by email.
type PasscodeIssueResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// PasscodeVerifyRequest payload for verifying a passcode.
type PasscodeVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ForcePasswordChangeRequest payload for the passcode-backed credential reset.
type ForcePasswordChangeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginRequest payload for the local identity provider sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
