package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vaxtrack/account-service/internal/api/dto"
	"github.com/vaxtrack/account-service/internal/identity"
	"github.com/vaxtrack/account-service/internal/passcode"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

// AuthHandler exposes passcode and sign-in endpoints.
type AuthHandler struct {
	passcodes *passcode.Service
	provider  *identity.LocalProvider
}

// NewAuthHandler constructs handler.
func NewAuthHandler(passcodes *passcode.Service, provider *identity.LocalProvider) *AuthHandler {
	return &AuthHandler{passcodes: passcodes, provider: provider}
}

// IssuePasscode handles POST /auth/passcode/issue.
func (h *AuthHandler) IssuePasscode(c *fiber.Ctx) error {
	var req dto.PasscodeIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	_, expiresAt, err := h.passcodes.Issue(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": dto.PasscodeIssueResponse{ExpiresAt: expiresAt},
	})
}

// VerifyPasscode handles POST /auth/passcode/verify.
func (h *AuthHandler) VerifyPasscode(c *fiber.Ctx) error {
	var req dto.PasscodeVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}

	result, err := h.passcodes.Verify(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}
	if err := passcodeResultError(result); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"status": string(result.Status)}})
}

// ForcePasswordChange handles POST /auth/password/force-change.
func (h *AuthHandler) ForcePasswordChange(c *fiber.Ctx) error {
	var req dto.ForcePasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Code == "" {
		return apperrors.NewValidationError("email and code required", nil)
	}

	result, err := h.passcodes.ForcePasswordChange(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}
	if err := passcodeResultError(result); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"status": string(result.Status)}})
}

// Login handles POST /auth/login against the local identity provider.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	token, expiresAt, err := h.provider.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
	})
}

// passcodeResultError maps negative verify outcomes onto the error taxonomy.
func passcodeResultError(result passcode.Result) error {
	switch result.Status {
	case passcode.StatusOK:
		return nil
	case passcode.StatusNotFound:
		return apperrors.NewNotFound("passcode", nil)
	case passcode.StatusExpired:
		return apperrors.NewExpired("passcode expired")
	default:
		return apperrors.NewValidationError("passcode mismatch", nil)
	}
}
