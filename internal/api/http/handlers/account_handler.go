package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vaxtrack/account-service/internal/accounts"
	"github.com/vaxtrack/account-service/internal/api/dto"
	"github.com/vaxtrack/account-service/internal/auth"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

// AccountHandler exposes the self-service email-change endpoints.
type AccountHandler struct {
	emailChange *accounts.EmailChanger
}

// NewAccountHandler constructs handler.
func NewAccountHandler(emailChange *accounts.EmailChanger) *AccountHandler {
	return &AccountHandler{emailChange: emailChange}
}

// RequestEmailChange handles POST /account/email-change/request.
func (h *AccountHandler) RequestEmailChange(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.EmailChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NewEmail == "" {
		return apperrors.NewValidationError("new_email required", nil)
	}

	if _, err := h.emailChange.Request(c.UserContext(), principal.IdentityID, principal.Email, req.NewEmail); err != nil {
		return err
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{"status": "confirmation sent"},
	})
}

// ConfirmEmailChange handles POST /account/email-change/confirm.
func (h *AccountHandler) ConfirmEmailChange(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		var req dto.EmailChangeConfirmRequest
		if err := c.BodyParser(&req); err == nil {
			token = req.Token
		}
	}
	if token == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	if err := h.emailChange.Confirm(c.UserContext(), token); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"status": "email updated"}})
}
