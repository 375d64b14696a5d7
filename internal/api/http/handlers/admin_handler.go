package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vaxtrack/account-service/internal/accounts"
	"github.com/vaxtrack/account-service/internal/api/dto"
	"github.com/vaxtrack/account-service/internal/auth"
	apperrors "github.com/vaxtrack/account-service/pkg/util"
)

// AdminHandler exposes privileged account provisioning endpoints.
type AdminHandler struct {
	coordinator *accounts.Coordinator
}

// NewAdminHandler constructs handler.
func NewAdminHandler(coordinator *accounts.Coordinator) *AdminHandler {
	return &AdminHandler{coordinator: coordinator}
}

// CreateAccount handles POST /admin/accounts.
func (h *AdminHandler) CreateAccount(c *fiber.Ctx) error {
	var req dto.AccountCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	account, err := h.coordinator.Create(c.UserContext(), accounts.Profile{
		Email:      req.Email,
		Password:   req.Password,
		Birthday:   req.Birthday,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		FullName:   req.FullName,
		Role:       req.Role,
		Extra:      req.Profile,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": accountResponse(account),
	})
}

// DeleteAccount handles DELETE /admin/accounts/:id.
func (h *AdminHandler) DeleteAccount(c *fiber.Ctx) error {
	identityID := c.Params("id")
	if identityID == "" {
		return apperrors.NewValidationError("identity id required", nil)
	}

	if err := h.coordinator.Delete(c.UserContext(), identityID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// ArchiveAccount handles PATCH /admin/accounts/:id/archive.
func (h *AdminHandler) ArchiveAccount(c *fiber.Ctx) error {
	identityID := c.Params("id")
	if identityID == "" {
		return apperrors.NewValidationError("identity id required", nil)
	}

	var req dto.AccountArchiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Archived == nil {
		return apperrors.NewValidationError("archived required", nil)
	}

	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.coordinator.Archive(c.UserContext(), identityID, *req.Archived, principal.Email); err != nil {
		return err
	}

	status := "unarchived"
	if *req.Archived {
		status = "archived"
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": status}})
}

func accountResponse(account *accounts.Account) dto.AccountResponse {
	return dto.AccountResponse{
		IdentityID:  account.IdentityID,
		Email:       account.Email,
		Role:        string(account.Role),
		IsActive:    account.IsActive,
		DisplayName: account.DisplayName,
		CreatedAt:   account.CreatedAt,
	}
}
