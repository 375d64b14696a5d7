package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vaxtrack/account-service/internal/accounts"
	"github.com/vaxtrack/account-service/internal/api/http/handlers"
	"github.com/vaxtrack/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Account        *handlers.AccountHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/passcode/issue", cfg.Auth.IssuePasscode)
	authGroup.Post("/passcode/verify", cfg.Auth.VerifyPasscode)
	authGroup.Post("/password/force-change", cfg.Auth.ForcePasswordChange)

	account := app.Group("/account")
	account.Post("/email-change/request", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Account.RequestEmailChange)
	// Confirmation arrives from the emailed link; the token is the proof.
	account.Post("/email-change/confirm", cfg.Account.ConfirmEmailChange)
	account.Get("/email-change/confirm", cfg.Account.ConfirmEmailChange)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(accounts.RoleAdmin))
	admin.Post("/accounts", cfg.Admin.CreateAccount)
	admin.Delete("/accounts/:id", cfg.Admin.DeleteAccount)
	admin.Patch("/accounts/:id/archive", cfg.Admin.ArchiveAccount)
}
