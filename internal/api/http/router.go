package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Departments    *handlers.DepartmentsHandler
	Triage         *handlers.TriageHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	staff := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	staff.Get("/tickets", cfg.Tickets.ListTickets)
	staff.Get("/tickets/:id", cfg.Tickets.GetTicket)
	staff.Patch("/tickets/:id/status", cfg.Tickets.UpdateStatus)
	staff.Get("/dashboard", cfg.Tickets.Dashboard)
	staff.Get("/departments", cfg.Departments.ListDepartments)
	staff.Get("/departments/:id", cfg.Departments.GetDepartment)

	supervisory := app.Group("/triage", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.AgentRoleSupervisor, domain.AgentRoleDirector, domain.AgentRoleAdmin))
	supervisory.Post("/run", cfg.Triage.Run)
}
