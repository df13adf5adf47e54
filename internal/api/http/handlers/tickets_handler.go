package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/domain"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

// TicketsHandler manages staff ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	views, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(views))
	for i := range views {
		items = append(items, ticketSummary(&views[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	view, history, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view, history)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	view, err := h.service.UpdateStatus(c.Context(), principal.Agent, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(view)})
}

// Dashboard GET /dashboard.
func (h *TicketsHandler) Dashboard(c *fiber.Ctx) error {
	var departmentID *string
	if dept := c.Query("department_id"); dept != "" {
		departmentID = &dept
	}
	summary, err := h.service.Dashboard(c.Context(), departmentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		BySituation: summary.BySituation,
		ByStatus:    summary.ByStatus,
		Total:       summary.Total,
	}})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}

	if dept := c.Query("department_id"); dept != "" {
		filter.DepartmentID = &dept
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, raw := range strings.Split(statuses, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(raw)))
			if status != "" {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if situation := c.Query("situation"); situation != "" {
		tag := domain.Situation(strings.ToUpper(strings.TrimSpace(situation)))
		filter.Situation = &tag
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		filter.Offset = offset
	}
	return filter
}

func ticketSummary(view *service.TicketView) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           view.ID,
		DepartmentID: view.DepartmentID,
		AssigneeID:   view.AssigneeID,
		Title:        view.Title,
		Status:       view.Status,
		Priority:     view.Priority,
		Situation:    view.Situation,
		CreatedAt:    view.CreatedAt,
		UpdatedAt:    view.UpdatedAt,
	}
}

func ticketDetail(view *service.TicketView, history []domain.TicketHistory) dto.TicketDetailResponse {
	entries := make([]dto.HistoryEntryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.HistoryEntryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			ChangeType: entry.ChangeType,
			Action:     entry.Action,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		ID:           view.ID,
		RequesterID:  view.RequesterID,
		DepartmentID: view.DepartmentID,
		AssigneeID:   view.AssigneeID,
		Title:        view.Title,
		Description:  view.Description,
		Status:       view.Status,
		Priority:     view.Priority,
		Situation:    view.Situation,
		CreatedAt:    view.CreatedAt,
		UpdatedAt:    view.UpdatedAt,
		ClosedAt:     view.ClosedAt,
		History:      entries,
	}
}
