package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/worker"
	apperrors "github.com/spec-kit/helpdesk-triage/pkg/util"
)

// TriageHandler exposes the on-demand redistribution trigger.
type TriageHandler struct {
	worker *worker.TriageWorker
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triageWorker *worker.TriageWorker) *TriageHandler {
	return &TriageHandler{worker: triageWorker}
}

// Run POST /triage/run. Shares the worker's single-flight guard with the
// scheduler, so a manual trigger never races a scheduled run.
func (h *TriageHandler) Run(c *fiber.Ctx) error {
	summary := h.worker.RunOnce(c.UserContext())
	if summary == nil {
		return apperrors.NewConflict("triage run skipped or failed; see service logs", nil)
	}

	departments := make([]dto.TriageDepartmentStats, 0, len(summary.Departments))
	for _, dept := range summary.Departments {
		departments = append(departments, dto.TriageDepartmentStats{
			DepartmentID: dept.DepartmentID,
			Agents:       dept.Agents,
			Tickets:      dept.Tickets,
			Reassigned:   dept.Reassigned,
		})
	}
	return c.JSON(fiber.Map{"data": dto.TriageRunResponse{
		StartedAt:   summary.StartedAt,
		DurationMS:  summary.Duration.Milliseconds(),
		Reassigned:  summary.Reassigned,
		Departments: departments,
	}})
}
