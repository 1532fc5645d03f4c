package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hotel-requests/internal/api/dto"
	"github.com/spec-kit/hotel-requests/internal/domain"
	"github.com/spec-kit/hotel-requests/internal/service"
)

// RequestsHandler serves the service request endpoints for every role.
type RequestsHandler struct {
	lifecycle  *service.LifecycleService
	visibility *service.VisibilityService
	audit      *service.AuditService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(lifecycle *service.LifecycleService, visibility *service.VisibilityService, audit *service.AuditService) *RequestsHandler {
	return &RequestsHandler{lifecycle: lifecycle, visibility: visibility, audit: audit}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	created, err := h.lifecycle.CreateRequest(c.UserContext(), principal, service.CreateRequestInput{
		Category:     req.Category,
		Note:         req.Note,
		Priority:     req.Priority,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestResponse(created)})
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	query, err := parseRequestQuery(c)
	if err != nil {
		return err
	}
	requests, err := h.visibility.ListVisible(c.UserContext(), principal, query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestList(requests)})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.visibility.GetVisible(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(req)})
}

// History GET /requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.audit.ListHistory(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryList(entries)})
}

// Claim POST /requests/:id/claim.
func (h *RequestsHandler) Claim(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ClaimRequestRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.ClaimRequest(c.UserContext(), principal, c.Params("id"), req.ExpectedVersion,
		service.ClaimOptions{ETAMinutes: req.ETAMinutes})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// UpdateStatus POST /requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.AdvanceStatus(c.UserContext(), principal, c.Params("id"), req.ExpectedVersion, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// Reassign POST /requests/:id/reassign.
func (h *RequestsHandler) Reassign(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReassignRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.Reassign(c.UserContext(), principal, c.Params("id"), req.ExpectedVersion, req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// Escalate POST /requests/:id/escalate.
func (h *RequestsHandler) Escalate(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.Escalate(c.UserContext(), principal, c.Params("id"), req.ExpectedVersion, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// Cancel POST /requests/:id/cancel.
func (h *RequestsHandler) Cancel(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CancelRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.CancelRequest(c.UserContext(), principal, c.Params("id"), req.ExpectedVersion)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

// UpdateNote PATCH /requests/:id/note.
func (h *RequestsHandler) UpdateNote(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateNoteRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.UpdateNote(c.UserContext(), principal, c.Params("id"), req.ExpectedVersion, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestResponse(updated)})
}

func parseRequestQuery(c *fiber.Ctx) (service.RequestQuery, error) {
	query := service.RequestQuery{
		Filter: domain.RequestFilter{
			Category:   domain.Category(c.Query("category")),
			Status:     domain.RequestStatus(c.Query("status")),
			RoomNumber: c.Query("room"),
			AssigneeID: c.Query("assignee"),
		},
		Sort: domain.SortOrder(c.Query("sort")),
	}
	var err error
	if query.Limit, err = parseInt(c, "limit"); err != nil {
		return query, err
	}
	if query.Offset, err = parseInt(c, "offset"); err != nil {
		return query, err
	}
	return query, nil
}
