package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hotel-requests/internal/api/dto"
	"github.com/spec-kit/hotel-requests/internal/service"
)

// AdminHandler exposes the admin dashboard and registry endpoints.
type AdminHandler struct {
	metrics  *service.MetricsService
	registry *service.RegistryService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(metrics *service.MetricsService, registry *service.RegistryService) *AdminHandler {
	return &AdminHandler{metrics: metrics, registry: registry}
}

// Metrics GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	snapshot, err := h.metrics.ComputeMetrics(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}

// ListStaff GET /admin/staff?active=true.
func (h *AdminHandler) ListStaff(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	members, err := h.registry.ListStaff(c.UserContext(), principal, c.QueryBool("active", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffList(members)})
}

// RegisterGuest POST /admin/guests.
func (h *AdminHandler) RegisterGuest(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RegisterGuestRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	guest, err := h.registry.RegisterGuest(c.UserContext(), principal, service.RegisterGuestInput{
		ID:         req.ID,
		Name:       req.Name,
		Email:      req.Email,
		RoomNumber: req.RoomNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewGuestResponse(guest)})
}
