package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hotel-requests/internal/api/dto"
	"github.com/spec-kit/hotel-requests/internal/service"
)

// Me GET /me returns the principal the bearer token resolved to.
func Me(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		ID:             principal.ID,
		Role:           principal.Role,
		DisplayName:    principal.DisplayName,
		RoomNumber:     principal.RoomNumber,
		AllowedFilters: service.AllowedFilters(principal.Role),
	}})
}
