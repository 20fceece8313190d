// FILE: internal/controller/plan_controller.go
// Controller for plan-related endpoints
package controller

import (
	"ai-docpilot-be/internal/pkg/serverutils"
	"ai-docpilot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PlanController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
}

type planController struct {
	planService service.PlanService
}

func NewPlanController(planService service.PlanService) PlanController {
	return &planController{
		planService: planService,
	}
}

func (c *planController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	// Authenticated endpoints
	user := api.Group("/user", jwtMiddleware)
	user.Get("/usage-status", c.GetUsageStatus)
}

// GetUsageStatus returns current usage vs limits for the authenticated user
// @Summary Get user usage status
// @Description Returns current usage counts vs plan limits for documents and AI analysis
// @Tags User
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UsageStatusResponse
// @Router /api/user/usage-status [get]
func (c *planController) GetUsageStatus(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id")
	if userIdStr == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Unauthorized"))
	}

	userId, err := uuid.Parse(userIdStr.(string))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid user ID"))
	}

	status, err := c.planService.GetUserUsageStatus(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Usage status retrieved", status))
}
