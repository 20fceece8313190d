package controller

import (
	"errors"

	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/pkg/serverutils"
	"ai-docpilot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAnalysisController interface {
	RegisterRoutes(r fiber.Router)
	Run(ctx *fiber.Ctx) error
	GetRun(ctx *fiber.Ctx) error
}

type analysisController struct {
	analysisService service.IAnalysisService
}

func NewAnalysisController(analysisService service.IAnalysisService) IAnalysisController {
	return &analysisController{
		analysisService: analysisService,
	}
}

func (c *analysisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/analysis/v1")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED: Wajib login
	h.Post("run", c.Run)
	h.Get("run/:id", c.GetRun)
}

func (c *analysisController) Run(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.RunAnalysisRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	res, err := c.analysisService.Run(ctx.Context(), userId, &req)
	if err != nil {
		// Daily quota exhausted -> 429 with limit details so the client
		// can show the pricing modal
		var limitErr *dto.LimitExceededError
		if errors.As(err, &limitErr) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(dto.LimitExceededResponse{
				Success:   false,
				Code:      fiber.StatusTooManyRequests,
				Message:   "Daily AI analysis limit exceeded",
				ErrorType: "limit_exceeded",
				Data: dto.LimitExceededData{
					Limit:            limitErr.Limit,
					Used:             limitErr.Used,
					ResetAfter:       limitErr.ResetAfter,
					ShowModalPricing: true,
				},
			})
		}
		// Handle Guard Error (403)
		if err.Error() == "feature requires pro plan" {
			return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "Feature requires Pro Plan"))
		}
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session not found or expired"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Analysis started", res))
}

func (c *analysisController) GetRun(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	runId, err := uuid.Parse(idParam)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid run ID"))
	}

	// 2. Kirim userId ke Service
	res, err := c.analysisService.GetRun(ctx.Context(), userId, runId)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Analysis run not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Analysis run", res))
}
