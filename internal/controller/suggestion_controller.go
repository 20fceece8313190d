package controller

import (
	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/pkg/serverutils"
	"ai-docpilot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISuggestionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Apply(ctx *fiber.Ctx) error
	Highlight(ctx *fiber.Ctx) error
	Dismiss(ctx *fiber.Ctx) error
	ClearHighlight(ctx *fiber.Ctx) error
}

type suggestionController struct {
	suggestionService service.ISuggestionService
}

func NewSuggestionController(suggestionService service.ISuggestionService) ISuggestionController {
	return &suggestionController{
		suggestionService: suggestionService,
	}
}

func (c *suggestionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/suggestion/v1")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED: Wajib login
	h.Get("session/:id", c.List)
	h.Post("apply", c.Apply)
	h.Post("highlight", c.Highlight)
	h.Post("dismiss", c.Dismiss)
	h.Post("clear-highlight", c.ClearHighlight)
}

func (c *suggestionController) List(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId := ctx.Params("id")

	// 2. Kirim userId ke Service
	res, err := c.suggestionService.List(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session not found or expired"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get suggestions", res))
}

func (c *suggestionController) Apply(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ApplySuggestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	res, err := c.suggestionService.Apply(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session or suggestion not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success apply suggestion", res))
}

func (c *suggestionController) Highlight(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.HighlightSuggestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	res, err := c.suggestionService.Highlight(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session or suggestion not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success highlight suggestion", res))
}

func (c *suggestionController) Dismiss(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.DismissSuggestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	res, err := c.suggestionService.Dismiss(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session or suggestion not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success dismiss suggestion", res))
}

func (c *suggestionController) ClearHighlight(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ClearHighlightRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	// Clearing on an expired session is a no-op, not an error
	if err := c.suggestionService.ClearHighlight(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear highlight", nil))
}
