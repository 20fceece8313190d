package controller

import (
	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/pkg/serverutils"
	"ai-docpilot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEditorController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type editorController struct {
	editorService service.IEditorService
}

func NewEditorController(editorService service.IEditorService) IEditorController {
	return &editorController{
		editorService: editorService,
	}
}

func (c *editorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/editor/v1")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED: Wajib login
	h.Post("open", c.Open)
	h.Get("session/:id", c.State)
	h.Post("session/:id/save", c.Save)
	h.Delete("session/:id", c.Close)
}

func (c *editorController) Open(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.OpenEditorRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	res, err := c.editorService.Open(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Document not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success open editor session", res))
}

func (c *editorController) State(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId := ctx.Params("id")

	// 2. Kirim userId ke Service
	res, err := c.editorService.State(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session not found or expired"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Editor session state", res))
}

func (c *editorController) Save(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId := ctx.Params("id")

	// 2. Kirim userId ke Service
	res, err := c.editorService.Save(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session not found or expired"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save document", res))
}

func (c *editorController) Close(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId := ctx.Params("id")

	// Closing an unknown session is a no-op, not an error
	err := c.editorService.Close(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Editor session closed", nil))
}
