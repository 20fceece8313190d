package controller

import (
	"ai-docpilot-be/internal/dto"
	"ai-docpilot-be/internal/pkg/serverutils"
	"ai-docpilot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDiagramController interface {
	RegisterRoutes(r fiber.Router)
	Accept(ctx *fiber.Ctx) error
}

type diagramController struct {
	diagramService service.IDiagramService
}

func NewDiagramController(diagramService service.IDiagramService) IDiagramController {
	return &diagramController{
		diagramService: diagramService,
	}
}

func (c *diagramController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/diagram/v1")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED: Wajib login
	h.Post("accept", c.Accept)
}

func (c *diagramController) Accept(ctx *fiber.Ctx) error {
	// 1. Ambil User ID dari Token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.AcceptDiagramsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// 2. Kirim userId ke Service
	res, err := c.diagramService.Accept(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Editor session not found or expired"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success accept diagrams", res))
}
