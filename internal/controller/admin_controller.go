package controller

import (
	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/pkg/serverutils"
	"voc-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
}

type adminController struct {
	service service.IAdminService
}

func NewAdminController(service service.IAdminService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin", serverutils.JwtMiddleware)
	h.Get("/cases", c.ListCases)
	h.Post("/cases", c.CreateCase)
	h.Post("/cases/draft", c.DraftCase)
	h.Get("/cases/:id", c.GetCase)
	h.Put("/cases/:id", c.UpdateCase)
	h.Delete("/cases/:id", c.DeleteCase)
	h.Get("/issue-types", c.ListIssueTypes)
	h.Get("/logs", c.GetLogs)
}

func (c *adminController) ListCases(ctx *fiber.Ctx) error {
	var req dto.ListCasesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.service.ListCases(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list cases", res))
}

func (c *adminController) CreateCase(ctx *fiber.Ctx) error {
	var req dto.UpsertCaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.CreateCase(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create case", res))
}

func (c *adminController) DraftCase(ctx *fiber.Ctx) error {
	var req dto.DraftCaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.DraftCase(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success draft case", res))
}

func (c *adminController) GetCase(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid case id"))
	}

	res, err := c.service.GetCase(ctx.Context(), id)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show case", res))
}

func (c *adminController) UpdateCase(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid case id"))
	}

	var req dto.UpsertCaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.UpdateCase(ctx.Context(), id, &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update case", res))
}

func (c *adminController) DeleteCase(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid case id"))
	}

	if err := c.service.DeleteCase(ctx.Context(), id); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete case", nil))
}

func (c *adminController) ListIssueTypes(ctx *fiber.Ctx) error {
	res, err := c.service.ListIssueTypes(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list issue types", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	limit := ctx.QueryInt("limit", 100)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.service.GetLogs(level, limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list logs", res))
}
