package controller

import (
	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/pkg/serverutils"
	"voc-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAnalyticsController interface {
	RegisterRoutes(r fiber.Router)
}

type analyticsController struct {
	service service.IAnalyticsService
}

func NewAnalyticsController(service service.IAnalyticsService) IAnalyticsController {
	return &analyticsController{service: service}
}

func (c *analyticsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/analytics", serverutils.JwtMiddleware)
	h.Get("/stats", c.Stats)
	h.Get("/issues", c.StatsByIssue)
	h.Get("/sessions", c.ListSummaries)
}

func (c *analyticsController) Stats(ctx *fiber.Ctx) error {
	var req dto.StatsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.service.Stats(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show stats", res))
}

func (c *analyticsController) StatsByIssue(ctx *fiber.Ctx) error {
	var req dto.StatsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.service.StatsByIssue(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show issue breakdown", res))
}

func (c *analyticsController) ListSummaries(ctx *fiber.Ctx) error {
	var req dto.ListSummariesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid query parameters"))
	}

	res, err := c.service.ListSummaries(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}
