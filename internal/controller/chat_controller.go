package controller

import (
	"context"
	"encoding/json"
	"errors"

	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/pkg/serverutils"
	"voc-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("/message", c.SendMessage)
	h.Get("/history/:session_id", c.GetHistory)
	h.Delete("/session/:session_id", c.ResetSession)

	h.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("/ws", websocket.New(c.serveWs))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.service.SendMessage(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrSessionBusy) {
			return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")
	if sessionId == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing session id"))
	}

	res, err := c.service.GetHistory(ctx.Context(), sessionId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show history", res))
}

func (c *chatController) ResetSession(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")
	if sessionId == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing session id"))
	}

	if err := c.service.ResetSession(ctx.Context(), sessionId); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}

// streamWriter is the connection surface the streaming loop needs;
// websocket.Conn satisfies it.
type streamWriter interface {
	WriteJSON(v interface{}) error
}

// serveWs runs a streaming turn per inbound frame: node events as each stage
// starts and finishes, then one terminal result frame. The context is scoped
// to the connection so a client that hangs up tears down any in-flight turn.
func (c *chatController) serveWs(conn *websocket.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleStreamFrame(ctx, cancel, conn, raw)
	}
}

// handleStreamFrame runs one streaming turn. A failed node-event write means
// the peer is gone, so the turn's context is cancelled mid-flight.
func (c *chatController) handleStreamFrame(ctx context.Context, cancel context.CancelFunc, w streamWriter, raw []byte) {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.writeJSON(w, dto.StreamResult{Error: "Invalid request payload"})
		return
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		c.writeJSON(w, dto.StreamResult{Error: err.Error()})
		return
	}

	res, err := c.service.StreamMessage(ctx, &req, func(ev dto.NodeEvent) {
		if !c.writeJSON(w, ev) {
			cancel()
		}
	})
	if err != nil {
		c.writeJSON(w, dto.StreamResult{Error: err.Error()})
		return
	}

	c.writeJSON(w, dto.StreamResult{
		Response: res.Response,
		Metadata: &res.Metadata,
	})
}

func (c *chatController) writeJSON(w streamWriter, v interface{}) bool {
	// A write error means the peer hung up; the read loop exits on its
	// next iteration.
	return w.WriteJSON(v) == nil
}
