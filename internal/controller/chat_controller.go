package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	GetChat(ctx *fiber.Ctx) error
}

type chatController struct {
	service    service.IChatService
	middleware []fiber.Handler
}

// NewChatController mounts middleware (e.g. the per-user rate limiter) in
// front of the chat handler.
func NewChatController(service service.IChatService, middleware ...fiber.Handler) IChatController {
	return &chatController{service: service, middleware: middleware}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	handlers := append(append([]fiber.Handler{}, c.middleware...), c.Chat)
	r.Post("/chat", handlers...)
	r.Get("/chats/:id", c.GetChat)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Question = strings.TrimSpace(req.Question)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

func (c *chatController) GetChat(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat id")
	}

	res, err := c.service.GetRecord(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrChatNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat", res))
}
