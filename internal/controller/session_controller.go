package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	GetProviders(ctx *fiber.Ctx) error
	SetProviders(ctx *fiber.Ctx) error
	ClearProviders(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
	GetChats(ctx *fiber.Ctx) error
	ResetModels(ctx *fiber.Ctx) error
}

type sessionController struct {
	chatService     service.IChatService
	providerService service.IProviderService
}

func NewSessionController(chatService service.IChatService, providerService service.IProviderService) ISessionController {
	return &sessionController{chatService: chatService, providerService: providerService}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions/:id")
	h.Get("/providers", c.GetProviders)
	h.Put("/providers", c.SetProviders)
	h.Delete("/providers", c.ClearProviders)
	h.Get("/history", c.GetHistory)
	h.Delete("/history", c.ClearHistory)
	h.Get("/chats", c.GetChats)

	r.Delete("/providers/cache", c.ResetModels)
}

func sessionID(ctx *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(ctx.Params("id"))
	if id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "session id is required")
	}
	return id, nil
}

func (c *sessionController) GetProviders(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.providerService.GetProviders(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get providers", res))
}

func (c *sessionController) SetProviders(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.SetProvidersRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.ReasoningProvider = strings.ToLower(strings.TrimSpace(req.ReasoningProvider))
	req.GenerationProvider = strings.ToLower(strings.TrimSpace(req.GenerationProvider))

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.providerService.SetProviders(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set providers", res))
}

func (c *sessionController) ClearProviders(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.providerService.ClearProviders(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success clear providers", res))
}

func (c *sessionController) GetHistory(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetHistory(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *sessionController) ClearHistory(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	if err := c.chatService.ClearHistory(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear history", nil))
}

func (c *sessionController) GetChats(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetRecords(ctx.UserContext(), id, ctx.QueryInt("limit", 20), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chats", res))
}

func (c *sessionController) ResetModels(ctx *fiber.Ctx) error {
	if err := c.providerService.ResetModels(ctx.Query("provider")); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset model cache", nil))
}
