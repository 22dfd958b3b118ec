package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"
)

type IActivityController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Heartbeat(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
	ListActive(ctx *fiber.Ctx) error
}

type activityController struct {
	service service.IActivityService
}

func NewActivityController(service service.IActivityService) IActivityController {
	return &activityController{service: service}
}

func (c *activityController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/activity")
	h.Post("/start", c.Start)
	h.Post("/heartbeat", c.Heartbeat)
	h.Post("/end", c.End)
	h.Get("/sessions", c.ListActive)
}

func parseActivity(ctx *fiber.Ctx) (*dto.ActivityRequest, error) {
	var req dto.ActivityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *activityController) Start(ctx *fiber.Ctx) error {
	req, err := parseActivity(ctx)
	if err != nil {
		return err
	}
	if err := c.service.StartSession(ctx.UserContext(), req.UserId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success start session", nil))
}

func (c *activityController) Heartbeat(ctx *fiber.Ctx) error {
	req, err := parseActivity(ctx)
	if err != nil {
		return err
	}
	if err := c.service.Heartbeat(ctx.UserContext(), req.UserId); err != nil {
		if errors.Is(err, service.ErrSessionExpired) {
			return fiber.NewError(fiber.StatusUnauthorized, "Session expired")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update activity", nil))
}

func (c *activityController) End(ctx *fiber.Ctx) error {
	var req dto.EndSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := c.service.EndSession(ctx.UserContext(), req.UserId, req.SessionIds); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success end session", nil))
}

func (c *activityController) ListActive(ctx *fiber.Ctx) error {
	res, err := c.service.ActiveSessions(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get active sessions", res))
}
