package controller

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	ListChunks(ctx *fiber.Ctx) error
}

type documentController struct {
	publisher service.IPublisherService
	documents service.IDocumentService
}

func NewDocumentController(publisher service.IPublisherService, documents service.IDocumentService) IDocumentController {
	return &documentController{publisher: publisher, documents: documents}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	r.Post("/documents", c.Ingest)
	r.Get("/documents/chunks", c.ListChunks)
}

// ListChunks pages through the stored chunks of ?source=.
func (c *documentController) ListChunks(ctx *fiber.Ctx) error {
	source := strings.TrimSpace(ctx.Query("source"))
	if source == "" {
		return fiber.NewError(fiber.StatusBadRequest, "source is required")
	}

	res, err := c.documents.ListChunks(ctx.UserContext(), source, ctx.QueryInt("limit", 20), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list chunks", res))
}

// Ingest queues a document for chunking and embedding.
func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	payload, err := json.Marshal(dto.PublishIngestDocumentMessage{
		Source:     req.Source,
		Content:    req.Content,
		ImagePaths: req.ImagePaths,
	})
	if err != nil {
		return err
	}

	id, err := c.publisher.Publish(ctx.UserContext(), payload)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued", dto.IngestDocumentResponse{
		Source:    req.Source,
		MessageId: id,
	}))
}
