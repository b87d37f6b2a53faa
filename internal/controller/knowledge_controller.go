package controller

import (
	"fleetquery-be/internal/dto"
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/pkg/serverutils"
	"fleetquery-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	IngestChunks(ctx *fiber.Ctx) error
	RegisterSchemaMetadata(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v3/knowledge")
	h.Use(serverutils.JwtMiddleware)
	h.Post("chunks", c.IngestChunks)
	h.Post("schema-metadata", c.RegisterSchemaMetadata)
	h.Get("stats", c.Stats)
}

func (c *knowledgeController) IngestChunks(ctx *fiber.Ctx) error {
	var req dto.IngestChunksRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	accepted, err := c.knowledgeService.IngestChunks(ctx.Context(), req.Chunks)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).
		JSON(serverutils.SuccessResponse("Chunks queued for ingestion", dto.IngestChunksResponse{Accepted: accepted}))
}

func (c *knowledgeController) RegisterSchemaMetadata(ctx *fiber.Ctx) error {
	var req dto.RegisterSchemaMetadataRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	meta := &entity.SchemaMetadata{
		Table:       req.Table,
		Columns:     req.Columns,
		Description: req.Description,
	}
	if err := c.knowledgeService.RegisterSchemaMetadata(ctx.Context(), meta); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Schema metadata registered", nil))
}

func (c *knowledgeController) Stats(ctx *fiber.Ctx) error {
	count, err := c.knowledgeService.ChunkCount(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Knowledge stats", dto.KnowledgeStatsResponse{ChunkCount: count}))
}
