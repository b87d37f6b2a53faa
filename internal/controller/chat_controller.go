package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"fleetquery-be/internal/dto"
	"fleetquery-be/internal/pkg/serverutils"
	"fleetquery-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// streamTimeout bounds one full pipeline run, model calls included.
const streamTimeout = 5 * time.Minute

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v3/cot-chat")
	h.Post("stream", c.Stream)
	h.Get(":conversationId/history", c.History)
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	conversationId, err := uuid.Parse(ctx.Params("conversationId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversation id")
	}

	turns, err := c.chatService.History(ctx.Context(), conversationId, ctx.QueryInt("limit"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation history", turns))
}

// Stream answers one conversational message over SSE. Events are written
// as they happen; the HTTP status is always 200 once streaming starts, so
// failures surface as error events on the stream.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	var req dto.ChatStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The fasthttp request context is released once the handler
		// returns, so the pipeline runs on its own context.
		streamCtx, cancel := context.WithTimeout(context.Background(), streamTimeout)
		defer cancel()

		emit := func(event *dto.StreamEvent) error {
			payload, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return err
			}
			return w.Flush()
		}

		if err := c.chatService.StreamChat(streamCtx, &req, emit); err != nil {
			log.Printf("[ERROR] ChatController: stream ended with error: %v", err)
		}
	}))

	return nil
}
