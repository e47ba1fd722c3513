package handler

import (
	"errors"

	"github.com/arturoeanton/go-video-rag-ollama/internal/adapter/transcript"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
	"github.com/arturoeanton/go-video-rag-ollama/internal/service"
	"github.com/gofiber/fiber/v3"
)

// VideoHandler handles ingestion and index-status endpoints.
type VideoHandler struct {
	ingest     *service.IngestService
	store      port.VectorStore
	collection string
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(ingest *service.IngestService, store port.VectorStore, collection string) *VideoHandler {
	return &VideoHandler{ingest: ingest, store: store, collection: collection}
}

// Register sets up video routes.
func (h *VideoHandler) Register(router fiber.Router) {
	videos := router.Group("/videos")
	videos.Post("/", h.Ingest)
	videos.Get("/:id/status", h.Status)
	videos.Post("/:id/reindex", h.Reindex)
}

// Ingest indexes a video's transcript if it is not indexed yet.
func (h *VideoHandler) Ingest(c fiber.Ctx) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	videoID, err := transcript.ExtractVideoID(body.URL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	status, err := h.ingest.IngestIfNeeded(c.Context(), videoID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"video_id": videoID,
			"status":   status,
			"error":    err.Error(),
		})
	}

	code := fiber.StatusOK
	if status == service.StatusIngested {
		code = fiber.StatusCreated
	}
	return c.Status(code).JSON(fiber.Map{"video_id": videoID, "status": status})
}

// Status reports whether a video is indexed and how many chunks it has.
func (h *VideoHandler) Status(c fiber.Ctx) error {
	videoID := c.Params("id")

	count, err := h.store.CountVideo(c.Context(), h.collection, videoID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"video_id": videoID,
		"indexed":  count > 0,
		"chunks":   count,
	})
}

// Reindex drops and rebuilds a video's index from a fresh transcript.
func (h *VideoHandler) Reindex(c fiber.Ctx) error {
	videoID := c.Params("id")

	status, err := h.ingest.Reingest(c.Context(), videoID)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"video_id": videoID,
			"status":   status,
			"error":    err.Error(),
		})
	}
	return c.JSON(fiber.Map{"video_id": videoID, "status": status})
}

// statusForError maps pipeline sentinel errors to HTTP statuses so backend
// error shapes never leak to clients with the wrong code.
func statusForError(err error) int {
	switch {
	case errors.Is(err, port.ErrTranscriptUnavailable), errors.Is(err, port.ErrVideoNotIndexed), errors.Is(err, port.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrInvalidChunkConfig):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrEmbeddingUnavailable), errors.Is(err, port.ErrStoreUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, port.ErrSchemaConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
