package handlers

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"voice-intake/internal/logger"
	"voice-intake/internal/storage"
)

// StatusHandler serves health, metrics, and transcript listing routes
// backed by the local metadata database.
type StatusHandler struct {
	db      *storage.MetadataDB
	started time.Time
	log     *logger.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(db *storage.MetadataDB, log *logger.Logger) *StatusHandler {
	return &StatusHandler{db: db, started: time.Now(), log: log.WithComponent("http")}
}

// Health is the liveness probe.
func (h *StatusHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

// Status reports processing totals and uptime.
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	transcripts, webhookEvents, err := h.db.Counts()
	if err != nil {
		h.log.WithError(err).Error("failed to read counters")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read counters"})
	}
	return c.JSON(fiber.Map{
		"status":            "ok",
		"uptime_seconds":    int(time.Since(h.started).Seconds()),
		"transcripts_total": transcripts,
		"webhook_events":    webhookEvents,
	})
}

// Metrics emits the counters as plain text gauges.
func (h *StatusHandler) Metrics(c *fiber.Ctx) error {
	transcripts, webhookEvents, err := h.db.Counts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("metrics unavailable")
	}
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.SendString(fmt.Sprintf(
		"transcripts_total %d\nwebhook_events_total %d\nuptime_seconds %d\n",
		transcripts, webhookEvents, int(time.Since(h.started).Seconds()),
	))
}

// ListTranscripts returns the most recent transcript metadata rows.
func (h *StatusHandler) ListTranscripts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	transcripts, err := h.db.ListTranscripts(limit)
	if err != nil {
		h.log.WithError(err).Error("failed to list transcripts")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list transcripts"})
	}
	if transcripts == nil {
		transcripts = []storage.TranscriptMeta{}
	}
	return c.JSON(transcripts)
}

// TranscriptText returns the backed-up transcript snapshot for one id.
func (h *StatusHandler) TranscriptText(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transcript id"})
	}

	meta, err := h.db.GetTranscript(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transcript not found"})
	}
	if meta.BackupPath == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transcript snapshot not found"})
	}

	content, err := os.ReadFile(meta.BackupPath)
	if err != nil {
		h.log.WithError(err).Error("failed to read transcript snapshot")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read transcript snapshot"})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(content)
}
