package handlers

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"

	"voice-intake/internal/logger"
	"voice-intake/internal/sheets"
	"voice-intake/internal/webhook"
)

// WebhookHandler serves form-submission webhook deliveries.
type WebhookHandler struct {
	pipeline        *webhook.Pipeline
	store           *sheets.GoogleStore
	videoAskSheetID string
	webhookDir      string
	log             *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(p *webhook.Pipeline, store *sheets.GoogleStore, videoAskSheetID, webhookDir string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		pipeline:        p,
		store:           store,
		videoAskSheetID: videoAskSheetID,
		webhookDir:      webhookDir,
		log:             log.WithComponent("http"),
	}
}

// Handle ingests one webhook delivery from the provider named in the
// path. The response body is a plain text summary of the counters; a
// delivery that produced errors still carries the same summary shape.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	provider := c.Params("provider")
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).SendString("Empty request body")
	}

	raw := make(json.RawMessage, len(body))
	copy(raw, body)

	res := h.pipeline.Process(c.UserContext(), provider, raw)
	summary := fmt.Sprintf("Processed=%d, Skipped=%d, Errors=%d for email %s",
		res.Processed, res.Skipped, res.Errors, res.Email)

	// A failed store write for a decoded payload is a partial failure the
	// caller learns about from the counters, not from the status code.
	// Only an undecodable delivery is an internal failure.
	if res.Malformed {
		return c.Status(fiber.StatusInternalServerError).SendString(summary)
	}
	return c.SendString(summary)
}

// HandleTest runs the mapping over a built-in sample payload without
// touching the spreadsheet, so a deploy can be checked end to end.
func (h *WebhookHandler) HandleTest(c *fiber.Ctx) error {
	row := webhook.MapPayload(webhook.SamplePayload())
	return c.JSON(fiber.Map{
		"status":      "ok",
		"message":     "Sample payload mapped successfully",
		"mapped_data": row.Mapped(),
	})
}

// HandleValidate reports the health of every dependency the webhook
// path needs: API credentials, spreadsheet access, the backup
// directory, and the environment variables.
func (h *WebhookHandler) HandleValidate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	sheetAccess := false
	if h.videoAskSheetID != "" {
		_, err := h.store.Open(ctx, h.videoAskSheetID)
		sheetAccess = err == nil
	}

	dirOK := false
	if info, err := os.Stat(h.webhookDir); err == nil && info.IsDir() {
		dirOK = true
	}

	return c.JSON(fiber.Map{
		"google_sheets_client":   h.store.Ready(ctx),
		"videoask_sheet_access":  sheetAccess,
		"webhook_data_directory": dirOK,
		"environment_variables": fiber.Map{
			"GOOGLE_SHEET_ID":           os.Getenv("GOOGLE_SHEET_ID") != "",
			"VIDEOASK_SHEET_ID":         os.Getenv("VIDEOASK_SHEET_ID") != "",
			"GOOGLE_SHEETS_CREDENTIALS": os.Getenv("GOOGLE_SHEETS_CREDENTIALS") != "",
		},
	})
}
