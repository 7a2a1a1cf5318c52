package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"voice-intake/internal/logger"
	"voice-intake/internal/pipeline"
)

// TranscribeHandler serves base64 audio uploads.
type TranscribeHandler struct {
	pipeline *pipeline.Pipeline
	log      *logger.Logger
}

// NewTranscribeHandler creates a new transcribe handler.
func NewTranscribeHandler(p *pipeline.Pipeline, log *logger.Logger) *TranscribeHandler {
	return &TranscribeHandler{pipeline: p, log: log.WithComponent("http")}
}

type transcribeRequest struct {
	FileData string `json:"file_data"`
	FileName string `json:"file_name"`
}

// Handle processes one upload request.
func (h *TranscribeHandler) Handle(c *fiber.Ctx) error {
	var req transcribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON body",
		})
	}
	if req.FileData == "" || req.FileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing file_data or file_name",
		})
	}

	res, err := h.pipeline.ProcessBase64(c.UserContext(), req.FileData, req.FileName)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidEncoding) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid base64 audio data",
			})
		}
		var te *pipeline.TranscriptionError
		if errors.As(err, &te) {
			h.log.WithError(err).Error("transcription failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Transcription failed",
			})
		}
		h.log.WithError(err).Error("transcribe request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"transcription":  res.Transcription,
		"fileName":       res.FileName,
		"sheets_status":  res.SheetStatus,
		"sheet_id":       h.pipeline.SheetID(),
		"worksheet_name": h.pipeline.WorksheetName(),
	})
}
