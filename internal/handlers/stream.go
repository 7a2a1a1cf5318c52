package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"voice-intake/internal/logger"
	"voice-intake/internal/pipeline"
	"voice-intake/internal/textproc"
)

// StreamHandler handles WebSocket audio streaming. Binary frames are
// buffered until the client sends the END control message, then the
// recording runs through the transcription pipeline and the result is
// sent back on the same connection.
type StreamHandler struct {
	pipeline  *pipeline.Pipeline
	uploadDir string
	log       *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(p *pipeline.Pipeline, uploadDir string, log *logger.Logger) *StreamHandler {
	return &StreamHandler{pipeline: p, uploadDir: uploadDir, log: log.WithComponent("stream")}
}

// streamConn is the subset of the WebSocket connection the handler uses.
type streamConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type streamResponse struct {
	Transcription string `json:"transcription,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	SheetStatus   string `json:"sheets_status,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Handle processes one WebSocket connection.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	h.handle(c)
}

func (h *StreamHandler) handle(c streamConn) {
	defer c.Close()

	var (
		buffer      bytes.Buffer
		requestName string
		streamID    = uuid.New().String()
	)
	log := h.log.WithField("stream_id", streamID)
	log.Info("stream connection established")

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("stream read ended")
			break
		}

		if messageType == websocket.TextMessage {
			msg := string(message)
			if msg == "END" {
				break
			}
			if len(msg) > 0 && len(msg) < 200 {
				requestName = msg
			}
			continue
		}

		if messageType == websocket.BinaryMessage {
			buffer.Write(message)
		}
	}

	if buffer.Len() == 0 {
		log.Warn("no audio data received")
		h.reply(c, streamResponse{Error: "no audio data received"})
		return
	}

	name := textproc.SanitizeFilename(requestName)
	if name == "" {
		name = "stream_recording.webm"
	}

	tempPath := filepath.Join(h.uploadDir, streamID+".webm")
	if err := os.WriteFile(tempPath, buffer.Bytes(), 0644); err != nil {
		log.WithError(err).Error("failed to save stream buffer")
		h.reply(c, streamResponse{Error: "failed to save stream"})
		return
	}
	defer os.Remove(tempPath)

	// The recognizer run stays tied to the connection: a further read only
	// returns once the client disconnects, and that cancels the context so
	// an abandoned stream does not keep the recognizer or the store busy.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	res, err := h.pipeline.ProcessFile(ctx, tempPath, name)
	if err != nil {
		log.WithError(err).Error("stream transcription failed")
		h.reply(c, streamResponse{Error: "transcription failed"})
		return
	}

	h.reply(c, streamResponse{
		Transcription: res.Transcription,
		FileName:      res.FileName,
		SheetStatus:   res.SheetStatus,
	})
}

func (h *StreamHandler) reply(c streamConn, resp streamResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.log.WithError(err).Debug("failed to write stream reply")
	}
}
