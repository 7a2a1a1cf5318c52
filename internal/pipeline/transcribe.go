package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"voice-intake/internal/backup"
	"voice-intake/internal/logger"
	"voice-intake/internal/sheets"
	"voice-intake/internal/storage"
	"voice-intake/internal/textproc"
	"voice-intake/internal/transcription"
	"voice-intake/internal/types"
)

// ErrInvalidEncoding reports a base64 payload that could not be decoded.
var ErrInvalidEncoding = errors.New("invalid base64 audio payload")

// TranscriptionError reports a failure of the external recognizer.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// TranscriptHeader is the header row of the transcript worksheet. The
// filename column is the upsert key.
var TranscriptHeader = []string{"Timestamp", "Audio Filename", "Transcribed Text"}

const keyColumn = 2 // "Audio Filename"

// Result is the terminal outcome of one successful pipeline run. A sheet
// write failure is reported in SheetStatus instead of failing the run,
// since the transcript itself was produced.
type Result struct {
	Transcription string
	FileName      string
	SheetStatus   string
}

// Pipeline turns uploaded audio into a normalized transcript row.
type Pipeline struct {
	engine        transcription.Engine
	store         sheets.Store
	sheetID       string
	worksheetName string
	uploadDir     string
	backup        *backup.Writer
	db            *storage.MetadataDB
	log           *logger.Logger
}

// New wires a transcription pipeline. sheetID may be empty, in which
// case the sheet write is skipped and reported as not attempted.
func New(engine transcription.Engine, store sheets.Store, sheetID, worksheetName, uploadDir string,
	bw *backup.Writer, db *storage.MetadataDB, log *logger.Logger) *Pipeline {
	return &Pipeline{
		engine:        engine,
		store:         store,
		sheetID:       sheetID,
		worksheetName: worksheetName,
		uploadDir:     uploadDir,
		backup:        bw,
		db:            db,
		log:           log.WithComponent("transcription"),
	}
}

// SheetID returns the configured transcript spreadsheet identifier.
func (p *Pipeline) SheetID() string { return p.sheetID }

// WorksheetName returns the configured transcript worksheet name.
func (p *Pipeline) WorksheetName() string { return p.worksheetName }

// ProcessBase64 decodes a base64 audio payload into a uniquely named
// temporary file, runs the pipeline over it, and deletes the temporary
// file on every exit path.
func (p *Pipeline) ProcessBase64(ctx context.Context, fileData, fileName string) (*Result, error) {
	safeName := textproc.SanitizeFilename(fileName)
	if safeName == "" {
		safeName = "uploaded_audio"
	}

	audio, err := base64.StdEncoding.DecodeString(fileData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	tempPath := filepath.Join(p.uploadDir, uuid.New().String()+transcription.InferExtension(safeName))
	if err := os.WriteFile(tempPath, audio, 0644); err != nil {
		return nil, fmt.Errorf("write temp audio file: %w", err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			p.log.WithError(err).Warn("failed to delete temp audio file")
		}
	}()

	return p.ProcessFile(ctx, tempPath, safeName)
}

// ProcessFile runs the pipeline over an existing audio file, recording
// the transcript under originalName. The file at path is left in place;
// callers own its lifecycle.
func (p *Pipeline) ProcessFile(ctx context.Context, path, originalName string) (*Result, error) {
	asr, err := p.engine.Transcribe(ctx, path)
	if err != nil {
		return nil, &TranscriptionError{Err: err}
	}

	text := textproc.Normalize(asr.Text)
	res := &Result{
		Transcription: text,
		FileName:      originalName,
		SheetStatus:   types.SheetNotAttempted,
	}

	if p.sheetID != "" {
		res.SheetStatus = p.writeSheet(ctx, originalName, text)
	} else {
		p.log.Info("no transcript sheet configured, skipping sheet write")
	}

	backupPath := ""
	if path, err := p.backup.SaveTranscript(originalName, text, asr.Duration); err != nil {
		p.log.WithError(err).Warn("transcript backup write failed")
	} else {
		backupPath = path
	}

	if p.db != nil {
		if err := p.db.SaveTranscript(originalName, asr.WordCount(), res.SheetStatus, backupPath); err != nil {
			p.log.WithError(err).Warn("failed to record transcript metadata")
		}
	}

	return res, nil
}

// writeSheet upserts the transcript row keyed by filename and maps the
// outcome onto a sheet status. One attempt; the caller still has the
// transcript either way.
func (p *Pipeline) writeSheet(ctx context.Context, filename, text string) string {
	row := []string{time.Now().Format("2006-01-02 15:04:05"), filename, text}

	sp, err := p.store.Open(ctx, p.sheetID)
	if err != nil {
		p.log.WithError(err).Error("failed to open transcript spreadsheet")
		return sheetStatusFor(err)
	}
	if err := sheets.Upsert(ctx, sp, p.worksheetName, TranscriptHeader, keyColumn, filename, row); err != nil {
		p.log.WithError(err).Error("transcript upsert failed")
		return sheetStatusFor(err)
	}
	return types.SheetSuccess
}

func sheetStatusFor(err error) string {
	var se *sheets.StoreError
	if errors.As(err, &se) {
		return types.SheetFailed
	}
	return types.SheetError
}
