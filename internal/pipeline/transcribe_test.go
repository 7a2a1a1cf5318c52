package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"voice-intake/internal/backup"
	"voice-intake/internal/logger"
	"voice-intake/internal/sheets"
	"voice-intake/internal/types"
)

type fakeEngine struct {
	result *types.ASRResult
	err    error
	calls  int
}

func (e *fakeEngine) Transcribe(_ context.Context, _ string) (*types.ASRResult, error) {
	e.calls++
	return e.result, e.err
}

type memStore struct {
	spreadsheet *memSpreadsheet
	openErr     error
	opens       int
}

func (s *memStore) Open(_ context.Context, _ string) (sheets.Spreadsheet, error) {
	s.opens++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.spreadsheet, nil
}

type memSpreadsheet struct {
	worksheets map[string]*memWorksheet
}

func (f *memSpreadsheet) Worksheet(_ context.Context, name string) (sheets.Worksheet, error) {
	ws, ok := f.worksheets[name]
	if !ok {
		return nil, &sheets.StoreError{Kind: sheets.KindNotFound, Op: "resolve worksheet", Err: fmt.Errorf("no worksheet %q", name)}
	}
	return ws, nil
}

func (f *memSpreadsheet) AddWorksheet(_ context.Context, name string, rows, cols int) (sheets.Worksheet, error) {
	ws := &memWorksheet{}
	f.worksheets[name] = ws
	return ws, nil
}

type memWorksheet struct {
	rows [][]string
}

func (w *memWorksheet) Rows(_ context.Context) ([][]string, error) { return w.rows, nil }

func (w *memWorksheet) ColumnValues(_ context.Context, col int) ([]string, error) {
	var values []string
	for _, row := range w.rows {
		if col-1 < len(row) {
			values = append(values, row[col-1])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}

func (w *memWorksheet) AppendRow(_ context.Context, values []string) error {
	row := make([]string, len(values))
	copy(row, values)
	w.rows = append(w.rows, row)
	return nil
}

func (w *memWorksheet) UpdateCell(_ context.Context, row, col int, value string) error {
	w.rows[row-1][col-1] = value
	return nil
}

func newTestPipeline(t *testing.T, engine *fakeEngine, store sheets.Store, sheetID string) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		t.Fatal(err)
	}
	bw, err := backup.NewWriter(filepath.Join(dir, "transcripts"), filepath.Join(dir, "webhooks"))
	if err != nil {
		t.Fatalf("backup writer: %v", err)
	}
	p := New(engine, store, sheetID, "TRANSCRIPT FINAL", uploadDir, bw, nil, logger.New())
	return p, uploadDir
}

func goodEngine() *fakeEngine {
	return &fakeEngine{result: &types.ASRResult{
		Text:     "hello world. this is a test",
		Language: "en",
		Duration: 1.9,
	}}
}

func audioPayload() string {
	return base64.StdEncoding.EncodeToString([]byte("fake-audio-bytes"))
}

func TestProcessBase64_Success(t *testing.T) {
	sp := &memSpreadsheet{worksheets: map[string]*memWorksheet{}}
	store := &memStore{spreadsheet: sp}
	p, uploadDir := newTestPipeline(t, goodEngine(), store, "sheet-id")

	res, err := p.ProcessBase64(context.Background(), audioPayload(), "My Recording (1).mp3")
	if err != nil {
		t.Fatalf("ProcessBase64: %v", err)
	}
	if res.Transcription != "Hello world. This is a test." {
		t.Errorf("Transcription = %q", res.Transcription)
	}
	if res.FileName != "MyRecording1.mp3" {
		t.Errorf("FileName = %q, want sanitized name", res.FileName)
	}
	if res.SheetStatus != types.SheetSuccess {
		t.Errorf("SheetStatus = %q", res.SheetStatus)
	}

	ws := sp.worksheets["TRANSCRIPT FINAL"]
	if ws == nil || len(ws.rows) != 2 {
		t.Fatalf("expected header + 1 row, got %#v", ws)
	}
	if ws.rows[1][1] != "MyRecording1.mp3" {
		t.Errorf("key column = %q", ws.rows[1][1])
	}

	assertNoTempFiles(t, uploadDir)
}

func TestProcessBase64_InvalidEncoding(t *testing.T) {
	store := &memStore{}
	p, uploadDir := newTestPipeline(t, goodEngine(), store, "sheet-id")

	_, err := p.ProcessBase64(context.Background(), "!!!not-base64!!!", "a.mp3")
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("err = %v, want ErrInvalidEncoding", err)
	}
	if store.opens != 0 {
		t.Error("invalid payload must not reach the store")
	}
	assertNoTempFiles(t, uploadDir)
}

func TestProcessBase64_EngineFailureCleansUp(t *testing.T) {
	engine := &fakeEngine{err: errors.New("model exploded")}
	p, uploadDir := newTestPipeline(t, engine, &memStore{}, "sheet-id")

	_, err := p.ProcessBase64(context.Background(), audioPayload(), "a.mp3")
	var te *TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TranscriptionError", err)
	}
	assertNoTempFiles(t, uploadDir)
}

func TestProcessBase64_NoSheetConfigured(t *testing.T) {
	store := &memStore{}
	p, _ := newTestPipeline(t, goodEngine(), store, "")

	res, err := p.ProcessBase64(context.Background(), audioPayload(), "a.mp3")
	if err != nil {
		t.Fatalf("ProcessBase64: %v", err)
	}
	if res.SheetStatus != types.SheetNotAttempted {
		t.Errorf("SheetStatus = %q, want not_attempted", res.SheetStatus)
	}
	if store.opens != 0 {
		t.Error("store must not be opened without a configured sheet")
	}
}

func TestProcessBase64_StoreFailureDowngraded(t *testing.T) {
	store := &memStore{openErr: &sheets.StoreError{Kind: sheets.KindRateLimit, Op: "open spreadsheet", Err: errors.New("quota")}}
	p, _ := newTestPipeline(t, goodEngine(), store, "sheet-id")

	res, err := p.ProcessBase64(context.Background(), audioPayload(), "a.mp3")
	if err != nil {
		t.Fatalf("store failure must not fail the request: %v", err)
	}
	if res.SheetStatus != types.SheetFailed {
		t.Errorf("SheetStatus = %q, want failed", res.SheetStatus)
	}
	if res.Transcription == "" {
		t.Error("transcript must survive a store failure")
	}
}

func TestProcessBase64_SequentialUpsertKeepsOneRow(t *testing.T) {
	sp := &memSpreadsheet{worksheets: map[string]*memWorksheet{}}
	store := &memStore{spreadsheet: sp}

	engine := &fakeEngine{result: &types.ASRResult{Text: "first version"}}
	p, _ := newTestPipeline(t, engine, store, "sheet-id")
	if _, err := p.ProcessBase64(context.Background(), audioPayload(), "a.mp3"); err != nil {
		t.Fatal(err)
	}

	engine.result = &types.ASRResult{Text: "second version"}
	if _, err := p.ProcessBase64(context.Background(), audioPayload(), "a.mp3"); err != nil {
		t.Fatal(err)
	}

	ws := sp.worksheets["TRANSCRIPT FINAL"]
	if len(ws.rows) != 2 {
		t.Fatalf("expected header + 1 row after repeat upload, got %d rows", len(ws.rows))
	}
	if ws.rows[1][2] != "Second version." {
		t.Errorf("transcript cell = %q, want latest text", ws.rows[1][2])
	}
}

func TestProcessBase64_WritesBackup(t *testing.T) {
	p, _ := newTestPipeline(t, goodEngine(), &memStore{}, "")
	if _, err := p.ProcessBase64(context.Background(), audioPayload(), "talk.mp3"); err != nil {
		t.Fatal(err)
	}
	snap := filepath.Join(p.backup.TranscriptDir(), "talk_transcript.json")
	if _, err := os.Stat(snap); err != nil {
		t.Fatalf("expected backup snapshot at %s: %v", snap, err)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}
