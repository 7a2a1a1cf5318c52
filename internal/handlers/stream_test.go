package handlers

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofiber/websocket/v2"

	"voice-intake/internal/backup"
	"voice-intake/internal/logger"
	"voice-intake/internal/pipeline"
	"voice-intake/internal/types"
)

type scriptedMessage struct {
	messageType int
	data        []byte
}

// fakeStreamConn replays a scripted message sequence; once drained,
// every further read reports a closed connection.
type fakeStreamConn struct {
	mu       sync.Mutex
	scripted []scriptedMessage
	idx      int
	writes   [][]byte
}

func (c *fakeStreamConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idx >= len(c.scripted) {
		return 0, nil, io.EOF
	}
	m := c.scripted[c.idx]
	c.idx++
	return m.messageType, m.data, nil
}

func (c *fakeStreamConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	return nil
}

func (c *fakeStreamConn) Close() error { return nil }

func (c *fakeStreamConn) lastReply(t *testing.T) streamResponse {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.writes) == 0 {
		t.Fatal("no reply written to the connection")
	}
	var resp streamResponse
	if err := json.Unmarshal(c.writes[len(c.writes)-1], &resp); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	return resp
}

type recordingEngine struct {
	result *types.ASRResult
	err    error
	block  bool
	ctxErr error
}

func (e *recordingEngine) Transcribe(ctx context.Context, _ string) (*types.ASRResult, error) {
	if e.block {
		<-ctx.Done()
		e.ctxErr = ctx.Err()
		return nil, ctx.Err()
	}
	return e.result, e.err
}

func newStreamHandler(t *testing.T, engine *recordingEngine) *StreamHandler {
	t.Helper()
	dir := t.TempDir()
	bw, err := backup.NewWriter(filepath.Join(dir, "transcripts"), filepath.Join(dir, "webhooks"))
	if err != nil {
		t.Fatalf("backup writer: %v", err)
	}
	p := pipeline.New(engine, nil, "", "TRANSCRIPT FINAL", dir, bw, nil, logger.New())
	return NewStreamHandler(p, dir, logger.New())
}

func streamScript(name string, audio []byte) []scriptedMessage {
	return []scriptedMessage{
		{websocket.TextMessage, []byte(name)},
		{websocket.BinaryMessage, audio},
		{websocket.TextMessage, []byte("END")},
	}
}

func TestStreamHandler_TranscribesBufferedAudio(t *testing.T) {
	engine := &recordingEngine{result: &types.ASRResult{Text: "hello from the stream"}}
	h := newStreamHandler(t, engine)
	conn := &fakeStreamConn{scripted: streamScript("talk.webm", []byte("audio-bytes"))}

	h.handle(conn)

	resp := conn.lastReply(t)
	if resp.Transcription != "Hello from the stream." {
		t.Errorf("Transcription = %q", resp.Transcription)
	}
	if resp.FileName != "talk.webm" {
		t.Errorf("FileName = %q", resp.FileName)
	}
	if resp.SheetStatus != types.SheetNotAttempted {
		t.Errorf("SheetStatus = %q", resp.SheetStatus)
	}
}

func TestStreamHandler_DisconnectCancelsTranscription(t *testing.T) {
	engine := &recordingEngine{block: true}
	h := newStreamHandler(t, engine)
	// After END the script is drained, so the lifecycle read reports the
	// connection closed while the recognizer is still running.
	conn := &fakeStreamConn{scripted: streamScript("talk.webm", []byte("audio-bytes"))}

	h.handle(conn)

	if engine.ctxErr != context.Canceled {
		t.Fatalf("recognizer context error = %v, want context.Canceled", engine.ctxErr)
	}
	resp := conn.lastReply(t)
	if resp.Error == "" {
		t.Error("expected an error reply for the cancelled run")
	}
}

func TestStreamHandler_NoAudioData(t *testing.T) {
	engine := &recordingEngine{result: &types.ASRResult{Text: "unused"}}
	h := newStreamHandler(t, engine)
	conn := &fakeStreamConn{scripted: []scriptedMessage{{websocket.TextMessage, []byte("END")}}}

	h.handle(conn)

	resp := conn.lastReply(t)
	if resp.Error != "no audio data received" {
		t.Errorf("Error = %q", resp.Error)
	}
}
