package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MetadataDB is the local SQLite index of processed events. The
// spreadsheet is the system of record; this database only serves the
// listing and status endpoints.
type MetadataDB struct {
	db *sql.DB
}

// TranscriptMeta is one row of the transcripts table.
type TranscriptMeta struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	WordCount   int       `json:"word_count"`
	SheetStatus string    `json:"sheet_status"`
	BackupPath  string    `json:"backup_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMetadataDB opens (or creates) the database at dbPath.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		sheet_status TEXT NOT NULL,
		backup_path TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS webhook_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		email TEXT,
		contact_name TEXT,
		processed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at);
	CREATE INDEX IF NOT EXISTS idx_webhook_events_created_at ON webhook_events(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveTranscript records one processed transcript.
func (m *MetadataDB) SaveTranscript(filename string, wordCount int, sheetStatus, backupPath string) error {
	_, err := m.db.Exec(
		`INSERT INTO transcripts (filename, word_count, sheet_status, backup_path, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		filename, wordCount, sheetStatus, backupPath, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save transcript metadata: %w", err)
	}
	return nil
}

// SaveWebhookEvent records the outcome counters of one webhook delivery.
func (m *MetadataDB) SaveWebhookEvent(provider, email, contactName string, processed, skipped, errs int) error {
	_, err := m.db.Exec(
		`INSERT INTO webhook_events (provider, email, contact_name, processed, skipped, errors, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		provider, email, contactName, processed, skipped, errs, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save webhook event: %w", err)
	}
	return nil
}

// ListTranscripts returns the most recent transcripts, newest first.
func (m *MetadataDB) ListTranscripts(limit int) ([]TranscriptMeta, error) {
	rows, err := m.db.Query(
		`SELECT id, filename, word_count, sheet_status, backup_path, created_at
		 FROM transcripts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	var out []TranscriptMeta
	for rows.Next() {
		var t TranscriptMeta
		var backup sql.NullString
		if err := rows.Scan(&t.ID, &t.Filename, &t.WordCount, &t.SheetStatus, &backup, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		t.BackupPath = backup.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTranscript returns the metadata row with the given id.
func (m *MetadataDB) GetTranscript(id int64) (*TranscriptMeta, error) {
	var t TranscriptMeta
	var backup sql.NullString
	err := m.db.QueryRow(
		`SELECT id, filename, word_count, sheet_status, backup_path, created_at
		 FROM transcripts WHERE id = ?`, id,
	).Scan(&t.ID, &t.Filename, &t.WordCount, &t.SheetStatus, &backup, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get transcript %d: %w", id, err)
	}
	t.BackupPath = backup.String
	return &t, nil
}

// Counts returns the totals shown by the status endpoints.
func (m *MetadataDB) Counts() (transcripts, webhookEvents int, err error) {
	if err = m.db.QueryRow(`SELECT COUNT(*) FROM transcripts`).Scan(&transcripts); err != nil {
		return 0, 0, fmt.Errorf("count transcripts: %w", err)
	}
	if err = m.db.QueryRow(`SELECT COUNT(*) FROM webhook_events`).Scan(&webhookEvents); err != nil {
		return 0, 0, fmt.Errorf("count webhook events: %w", err)
	}
	return transcripts, webhookEvents, nil
}

// Close closes the database connection.
func (m *MetadataDB) Close() error {
	return m.db.Close()
}
