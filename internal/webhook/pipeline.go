package webhook

import (
	"context"
	"encoding/json"

	"voice-intake/internal/backup"
	"voice-intake/internal/logger"
	"voice-intake/internal/sheets"
	"voice-intake/internal/storage"
)

// Result is the aggregate outcome of one webhook delivery. The caller
// always receives it, partial failure included; it never turns into an
// HTTP error beyond the summary counters.
type Result struct {
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Errors    int               `json:"errors"`
	Email     string            `json:"email"`
	Mapped    map[string]string `json:"mapped_data,omitempty"`

	// Malformed marks a payload that could not be decoded at all. Store
	// write failures for a decoded payload count in Errors but leave this
	// false; only Malformed deliveries are internal failures to the caller.
	Malformed bool `json:"-"`
}

// Pipeline processes form-response webhooks into appended contact rows.
type Pipeline struct {
	store         sheets.Store
	sheetID       string
	worksheetName string
	backup        *backup.Writer
	db            *storage.MetadataDB
	log           *logger.Logger
}

// NewPipeline wires a webhook pipeline. sheetID may be empty, in which
// case the store write is skipped without error.
func NewPipeline(store sheets.Store, sheetID, worksheetName string, bw *backup.Writer, db *storage.MetadataDB, log *logger.Logger) *Pipeline {
	return &Pipeline{
		store:         store,
		sheetID:       sheetID,
		worksheetName: worksheetName,
		backup:        bw,
		db:            db,
		log:           log.WithComponent("webhook"),
	}
}

// Process handles one raw webhook delivery from the named provider.
func (p *Pipeline) Process(ctx context.Context, provider string, raw json.RawMessage) Result {
	var res Result

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		p.log.WithError(err).Warn("malformed webhook payload")
		res.Errors = 1
		res.Malformed = true
		return res
	}
	res.Email = payload.Contact.Email

	if payload.EventType != EventTypeFormResponse {
		p.log.WithField("event_type", payload.EventType).Info("ignoring non form-response event")
		res.Skipped = 1
		p.record(provider, payload, res)
		return res
	}

	row := MapPayload(payload)
	res.Mapped = row.Mapped()

	if p.sheetID == "" {
		p.log.Info("no contact sheet configured, skipping sheet write")
		res.Processed = 1
	} else if err := p.appendRow(ctx, row); err != nil {
		p.log.WithError(err).Error("failed to append contact row")
		res.Errors = 1
	} else {
		res.Processed = 1
	}

	// Contact rows are append-only by design: a duplicate submission
	// from the same contact produces a new physical row.
	if _, err := p.backup.SaveWebhook(raw, row.Mapped(), payload.Contact.Name); err != nil {
		p.log.WithError(err).Warn("webhook backup write failed")
	}
	p.record(provider, payload, res)
	return res
}

func (p *Pipeline) appendRow(ctx context.Context, row ContactRow) error {
	sp, err := p.store.Open(ctx, p.sheetID)
	if err != nil {
		return err
	}
	return sheets.Append(ctx, sp, p.worksheetName, ContactHeader, row.Values())
}

func (p *Pipeline) record(provider string, payload Payload, res Result) {
	if p.db == nil {
		return
	}
	err := p.db.SaveWebhookEvent(provider, payload.Contact.Email, payload.Contact.Name,
		res.Processed, res.Skipped, res.Errors)
	if err != nil {
		p.log.WithError(err).Warn("failed to record webhook event")
	}
}
