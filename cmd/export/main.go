package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"voice-intake/internal/logger"
	"voice-intake/internal/webhook"
)

// export packs the local JSON backup snapshots into a single workbook,
// one sheet for transcripts and one for webhook contacts, for offline
// review when the spreadsheet is unavailable.

type transcriptSnapshot struct {
	Filename      string  `json:"filename"`
	Transcription string  `json:"transcription"`
	Timestamp     string  `json:"timestamp"`
	Duration      float64 `json:"duration"`
}

type webhookSnapshot struct {
	MappedData  map[string]string `json:"mapped_data"`
	ProcessedAt string            `json:"processed_at"`
}

func main() {
	transcriptDir := flag.String("transcripts", "transcripts", "directory of transcript snapshots")
	webhookDir := flag.String("webhooks", "webhook_data", "directory of webhook snapshots")
	output := flag.String("out", "voice-intake-export.xlsx", "output workbook path")
	flag.Parse()

	log := logger.New().WithComponent("export")

	f := excelize.NewFile()
	defer f.Close()

	transcripts, err := writeTranscriptSheet(f, *transcriptDir)
	if err != nil {
		log.WithError(err).Fatal("failed to export transcripts")
	}
	contacts, err := writeContactSheet(f, *webhookDir)
	if err != nil {
		log.WithError(err).Fatal("failed to export webhook contacts")
	}

	if err := f.SaveAs(*output); err != nil {
		log.WithError(err).Fatal("failed to save workbook")
	}
	log.WithField("output", *output).
		WithField("transcripts", transcripts).
		WithField("contacts", contacts).
		Info("export complete")
}

func writeTranscriptSheet(f *excelize.File, dir string) (int, error) {
	const sheet = "Transcripts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, err
	}
	if err := setRow(f, sheet, 1, []string{"Timestamp", "Audio Filename", "Transcribed Text", "Duration (s)"}); err != nil {
		return 0, err
	}

	snapshots, err := loadSnapshots[transcriptSnapshot](dir, "*_transcript.json")
	if err != nil {
		return 0, err
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Timestamp < snapshots[j].Timestamp })

	for i, s := range snapshots {
		row := []string{s.Timestamp, s.Filename, s.Transcription, fmt.Sprintf("%.1f", s.Duration)}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return 0, err
		}
	}
	return len(snapshots), nil
}

func writeContactSheet(f *excelize.File, dir string) (int, error) {
	const sheet = "Webhook Contacts"
	if _, err := f.NewSheet(sheet); err != nil {
		return 0, err
	}

	header := append([]string{}, webhook.ContactHeader...)
	header = append(header, "Processed At")
	if err := setRow(f, sheet, 1, header); err != nil {
		return 0, err
	}

	snapshots, err := loadSnapshots[webhookSnapshot](dir, "*.json")
	if err != nil {
		return 0, err
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].ProcessedAt < snapshots[j].ProcessedAt })

	for i, s := range snapshots {
		row := make([]string, 0, len(header))
		for _, col := range webhook.ContactHeader {
			row = append(row, s.MappedData[col])
		}
		row = append(row, s.ProcessedAt)
		if err := setRow(f, sheet, i+2, row); err != nil {
			return 0, err
		}
	}
	return len(snapshots), nil
}

func loadSnapshots[T any](dir, pattern string) ([]T, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []T
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var s T
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
