package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"supportdesk/internal/model"
)

// Column headers of the support-message CSV export.
const (
	colUserID    = "User ID"
	colTimestamp = "Timestamp (UTC)"
	colBody      = "Message Body"
)

// ImportResult summarizes one bulk CSV import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// ImportCSV reads the export and persists each row through the same
// validated insert path as normal intake. A failing row is recorded and
// skipped, never fatal to the batch. Bulk-imported messages generate no
// auto-reply and no broadcast.
//
// The Timestamp (UTC) column is ignored: the store assigns timestamps
// at persistence time.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read csv header: %w", err)
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	result := ImportResult{Errors: []string{}}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		userID := field(record, colIndex, colUserID)
		body := field(record, colIndex, colBody)
		if userID == "" || body == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing required field", line))
			continue
		}

		msg := model.Message{
			Sender:     userID,
			CustomerID: userID,
			Text:       body,
		}
		if _, err := s.insert(ctx, msg); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		result.Imported++
	}

	log.Printf("[import] ✅ Imported %d messages (%d errors)", result.Imported, len(result.Errors))
	return result, nil
}

// field reads one named column from a record, tolerating short rows.
func field(record []string, colIndex map[string]int, name string) string {
	i, ok := colIndex[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
