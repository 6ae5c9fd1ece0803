package model

import (
	"strings"
	"time"
)

// DateRange is a span of whole days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RowWarning records why a single input row was skipped or degraded.
type RowWarning struct {
	Row    int    `json:"row"` // 1-based data row, header excluded
	Reason string `json:"reason"`
	Fatal  bool   `json:"fatal"` // true when the row was dropped
	Source string `json:"source,omitempty"`
}

// ParsedBatch is the immutable result of one ingestion pass.
type ParsedBatch struct {
	Activities    []Activity   `json:"activities"` // sorted by StartTime
	CoveredRange  DateRange    `json:"coveredRange"`
	TotalRowsSeen int          `json:"totalRowsSeen"`
	RowsKept      int          `json:"rowsKept"`
	Warnings      []RowWarning `json:"warnings,omitempty"`
	Source        string       `json:"source"`
	Generation    uint64       `json:"generation"`
	LoadedAt      time.Time    `json:"loadedAt"`
}

// RowsSkipped returns how many rows were seen but not kept.
func (b *ParsedBatch) RowsSkipped() int {
	return b.TotalRowsSeen - b.RowsKept
}

// HasUsernames reports whether any activity carries a username.
func (b *ParsedBatch) HasUsernames() bool {
	for _, a := range b.Activities {
		if a.Username != "" {
			return true
		}
	}
	return false
}

// FileEvent represents a file system event
type FileEvent struct {
	Path      string
	Operation string
}

// Table is tabular input with a header row. Rows may be ragged.
//
// Rejected maps a row index to the reason that record could not be read.
// Such a row is an empty placeholder so numbering follows the input.
type Table struct {
	Headers  []string       `json:"headers"`
	Rows     [][]string     `json:"rows"`
	Rejected map[int]string `json:"rejected,omitempty"`
}

// Cell returns the trimmed value at row/col, or "" when the row is short.
func (t Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
