// Package formatter renders reports for the terminal and for machines.
package formatter

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-activity-timeline/internal/core/report"
)

// Output formats accepted by New.
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatSummary = "summary"
)

// Formatter writes a grouped summary.
type Formatter interface {
	FormatSummary(w io.Writer, s *report.Summary) error
}

// New returns the formatter registered for name.
func New(name string) (Formatter, error) {
	switch name {
	case FormatTable, "":
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatSummary:
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", name)
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
