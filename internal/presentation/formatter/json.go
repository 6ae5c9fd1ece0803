package formatter

import (
	"io"

	"github.com/penwyp/go-activity-timeline/internal/core/report"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatSummary(w io.Writer, s *report.Summary) error {
	return WriteJSON(w, s)
}
