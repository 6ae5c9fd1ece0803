package formatter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

var csvHeaders = []string{"Group", "Label", "Merged Minutes", "Raw Minutes", "Activities", "Share"}

func (f *CSVFormatter) FormatSummary(w io.Writer, s *report.Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeaders); err != nil {
		return err
	}
	for _, g := range s.Groups {
		record := []string{
			g.Key,
			g.Label,
			fmt.Sprintf("%.2f", g.Minutes),
			fmt.Sprintf("%.2f", g.RawMinutes),
			fmt.Sprintf("%d", g.ActivityCount),
			fmt.Sprintf("%.4f", g.Share),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if s.IdleMinutes > 0 {
		idle := model.TypeIdle
		if err := cw.Write([]string{string(idle), idle.Label(), fmt.Sprintf("%.2f", s.IdleMinutes), "", "", ""}); err != nil {
			return err
		}
	}
	if s.UnattributedMinutes > 0 {
		share := ""
		if s.ActiveMinutes > 0 {
			share = fmt.Sprintf("%.4f", s.UnattributedMinutes/s.ActiveMinutes)
		}
		record := []string{model.UnattributedKey, model.UnattributedKey, fmt.Sprintf("%.2f", s.UnattributedMinutes), "", "", share}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
