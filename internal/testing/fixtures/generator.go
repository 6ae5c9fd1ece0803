// Package fixtures writes synthetic activity exports for tests.
package fixtures

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// TimestampLayout is the zone-less layout exports are written with.
const TimestampLayout = "2006-01-02 15:04:05"

// Merged totals of Workday.
const (
	WorkdayActiveMinutes = 240
	WorkdayIdleMinutes   = 60
)

var csvHeader = []string{"Start Time", "End Time", "Activity Type", "Duration", "Website", "Application", "Username", "Title"}

// ExportRow is one activity as it appears in an export file.
type ExportRow struct {
	Start       time.Time
	End         time.Time
	Type        string // Web, Application or Idle
	Website     string
	Application string
	Username    string
	Title       string
}

// Seconds is the reported duration.
func (r ExportRow) Seconds() int {
	return int(r.End.Sub(r.Start) / time.Second)
}

type jsonRow struct {
	StartTime   string `json:"StartTime"`
	EndTime     string `json:"EndTime"`
	Type        string `json:"Type"`
	Duration    int    `json:"Duration"`
	Website     string `json:"Website,omitempty"`
	Application string `json:"Application,omitempty"`
	User        string `json:"User,omitempty"`
	Title       string `json:"Title,omitempty"`
}

func (r ExportRow) json() jsonRow {
	return jsonRow{
		StartTime:   r.Start.Format(TimestampLayout),
		EndTime:     r.End.Format(TimestampLayout),
		Type:        r.Type,
		Duration:    r.Seconds(),
		Website:     r.Website,
		Application: r.Application,
		User:        r.Username,
		Title:       r.Title,
	}
}

// Workday is one user's day: web and editor use overlapping in the morning,
// an idle lunch and an afternoon terminal block.
func Workday(user string, day time.Time) []ExportRow {
	at := func(h, m int) time.Time {
		return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}
	return []ExportRow{
		{Start: at(9, 0), End: at(10, 0), Type: "Web", Website: "docs.example.com", Username: user, Title: "Docs"},
		{Start: at(9, 30), End: at(11, 0), Type: "Application", Application: "editor", Username: user, Title: "Editor"},
		{Start: at(12, 0), End: at(13, 0), Type: "Idle", Username: user, Title: "Lunch"},
		{Start: at(13, 0), End: at(15, 0), Type: "Application", Application: "terminal", Username: user, Title: "Terminal"},
	}
}

// TestDataGenerator writes export files below a base directory.
type TestDataGenerator struct {
	baseDir string
}

func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{baseDir: baseDir}
}

func (g *TestDataGenerator) GetBaseDir() string {
	return g.baseDir
}

// GenerateWorkday writes Workday as CSV.
func (g *TestDataGenerator) GenerateWorkday(name, user string, day time.Time) (string, error) {
	return g.WriteCSV(name, Workday(user, day))
}

// GenerateLargeDataset writes n back to back five minute activities cycling
// through Web, Application and Idle as JSONL.
func (g *TestDataGenerator) GenerateLargeDataset(name, user string, start time.Time, n int) (string, error) {
	types := []string{"Web", "Application", "Idle"}
	rows := make([]ExportRow, 0, n)
	for i := 0; i < n; i++ {
		from := start.Add(time.Duration(i) * 5 * time.Minute)
		row := ExportRow{
			Start:    from,
			End:      from.Add(5 * time.Minute),
			Type:     types[i%len(types)],
			Username: user,
			Title:    fmt.Sprintf("entry %d", i),
		}
		switch row.Type {
		case "Web":
			row.Website = fmt.Sprintf("site%d.example.com", i%4)
		case "Application":
			row.Application = fmt.Sprintf("app%d", i%3)
		}
		rows = append(rows, row)
	}
	return g.WriteJSONL(name, rows)
}

// CreateEmptyExport writes a CSV with a header and no rows.
func (g *TestDataGenerator) CreateEmptyExport(name string) (string, error) {
	return g.WriteCSV(name, nil)
}

func (g *TestDataGenerator) WriteCSV(name string, rows []ExportRow) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, r := range rows {
		record := []string{
			r.Start.Format(TimestampLayout),
			r.End.Format(TimestampLayout),
			r.Type,
			strconv.Itoa(r.Seconds()),
			r.Website,
			r.Application,
			r.Username,
			r.Title,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return g.write(name, buf.Bytes())
}

// WriteJSON writes rows as one JSON array.
func (g *TestDataGenerator) WriteJSON(name string, rows []ExportRow) (string, error) {
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.json())
	}
	data, err := sonic.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return g.write(name, data)
}

// WriteJSONL writes one JSON object per line.
func (g *TestDataGenerator) WriteJSONL(name string, rows []ExportRow) (string, error) {
	var buf bytes.Buffer
	for _, r := range rows {
		line, err := sonic.Marshal(r.json())
		if err != nil {
			return "", err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return g.write(name, buf.Bytes())
}

func (g *TestDataGenerator) write(name string, data []byte) (string, error) {
	path := filepath.Join(g.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// CleanupTestData removes the base directory.
func (g *TestDataGenerator) CleanupTestData() error {
	return os.RemoveAll(g.baseDir)
}
