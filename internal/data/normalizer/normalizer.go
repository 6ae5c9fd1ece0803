// Package normalizer turns tabular or API activity records into sorted,
// validated model.Activity batches.
package normalizer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// Normalizer holds the settings shared by every row of a load.
type Normalizer struct {
	location   *time.Location
	strategies []Strategy
	newID      func() string
	now        func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLocation sets the zone for timestamps that carry no offset and for
// day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.location = loc
		}
	}
}

// WithStrategies replaces the timestamp decoding order.
func WithStrategies(strategies []Strategy) Option {
	return func(n *Normalizer) {
		if len(strategies) > 0 {
			n.strategies = strategies
		}
	}
}

// WithIDGenerator replaces the uuid based activity ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) {
		if gen != nil {
			n.newID = gen
		}
	}
}

// WithClock sets the function used to stamp LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a Normalizer. Without options it reads timestamps in UTC.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		location:   time.UTC,
		strategies: DefaultStrategies(),
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Location returns the configured zone.
func (n *Normalizer) Location() *time.Location {
	return n.location
}

// fields holds the raw text of one input record.
type fields struct {
	id                        string
	start, end, typ, duration string
	application, url, title   string
	category, details         string
	username                  string
	hasUsername               bool
	durationSeconds           float64 // pre-typed source value, used when duration is empty
	rejected                  string  // set when the parser could not read the record
}

// NormalizeTable normalizes a table with a header row. source is recorded on
// the batch for diagnostics. A table with neither headers nor rows, such as
// an empty JSON array, is an empty result rather than a schema problem.
func (n *Normalizer) NormalizeTable(t model.Table, source string) (*model.ParsedBatch, error) {
	if len(t.Headers) == 0 {
		if len(t.Rows) == 0 {
			return nil, &EmptyResultError{}
		}
		return nil, &SchemaError{Reason: "no header row"}
	}
	cols, err := ResolveColumns(t.Headers)
	if err != nil {
		return nil, err
	}
	util.LogDebugf("Resolved %d of %d columns for %s", len(cols), len(aliases), source)

	records := make([]fields, len(t.Rows))
	for i, row := range t.Rows {
		cell := func(f Field) string { return t.Cell(row, cols.Index(f)) }
		records[i] = fields{
			start:       cell(FieldStart),
			end:         cell(FieldEnd),
			typ:         cell(FieldType),
			duration:    cell(FieldDuration),
			application: cell(FieldApplication),
			url:         cell(FieldURL),
			title:       cell(FieldTitle),
			category:    cell(FieldCategory),
			details:     cell(FieldDetails),
			username:    cell(FieldUsername),
			hasUsername: cols.Has(FieldUsername),
			rejected:    t.Rejected[i],
		}
	}
	return n.build(records, source)
}

// NormalizeRecords normalizes records from the activity API. The feed is
// single user: username is attached to every activity and left empty when
// not given.
func (n *Normalizer) NormalizeRecords(records []model.RawActivity, username, source string) (*model.ParsedBatch, error) {
	username = strings.TrimSpace(username)
	rows := make([]fields, len(records))
	for i, r := range records {
		rows[i] = fields{
			id:              strings.TrimSpace(r.ID),
			start:           r.StartTime,
			end:             r.EndTime,
			typ:             r.Type,
			application:     strings.TrimSpace(r.ApplicationName),
			url:             strings.TrimSpace(r.URL),
			title:           strings.TrimSpace(r.Title),
			category:        strings.TrimSpace(r.Category),
			details:         strings.TrimSpace(r.Details),
			username:        username,
			durationSeconds: r.DurationMinutes * 60,
		}
	}
	return n.build(rows, source)
}

func (n *Normalizer) build(records []fields, source string) (*model.ParsedBatch, error) {
	batch := &model.ParsedBatch{
		Activities:    make([]model.Activity, 0, len(records)),
		TotalRowsSeen: len(records),
		Source:        source,
		LoadedAt:      n.now(),
	}

	for i, r := range records {
		row := i + 1
		activity, warnings, ok := n.normalizeRow(r)
		for _, reason := range warnings {
			batch.Warnings = append(batch.Warnings, model.RowWarning{Row: row, Reason: reason, Fatal: !ok})
		}
		if !ok {
			util.LogDebugf("Skip row %d of %s: %s", row, source, strings.Join(warnings, "; "))
			continue
		}
		batch.Activities = append(batch.Activities, activity)
	}

	batch.RowsKept = len(batch.Activities)
	if batch.RowsKept == 0 {
		return nil, &EmptyResultError{RowsSeen: batch.TotalRowsSeen}
	}

	sort.SliceStable(batch.Activities, func(i, j int) bool {
		return batch.Activities[i].StartTime.Before(batch.Activities[j].StartTime)
	})
	batch.CoveredRange = n.coveredRange(batch.Activities)

	util.LogDebugf("Normalized %s: %d rows seen, %d kept, %d warnings",
		source, batch.TotalRowsSeen, batch.RowsKept, len(batch.Warnings))
	return batch, nil
}

// normalizeRow returns the activity and any warnings. ok is false when the
// row must be dropped.
func (n *Normalizer) normalizeRow(r fields) (model.Activity, []string, bool) {
	if r.rejected != "" {
		return model.Activity{}, []string{r.rejected}, false
	}
	var warnings []string

	start, okStart := ParseTimestamp(r.start, n.location, n.strategies)
	end, okEnd := ParseTimestamp(r.end, n.location, n.strategies)
	if !okStart {
		warnings = append(warnings, fmt.Sprintf("unparseable start time %q", r.start))
	}
	if !okEnd {
		warnings = append(warnings, fmt.Sprintf("unparseable end time %q", r.end))
	}
	if !okStart || !okEnd {
		return model.Activity{}, warnings, false
	}
	if end.Before(start) {
		warnings = append(warnings, fmt.Sprintf("end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)))
		return model.Activity{}, warnings, false
	}

	seconds := r.durationSeconds
	if r.duration != "" {
		parsed, ok := ParseDuration(r.duration)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unparseable duration %q", r.duration))
		}
		seconds = parsed
	}

	a := model.Activity{
		ID:              r.id,
		Type:            model.ClassifyType(r.typ),
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: durationMinutes(start, end, seconds),
		ApplicationName: r.application,
		URL:             r.url,
		Category:        r.category,
		Details:         r.details,
		Username:        r.username,
	}
	if a.ID == "" {
		a.ID = n.newID()
	}
	if r.hasUsername && a.Username == "" {
		a.Username = model.UnknownUser
	}
	a.Title = title(r)
	return a, warnings, true
}

// durationMinutes prefers a positive reported duration and falls back to the
// elapsed time. Sub-minute spans count as one minute.
func durationMinutes(start, end time.Time, reportedSeconds float64) int {
	var minutes int
	if reportedSeconds > 0 {
		minutes = int(math.Round(reportedSeconds / 60))
	} else {
		minutes = int(math.Round(end.Sub(start).Minutes()))
	}
	if minutes == 0 && !start.Equal(end) {
		return 1
	}
	return minutes
}

func title(r fields) string {
	if r.title != "" {
		return r.title
	}
	if r.application != "" {
		return r.application
	}
	if r.url != "" {
		if d := model.ExtractDomain(r.url); d != "" {
			return d
		}
		return r.url
	}
	if t := strings.TrimSpace(r.typ); t != "" {
		return t
	}
	return model.UnknownActivity
}

func (n *Normalizer) coveredRange(activities []model.Activity) model.DateRange {
	first := activities[0].StartTime
	last := activities[0].EndTime
	for _, a := range activities[1:] {
		if a.EndTime.After(last) {
			last = a.EndTime
		}
	}
	return model.DateRange{
		Start: floorDay(first, n.location),
		End:   floorDay(last, n.location),
	}
}

func floorDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
