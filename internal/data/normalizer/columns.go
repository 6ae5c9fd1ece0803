package normalizer

import (
	"strings"
)

// Field is a semantic column of an activity table.
type Field string

const (
	FieldStart       Field = "start"
	FieldEnd         Field = "end"
	FieldType        Field = "type"
	FieldDuration    Field = "duration"
	FieldApplication Field = "application"
	FieldURL         Field = "url"
	FieldTitle       Field = "title"
	FieldCategory    Field = "category"
	FieldUsername    Field = "username"
	FieldDetails     Field = "details"
)

var requiredFields = []Field{FieldStart, FieldEnd, FieldType}

// Aliases in priority order. Matching ignores case and surrounding space.
var aliases = map[Field][]string{
	FieldStart:       {"Start UTC Timestamp", "Start Time", "StartTime", "start_time", "Start", "Begin", "From"},
	FieldEnd:         {"End UTC Timestamp", "End Time", "EndTime", "end_time", "End", "Finish", "To"},
	FieldType:        {"Activity Type", "ActivityType", "activity_type", "Type", "Kind", "Event Type"},
	FieldDuration:    {"Duration", "Duration (s)", "duration_seconds", "Active Time", "Elapsed"},
	FieldApplication: {"Application", "Application Name", "applicationName", "App", "Program", "Process"},
	FieldURL:         {"Website", "URL", "Url", "Domain", "Site", "Web Page"},
	FieldTitle:       {"Title", "Window Title", "Description", "Name"},
	FieldCategory:    {"Category", "Productivity", "Group"},
	FieldUsername:    {"Username", "User", "User Name", "Employee", "Login"},
	FieldDetails:     {"Details", "Notes", "Comment"},
}

// Columns maps each resolved field to its header index.
type Columns map[Field]int

// Has reports whether f was resolved.
func (c Columns) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

// Index returns the column of f, or -1.
func (c Columns) Index(f Field) int {
	if i, ok := c[f]; ok {
		return i
	}
	return -1
}

// ResolveColumns finds the best header for every field. For each field the
// first alias that matches any header wins. A *SchemaError lists the
// mandatory fields that could not be resolved.
func ResolveColumns(headers []string) (Columns, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := normalizeHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	cols := make(Columns)
	for field, names := range aliases {
		for _, name := range names {
			if i, ok := index[normalizeHeader(name)]; ok {
				cols[field] = i
				break
			}
		}
	}

	var missing []string
	for _, f := range requiredFields {
		if !cols.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return cols, &SchemaError{Missing: missing}
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}
