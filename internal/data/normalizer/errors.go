package normalizer

import (
	"fmt"
	"strings"
)

// SchemaError means the input cannot be read as activities at all: a
// mandatory column could not be resolved or the text is not tabular.
type SchemaError struct {
	Missing []string // unresolved mandatory fields
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema error: missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("schema error: %s", e.Reason)
}

// EmptyResultError means no row produced a usable activity.
type EmptyResultError struct {
	RowsSeen int
}

func (e *EmptyResultError) Error() string {
	if e.RowsSeen == 0 {
		return "no activity rows found"
	}
	return fmt.Sprintf("none of %d rows had valid timestamps", e.RowsSeen)
}
