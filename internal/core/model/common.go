package model

import "strings"

// ActivityType is the closed set of categories an activity can belong to.
type ActivityType string

const (
	TypeWebPage     ActivityType = "WebPage"
	TypeApplication ActivityType = "Application"
	TypeIdle        ActivityType = "Idle"
	TypeOther       ActivityType = "Other"
)

// Placeholder values used when the source leaves a field empty
const (
	UnknownUser     = "Unknown User"
	UnknownActivity = "Unknown Activity"
	UnattributedKey = "Unattributed"
)

// TypeStyle is the canonical display information for one activity type.
// Every renderer reads from this table instead of keeping its own copy.
type TypeStyle struct {
	Type  ActivityType `json:"type"`
	Label string       `json:"label"`
	Color string       `json:"color"` // hex, for the HTTP API
	ANSI  string       `json:"-"`     // terminal escape
	Order int          `json:"order"`
}

var typeStyles = map[ActivityType]TypeStyle{
	TypeWebPage:     {Type: TypeWebPage, Label: "Web Page", Color: "#3b82f6", ANSI: "\033[34m", Order: 0},
	TypeApplication: {Type: TypeApplication, Label: "Application", Color: "#10b981", ANSI: "\033[32m", Order: 1},
	TypeIdle:        {Type: TypeIdle, Label: "Idle", Color: "#9ca3af", ANSI: "\033[90m", Order: 2},
	TypeOther:       {Type: TypeOther, Label: "Other", Color: "#f59e0b", ANSI: "\033[33m", Order: 3},
}

// AllTypes returns the activity types in display order.
func AllTypes() []ActivityType {
	return []ActivityType{TypeWebPage, TypeApplication, TypeIdle, TypeOther}
}

// Style returns the display information for t, falling back to Other.
func (t ActivityType) Style() TypeStyle {
	if s, ok := typeStyles[t]; ok {
		return s
	}
	return typeStyles[TypeOther]
}

// Label returns the human readable name of t.
func (t ActivityType) Label() string {
	return t.Style().Label
}

// Valid reports whether t is one of the known types.
func (t ActivityType) Valid() bool {
	_, ok := typeStyles[t]
	return ok
}

// TypeStyles returns the canonical table in display order.
func TypeStyles() []TypeStyle {
	styles := make([]TypeStyle, 0, len(typeStyles))
	for _, t := range AllTypes() {
		styles = append(styles, typeStyles[t])
	}
	return styles
}

// LabelStyle resolves a grouping label back to a type style when the label
// names a type (either "WebPage" or "Web Page"). ok is false otherwise.
func LabelStyle(label string) (TypeStyle, bool) {
	for _, s := range typeStyles {
		if strings.EqualFold(label, string(s.Type)) || strings.EqualFold(label, s.Label) {
			return s, true
		}
	}
	return TypeStyle{}, false
}

// ClassifyType maps a free-form type string to an ActivityType.
// The keyword sets are checked in order; anything unmatched is Other.
func ClassifyType(raw string) ActivityType {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return TypeOther
	}
	switch {
	case containsAny(s, "web", "http"):
		return TypeWebPage
	case containsAny(s, "app", "program", "exe"):
		return TypeApplication
	case containsAny(s, "idle", "lock", "away"):
		return TypeIdle
	default:
		return TypeOther
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
