package model

import (
	"net/url"
	"strings"
	"time"
)

// Activity is one normalized record of user or computer behaviour over a span.
type Activity struct {
	ID              string       `json:"id"`
	Type            ActivityType `json:"type"`
	Title           string       `json:"title"`
	StartTime       time.Time    `json:"startTime"`
	EndTime         time.Time    `json:"endTime"`
	DurationMinutes int          `json:"durationMinutes"` // as reported; a weight, never a total
	Username        string       `json:"username,omitempty"`
	ApplicationName string       `json:"applicationName,omitempty"`
	URL             string       `json:"url,omitempty"`
	Category        string       `json:"category,omitempty"`
	Details         string       `json:"details,omitempty"`
}

// Interval returns the span covered by the activity.
func (a Activity) Interval() TimeInterval {
	return TimeInterval{Start: a.StartTime, End: a.EndTime}
}

// Domain returns the host of the activity URL without a leading "www.".
// Bare domains ("example.com/path") are accepted as well.
func (a Activity) Domain() string {
	return ExtractDomain(a.URL)
}

// ExtractDomain returns the lower-cased host part of raw.
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}
	host := ""
	if u, err := url.Parse(candidate); err == nil {
		host = u.Hostname()
	}
	if host == "" {
		host = strings.SplitN(raw, "/", 2)[0]
	}
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// TimeInterval is a half-open span [Start, End) with End >= Start.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// RawActivity is a record as delivered by the remote activity API.
type RawActivity struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	DurationMinutes float64 `json:"durationMinutes"`
	Details         string  `json:"details,omitempty"`
	URL             string  `json:"url,omitempty"`
	ApplicationName string  `json:"applicationName,omitempty"`
	Category        string  `json:"category,omitempty"`
}
