// Package source fetches raw activity records from the remote activity API.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// DateLayout is the request format of the date parameter.
const DateLayout = "2006-01-02"

// maxBodyBytes bounds the response body read into memory.
const maxBodyBytes = 32 << 20

// envelopeKeys are tried in order when the body is not a bare array.
var envelopeKeys = []string{"data", "activities", "items", "results"}

// Fetcher returns the raw activity records of one user for one day.
type Fetcher interface {
	Fetch(ctx context.Context, userID string, date time.Time) ([]model.RawActivity, error)
}

// Client calls GET {base}/users/{userID}/activities?date=YYYY-MM-DD.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewClient constructs a Client. An empty token sends no Authorization header.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// FetchError is a failed request or a non-2xx response. Status is zero when
// no response was received.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("fetch activities: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("fetch activities: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
	default:
		return fmt.Sprintf("fetch activities: %d %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetch retrieves the records. Failures are returned as *FetchError and are
// not retried.
func (c *Client) Fetch(ctx context.Context, userID string, date time.Time) ([]model.RawActivity, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &FetchError{Message: "user id is required", Err: fmt.Errorf("empty user id")}
	}

	endpoint := fmt.Sprintf("%s/users/%s/activities?date=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(date.Format(DateLayout)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: err}
	}
	util.LogDebugf("GET %s -> %d (%d bytes, %v)", endpoint, resp.StatusCode, len(body), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	return DecodeRecords(body)
}

// DecodeRecords finds the records array in body, either at the top level or
// under one of the common envelope keys, and decodes it.
func DecodeRecords(body []byte) ([]model.RawActivity, error) {
	if !gjson.ValidBytes(body) {
		return nil, &FetchError{Status: http.StatusOK, Message: "response is not valid JSON"}
	}

	root := gjson.ParseBytes(body)
	records := root
	if !root.IsArray() {
		records = gjson.Result{}
		for _, key := range envelopeKeys {
			if r := root.Get(key); r.IsArray() {
				records = r
				break
			}
		}
		if !records.Exists() {
			return nil, &FetchError{Status: http.StatusOK, Message: "response contains no activity array"}
		}
	}

	var out []model.RawActivity
	if err := sonic.UnmarshalString(records.Raw, &out); err != nil {
		return nil, &FetchError{Status: http.StatusOK, Message: "decode activities", Err: err}
	}
	if out == nil {
		out = []model.RawActivity{}
	}
	return out, nil
}

func errorMessage(body []byte) string {
	for _, path := range []string{"message", "error.message", "error", "detail"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String {
			return r.String()
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if gjson.ValidBytes(body) {
		return ""
	}
	return text
}
