package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/data/normalizer"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// Format is a supported tabular input encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// SupportedExtensions lists the file extensions the parser reads.
var SupportedExtensions = []string{".csv", ".json", ".jsonl", ".ndjson"}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, true
	case ".json":
		return FormatJSON, true
	case ".jsonl", ".ndjson":
		return FormatJSONL, true
	}
	return "", false
}

// SniffFormat guesses the format of data from its first meaningful byte.
func SniffFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(stripBOM(data), " \t\r\n")
	if len(trimmed) == 0 {
		return FormatCSV
	}
	switch trimmed[0] {
	case '[':
		return FormatJSON
	case '{':
		return FormatJSONL
	}
	return FormatCSV
}

// Parser is a struct for parsing activity export files.
type Parser struct {
	concurrency int
	mu          sync.Mutex
	cache       map[string]model.Table
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File  string
	Table model.Table
	Error error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{
		concurrency: concurrency,
		cache:       make(map[string]model.Table),
	}
}

// ParseFile parses the file at the specified path. Results are memoised per
// path for the lifetime of the Parser.
func (p *Parser) ParseFile(path string) (model.Table, error) {
	p.mu.Lock()
	if cached, ok := p.cache[path]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	format, ok := FormatForPath(path)
	if !ok {
		return model.Table{}, fmt.Errorf("unsupported file type: %s", path)
	}

	util.LogDebugf("Start parsing %s file: %s", format, path)

	data, err := os.ReadFile(path)
	if err != nil {
		util.LogDebugf("Failed to read file: %s - %v", path, err)
		return model.Table{}, err
	}

	table, err := Parse(data, format)
	if err != nil {
		return model.Table{}, fmt.Errorf("%s: %w", path, err)
	}

	p.mu.Lock()
	p.cache[path] = table
	p.mu.Unlock()

	return table, nil
}

// Forget drops the memoised result for path so the next ParseFile rereads it.
func (p *Parser) Forget(path string) {
	p.mu.Lock()
	delete(p.cache, path)
	p.mu.Unlock()
}

// ParseFiles parses multiple files concurrently and returns a channel of ParseResult.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebugf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency)

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			table, err := p.ParseFile(f)
			if err != nil {
				util.LogDebugf("File parsing failed: %s, duration %v - %v", f, time.Since(fileStart), err)
			}

			results <- ParseResult{
				File:  f,
				Table: table,
				Error: err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebugf("Concurrent parsing finished, total duration: %v", time.Since(start))
	}()

	return results
}

// Parse decodes data in the given format. Structural problems are reported
// as *normalizer.SchemaError.
func Parse(data []byte, format Format) (model.Table, error) {
	data = stripBOM(data)
	switch format {
	case FormatCSV:
		return parseCSV(data)
	case FormatJSON:
		return parseJSONArray(data)
	case FormatJSONL:
		return parseJSONLines(data)
	}
	return model.Table{}, &normalizer.SchemaError{Reason: fmt.Sprintf("unknown format %q", format)}
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}

func parseCSV(data []byte) (model.Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var table model.Table
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, &normalizer.SchemaError{Reason: fmt.Sprintf("invalid CSV: %v", err)}
		}
		if table.Headers == nil {
			table.Headers = record
			continue
		}
		if isBlank(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	if table.Headers == nil {
		return model.Table{}, &normalizer.SchemaError{Reason: "empty CSV input"}
	}
	return table, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// tableBuilder collects flat JSON objects into a table, keeping the first
// seen order of keys as the header order.
type tableBuilder struct {
	headers  []string
	index    map[string]int
	rows     []map[int]string
	rejected map[int]string
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{index: make(map[string]int)}
}

func (b *tableBuilder) add(obj gjson.Result) {
	row := make(map[int]string)
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		col, ok := b.index[name]
		if !ok {
			col = len(b.headers)
			b.index[name] = col
			b.headers = append(b.headers, name)
		}
		row[col] = cellText(value)
		return true
	})
	b.rows = append(b.rows, row)
}

// reject keeps an empty row in place of an unreadable record.
func (b *tableBuilder) reject(reason string) {
	if b.rejected == nil {
		b.rejected = make(map[int]string)
	}
	b.rejected[len(b.rows)] = reason
	b.rows = append(b.rows, nil)
}

func (b *tableBuilder) table() model.Table {
	t := model.Table{Headers: b.headers, Rows: make([][]string, len(b.rows)), Rejected: b.rejected}
	for i, row := range b.rows {
		cells := make([]string, len(b.headers))
		for col, v := range row {
			cells[col] = v
		}
		t.Rows[i] = cells
	}
	return t
}

// cellText keeps numbers in their literal form so epoch values survive
// without float formatting.
func cellText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.String()
	default:
		return v.Raw
	}
}

func parseJSONArray(data []byte) (model.Table, error) {
	if !gjson.ValidBytes(data) {
		return model.Table{}, &normalizer.SchemaError{Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return model.Table{}, &normalizer.SchemaError{Reason: "JSON input must be an array of objects"}
	}

	b := newTableBuilder()
	for _, item := range root.Array() {
		if !item.IsObject() {
			return model.Table{}, &normalizer.SchemaError{Reason: "JSON array contains a non-object element"}
		}
		b.add(item)
	}
	return b.table(), nil
}

func parseJSONLines(data []byte) (model.Table, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	b := newTableBuilder()
	lineNo, lineCount, invalid := 0, 0, 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lineCount++
		if !gjson.ValidBytes(line) || !gjson.ParseBytes(line).IsObject() {
			util.LogDebugf("Skip invalid JSON line %d", lineNo)
			invalid++
			b.reject(fmt.Sprintf("invalid JSON on line %d", lineNo))
			continue
		}
		b.add(gjson.ParseBytes(line))
	}
	if err := scanner.Err(); err != nil {
		return model.Table{}, err
	}
	if lineCount > 0 && invalid == lineCount {
		return model.Table{}, &normalizer.SchemaError{Reason: "no valid JSON lines"}
	}
	return b.table(), nil
}
