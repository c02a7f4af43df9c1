package logging

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// LogEntry is one parsed line of debug.log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Bus       string         `json:"bus,omitempty"`
	Scope     string         `json:"scope,omitempty"`
	Phase     string         `json:"phase,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// context returns the bus, scope and phase fields that are set, as key=value
// pairs in that order.
func (e *LogEntry) context() []string {
	var out []string
	for _, kv := range [][2]string{{"bus", e.Bus}, {"scope", e.Scope}, {"phase", e.Phase}} {
		if kv[1] != "" {
			out = append(out, kv[0]+"="+kv[1])
		}
	}
	return out
}

// LogFilter selects entries. Zero-valued fields do not filter and set fields
// are combined with AND.
type LogFilter struct {
	// Level is the minimum level (DEBUG < INFO < WARN < ERROR).
	Level     string
	StartTime time.Time
	EndTime   time.Time
	// Scope matches by prefix, so "reload" selects every reload pass and
	// "feature/" every installed feature.
	Scope           string
	Phase           string
	Bus             string
	MessageContains string
}

func (f LogFilter) isZero() bool {
	return f == LogFilter{}
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// maxLineSize bounds a single log line; listener failures carry stacks.
const maxLineSize = 1024 * 1024

// AggregateLogs parses debug.log in logDir together with any rotated backups
// (debug.log.N, optionally gzipped) and returns the entries sorted by time.
// Malformed lines are skipped. If none of the files exist the error wraps
// os.ErrNotExist.
func AggregateLogs(logDir string) ([]LogEntry, error) {
	return aggregateFs(afero.NewOsFs(), logDir)
}

func aggregateFs(fs afero.Fs, logDir string) ([]LogEntry, error) {
	paths, err := logFiles(fs, logDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no log file found in %s: %w", logDir, os.ErrNotExist)
	}

	var entries []LogEntry
	for _, path := range paths {
		got, err := readLogFile(fs, path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, got...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// logFiles lists debug.log and its backups, oldest backup first.
func logFiles(fs afero.Fs, logDir string) ([]string, error) {
	infos, err := afero.ReadDir(fs, logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	type backup struct {
		n    int
		path string
	}
	var backups []backup
	var active string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasPrefix(name, LogFileName) {
			continue
		}
		if name == LogFileName {
			active = filepath.Join(logDir, name)
			continue
		}
		suffix := strings.TrimSuffix(strings.TrimPrefix(name, LogFileName+"."), ".gz")
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 {
			continue
		}
		backups = append(backups, backup{n: n, path: filepath.Join(logDir, name)})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].n > backups[j].n })
	paths := make([]string, 0, len(backups)+1)
	for _, b := range backups {
		paths = append(paths, b.path)
	}
	if active != "" {
		paths = append(paths, active)
	}
	return paths, nil
}

func readLogFile(fs afero.Fs, path string) ([]LogEntry, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed log %s: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	var entries []LogEntry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return entries, nil
}

// ParseEntry parses one JSON log line. Keys other than time, level, msg,
// bus, scope and phase end up in Attrs.
func ParseEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}
	fields := map[string]*string{
		"level": &entry.Level,
		"msg":   &entry.Message,
		"bus":   &entry.Bus,
		"scope": &entry.Scope,
		"phase": &entry.Phase,
	}
	for k, v := range raw {
		if k == "time" {
			if s, ok := v.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					entry.Timestamp = ts
				}
			}
			continue
		}
		if dst, ok := fields[k]; ok {
			if s, ok := v.(string); ok {
				*dst = s
			}
			continue
		}
		entry.Attrs[k] = v
	}
	return entry, nil
}

// FilterLogs returns the entries that match filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	if filter.isZero() {
		return entries
	}
	var out []LogEntry
	for _, entry := range entries {
		if filter.matches(&entry) {
			out = append(out, entry)
		}
	}
	return out
}

func (f LogFilter) matches(e *LogEntry) bool {
	if f.Level != "" {
		floor, okMin := levelOrder[strings.ToUpper(f.Level)]
		got, okGot := levelOrder[e.Level]
		if okMin && okGot && got < floor {
			return false
		}
	}
	switch {
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.Scope != "" && !strings.HasPrefix(e.Scope, f.Scope):
		return false
	case f.Phase != "" && e.Phase != f.Phase:
		return false
	case f.Bus != "" && e.Bus != f.Bus:
		return false
	case f.MessageContains != "" && !strings.Contains(e.Message, f.MessageContains):
		return false
	}
	return true
}

// ExportLogEntries writes entries to outputPath as "json", "text" or "csv"
// (case-insensitive).
func ExportLogEntries(entries []LogEntry, outputPath string, format string) error {
	write, err := exporter(format)
	if err != nil {
		return err
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, entries); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func exporter(format string) (func(io.Writer, []LogEntry) error, error) {
	switch strings.ToLower(format) {
	case "json":
		return exportJSON, nil
	case "text":
		return exportText, nil
	case "csv":
		return exportCSV, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s (supported: json, text, csv)", format)
	}
}

func exportJSON(w io.Writer, entries []LogEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []LogEntry{}
	}
	return enc.Encode(entries)
}

// exportText writes one line per entry:
//
//	[2006-01-02 15:04:05.000] LEVEL - message (bus=..., scope=...) {"attr":...}
func exportText(w io.Writer, entries []LogEntry) error {
	for i := range entries {
		e := &entries[i]
		parts := []string{"[" + e.Timestamp.Format("2006-01-02 15:04:05.000") + "]", e.Level, "-", e.Message}
		if ctx := e.context(); len(ctx) > 0 {
			parts = append(parts, "("+strings.Join(ctx, ", ")+")")
		}
		if attrs := attrsJSON(e.Attrs); attrs != "" {
			parts = append(parts, attrs)
		}
		if _, err := io.WriteString(w, strings.Join(parts, " ")+"\n"); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{"timestamp", "level", "message", "bus", "scope", "phase", "attrs"}

func exportCSV(w io.Writer, entries []LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Timestamp.Format(time.RFC3339Nano),
			e.Level,
			e.Message,
			e.Bus,
			e.Scope,
			e.Phase,
			attrsJSON(e.Attrs),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func attrsJSON(attrs map[string]any) string {
	if len(attrs) == 0 {
		return ""
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return ""
	}
	return string(b)
}
