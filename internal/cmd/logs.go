package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Iron-Ham/hookbus/internal/config"
	"github.com/Iron-Ham/hookbus/internal/logging"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View debug logs",
	Long: `View and filter the hookbus debug log.

By default, shows the last 50 entries from debug.log in the configured log
directory. Use flags to filter and format the output.

Examples:
  # Show the last 50 entries
  hookbus logs

  # Show every listener failure on the server bus
  hookbus logs -n 0 --bus server --grep "listener failed"

  # Follow logs in real-time
  hookbus logs -f

  # Only entries from reload passes
  hookbus logs --scope reload

  # Export the last hour as CSV
  hookbus logs --since 1h --export logs.csv --format csv`,
	RunE: runLogs,
}

var (
	logsDir    string
	logsTail   int
	logsFollow bool
	logsLevel  string
	logsSince  string
	logsGrep   string
	logsBus    string
	logsScope  string
	logsPhase  string
	logsExport string
	logsFormat string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsDir, "dir", "", "Log directory (default from logging.dir)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsBus, "bus", "", "Filter by bus (server/client)")
	logsCmd.Flags().StringVar(&logsScope, "scope", "", "Filter by listener scope prefix (e.g., reload, feature/chat-filter)")
	logsCmd.Flags().StringVar(&logsPhase, "phase", "", "Filter by phase")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Write matching entries to this file instead of printing")
	logsCmd.Flags().StringVar(&logsFormat, "format", "json", "Export format (json/text/csv)")
}

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// levelColor returns the ANSI color code for a log level
func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return colorGray
	case logging.LevelInfo:
		return colorBlue
	case logging.LevelWarn:
		return colorYellow
	case logging.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

// formatLogEntry formats a log entry for terminal output. Extra attributes
// are printed in key order so output is stable.
func formatLogEntry(entry *logging.LogEntry, color bool) string {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}

	var sb strings.Builder

	// Timestamp
	sb.WriteString(paint(colorGray, "["+entry.Timestamp.Format("15:04:05.000")+"]"))

	// Level with color
	sb.WriteString(" ")
	sb.WriteString(paint(levelColor(entry.Level), "["+strings.ToUpper(entry.Level)+"]"))

	// Message
	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	// Context fields
	for _, kv := range [][2]string{{"bus", entry.Bus}, {"scope", entry.Scope}, {"phase", entry.Phase}} {
		if kv[1] == "" {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(paint(colorCyan, kv[0]+"="+kv[1]))
	}

	// Extra fields
	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		if k == "stack" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteString(" ")
		sb.WriteString(paint(colorCyan, key+"="))
		sb.WriteString(fmt.Sprintf("%v", entry.Attrs[key]))
	}

	return sb.String()
}

// logQuery is the parsed form of the filter flags.
type logQuery struct {
	filter logging.LogFilter
	grep   *regexp.Regexp
}

func newLogQuery(level, since, grep, bus, scope, phase string, now time.Time) (*logQuery, error) {
	q := &logQuery{filter: logging.LogFilter{Bus: bus, Scope: scope, Phase: phase}}
	if level != "" {
		q.filter.Level = logging.ParseLevel(level)
	}
	if since != "" {
		duration, err := time.ParseDuration(since)
		if err != nil {
			return nil, fmt.Errorf("invalid duration format: %w", err)
		}
		q.filter.StartTime = now.Add(-duration)
	}
	if grep != "" {
		re, err := regexp.Compile(grep)
		if err != nil {
			return nil, fmt.Errorf("invalid grep pattern: %w", err)
		}
		q.grep = re
	}
	return q, nil
}

// apply filters entries. The grep pattern is matched against the message
// and every attribute value.
func (q *logQuery) apply(entries []logging.LogEntry) []logging.LogEntry {
	entries = logging.FilterLogs(entries, q.filter)
	if q.grep == nil {
		return entries
	}
	var out []logging.LogEntry
	for _, e := range entries {
		if q.matches(&e) {
			out = append(out, e)
		}
	}
	return out
}

func (q *logQuery) matches(entry *logging.LogEntry) bool {
	if q.grep == nil {
		return true
	}
	searchText := entry.Message
	for _, v := range entry.Attrs {
		searchText += " " + fmt.Sprintf("%v", v)
	}
	return q.grep.MatchString(searchText)
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir := logsDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		cfg := config.Get()
		dir = cfg.Logging.ResolveDir(cwd)
	}

	query, err := newLogQuery(logsLevel, logsSince, logsGrep, logsBus, logsScope, logsPhase, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if logsFollow {
		return followLogs(cmd, dir, query)
	}

	entries, err := logging.AggregateLogs(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "No logs found in %s\n", dir)
		return nil
	}
	entries = query.apply(entries)

	if logsExport != "" {
		if err := logging.ExportLogEntries(entries, logsExport, logsFormat); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	return displayLogs(out, entries, logsTail, isTerminal(out))
}

// displayLogs prints the last tail entries (all of them when tail is 0).
func displayLogs(w io.Writer, entries []logging.LogEntry, tail int, color bool) error {
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No matching log entries found.")
		return nil
	}
	for i := range entries {
		if _, err := fmt.Fprintln(w, formatLogEntry(&entries[i], color)); err != nil {
			return err
		}
	}
	return nil
}

// followLogs implements tail -f behavior for the log file
func followLogs(cmd *cobra.Command, dir string, query *logQuery) error {
	logPath := filepath.Join(dir, logging.LogFileName)
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	// Seek to end of file
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	out := cmd.OutOrStdout()
	color := isTerminal(out)
	fmt.Fprintf(out, "Following logs... (Ctrl+C to stop)\n\n")

	ctx := cmd.Context()
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// No new data, wait briefly and try again
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(100 * time.Millisecond):
				}
				continue
			}
			return fmt.Errorf("error reading log file: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entry, err := logging.ParseEntry(line)
		if err != nil {
			// If we can't parse as JSON, display raw line
			fmt.Fprintln(out, line)
			continue
		}

		if len(query.apply([]logging.LogEntry{entry})) == 0 {
			continue
		}
		fmt.Fprintln(out, formatLogEntry(&entry, color))
	}
}
