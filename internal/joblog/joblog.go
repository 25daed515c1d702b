// Package joblog keeps the per-upload processing log that clients poll.
package joblog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	// TimeFormat stamps each line.
	TimeFormat = "01/02/2006, 15:04:05"
	// DoneMarker ends the final line of a finished run.
	DoneMarker = "DONE!"
)

var ErrNoLog = errors.New("log not created yet")

// Writer appends timestamped lines to a log file. Each call opens and closes
// the file so readers always see complete lines.
type Writer struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewWriter(path string) *Writer {
	return &Writer{path: path, now: time.Now}
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Printf appends "[timestamp] message".
func (w *Writer) Printf(format string, args ...any) error {
	return w.write(fmt.Sprintf("[%s] %s\n", w.now().Format(TimeFormat), fmt.Sprintf(format, args...)))
}

// Start writes the run header, separated from earlier runs by a blank line.
func (w *Writer) Start() error {
	return w.write(fmt.Sprintf("\n[%s] Started Processing.\n", w.now().Format(TimeFormat)))
}

// Exception records a failure.
func (w *Writer) Exception(err error) error {
	return w.write(fmt.Sprintf("[%s][EXCEPTION] %s\n", w.now().Format(TimeFormat), err))
}

// Finish writes the outcome line and the closing DONE marker.
func (w *Writer) Finish(success bool, processedURL string) error {
	ts := w.now().Format(TimeFormat)
	var sb strings.Builder
	if success {
		fmt.Fprintf(&sb, "[%s] Files should appear in %s\n", ts, processedURL)
	} else {
		fmt.Fprintf(&sb, "[%s] !!!!!!!!!!!! Operation Failed !!!!!!!!!!!!!!!\n", ts)
	}
	fmt.Fprintf(&sb, "[%s] %s", ts, DoneMarker)
	return w.write(sb.String())
}

func (w *Writer) write(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if _, err := f.WriteString(s); err != nil {
		f.Close()
		return fmt.Errorf("write log: %w", err)
	}
	return f.Close()
}

// Log is a snapshot of a log file.
type Log struct {
	Lines []string `json:"lines"` // newest first
	Done  bool     `json:"done"`
}

// Read loads the log at path. Done is set once the last line carries the
// DONE marker.
func Read(path string) (Log, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Log{}, ErrNoLog
	}
	if err != nil {
		return Log{}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Log{}, fmt.Errorf("read log: %w", err)
	}

	out := Log{Lines: make([]string, 0, len(lines))}
	if len(lines) > 0 {
		out.Done = strings.HasSuffix(lines[len(lines)-1], DoneMarker)
	}
	for i := len(lines) - 1; i >= 0; i-- {
		out.Lines = append(out.Lines, lines[i])
	}
	return out, nil
}

// Clear deletes the log. A missing log is not an error.
func Clear(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove log: %w", err)
	}
	return nil
}
