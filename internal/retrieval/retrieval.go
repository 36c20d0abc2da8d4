package retrieval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"kgtool/internal/logger"
)

// QueryMode is the retrieval strategy that answered a query
type QueryMode string

const (
	ModeLocal  QueryMode = "local"
	ModeGlobal QueryMode = "global"
	ModeHybrid QueryMode = "hybrid"
	ModeMix    QueryMode = "mix"
	ModeNaive  QueryMode = "naive"
)

// Valid reports whether m is a known mode.
func (m QueryMode) Valid() bool {
	switch m {
	case ModeLocal, ModeGlobal, ModeHybrid, ModeMix, ModeNaive:
		return true
	}
	return false
}

// RetrievalResult is everything one retrieval call returned
type RetrievalResult struct {
	Query     string    `json:"query"`
	QueryMode QueryMode `json:"query_mode"`
	Timestamp float64   `json:"timestamp"` // Unix seconds

	Entities      []map[string]any `json:"entities"`
	Relationships []map[string]any `json:"relationships"`
	TextChunks    []map[string]any `json:"text_chunks"`

	HighLevelKeywords []string `json:"high_level_keywords"`
	LowLevelKeywords  []string `json:"low_level_keywords"`

	Metadata      map[string]any `json:"metadata"`
	FinalResponse *string        `json:"final_response"`
}

const (
	filePrefix = "retrieval_log_"
	fileSuffix = ".jsonl"
)

// Logger appends retrieval results to one JSON-lines file per session.
// Every method reports failures through the process logger and never
// returns them, so logging cannot break the retrieval path.
type Logger struct {
	Dir       string
	SessionID int64
	LogFile   string
}

// Option configures a Logger
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to derive the session id.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewLogger creates dir if needed and starts a session named after the
// current Unix time.
func NewLogger(dir string, opts ...Option) (*Logger, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	sessionID := o.now().Unix()
	l := &Logger{
		Dir:       dir,
		SessionID: sessionID,
		LogFile:   filepath.Join(dir, fmt.Sprintf("%s%d%s", filePrefix, sessionID, fileSuffix)),
	}
	logger.Info("Retrieval logger initialized", "file", l.LogFile)
	return l, nil
}

// Log appends r as one line to the session file.
func (l *Logger) Log(r RetrievalResult) {
	line, err := encodeLine(r)
	if err != nil {
		logger.Error("Failed to encode retrieval result", "err", err)
		return
	}

	f, err := os.OpenFile(l.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("Failed to log retrieval result", "err", err)
		return
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		logger.Error("Failed to log retrieval result", "err", err)
		return
	}
	if err := f.Close(); err != nil {
		logger.Error("Failed to log retrieval result", "err", err)
		return
	}
	logger.Debug("Logged retrieval result", "query", truncate(r.Query, 50))
}

// encodeLine renders r as JSON followed by a newline, leaving non-ASCII
// and HTML characters unescaped.
func encodeLine(r RetrievalResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads every record from file, or from the session file when file is
// empty. A missing file or any malformed line yields an empty result.
func (l *Logger) Load(file string) []RetrievalResult {
	path := l.resolve(file)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Log file not found", "file", path)
		return []RetrievalResult{}
	}
	if err != nil {
		logger.Error("Failed to load logs", "file", path, "err", err)
		return []RetrievalResult{}
	}

	results := []RetrievalResult{}
	for i, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		r, err := decodeLine(line)
		if err != nil {
			logger.Error("Failed to load logs", "file", path, "line", i+1, "err", err)
			return []RetrievalResult{}
		}
		results = append(results, r)
	}

	logger.Info("Loaded retrieval results", "count", len(results), "file", path)
	return results
}

// requiredFields are the keys every stored record carries. final_response
// may be omitted.
var requiredFields = []string{
	"query", "query_mode", "timestamp",
	"entities", "relationships", "text_chunks",
	"high_level_keywords", "low_level_keywords", "metadata",
}

// decodeLine parses one stored record. The line must hold exactly one JSON
// object with every required field and no unknown ones.
func decodeLine(line []byte) (RetrievalResult, error) {
	var r RetrievalResult

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return r, err
	}
	if fields == nil {
		return r, errors.New("record is not a JSON object")
	}
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return r, fmt.Errorf("missing field %q", name)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return r, err
	}
	return r, nil
}

// LogFiles returns every session file in the log directory, sorted by name
// (and therefore by session time).
func (l *Logger) LogFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.Dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Export writes records as one pretty-printed JSON array to output. With an
// empty file every session file in the directory is concatenated in name
// order; otherwise only file is read.
func (l *Logger) Export(output, file string) {
	var all []RetrievalResult

	if file == "" {
		files, err := l.LogFiles()
		if err != nil {
			logger.Error("Failed to list log files", "dir", l.Dir, "err", err)
			return
		}
		if len(files) == 0 {
			logger.Warn("No JSONL files found", "dir", l.Dir)
			return
		}

		logger.Info("Found JSONL files to export", "count", len(files))
		all = []RetrievalResult{}
		for _, f := range files {
			logger.Info("Reading log file", "file", filepath.Base(f))
			all = append(all, l.Load(f)...)
		}
		logger.Info("Total loaded", "count", len(all))
	} else {
		all = l.Load(file)
	}

	data, err := encodeArray(all)
	if err != nil {
		logger.Error("Failed to export", "file", output, "err", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		logger.Error("Failed to export", "file", output, "err", err)
		return
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		logger.Error("Failed to export", "file", output, "err", err)
		return
	}
	logger.Info("Exported retrieval results", "count", len(all), "file", output)
}

func encodeArray(results []RetrievalResult) ([]byte, error) {
	if results == nil {
		results = []RetrievalResult{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (l *Logger) resolve(file string) string {
	if file == "" {
		return l.LogFile
	}
	return file
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
