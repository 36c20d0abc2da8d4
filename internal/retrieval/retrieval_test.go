package retrieval

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"kgtool/internal/logger"
)

func fixedClock(unix int64) Option {
	return WithClock(func() time.Time { return time.Unix(unix, 0) })
}

func newTestLogger(t *testing.T, dir string, unix int64) *Logger {
	t.Helper()
	l, err := NewLogger(dir, fixedClock(unix))
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	return l
}

func strPtr(s string) *string { return &s }

func sampleResult(query string, mode QueryMode, entities int) RetrievalResult {
	r := RetrievalResult{
		Query:             query,
		QueryMode:         mode,
		Timestamp:         1700000000.25,
		Entities:          []map[string]any{},
		Relationships:     []map[string]any{{"src_id": "Alice", "tgt_id": "Bob", "weight": 3.0}},
		TextChunks:        []map[string]any{{"content": "Alice & Bob <3 graphs", "source_id": "chunk_1"}},
		HighLevelKeywords: []string{"collaboration"},
		LowLevelKeywords:  []string{"Alice", "Bob"},
		Metadata:          map[string]any{"top_k": 40.0, "cached": false},
		FinalResponse:     strPtr("Alice works with Bob. 数据"),
	}
	for i := 0; i < entities; i++ {
		r.Entities = append(r.Entities, map[string]any{"entity_name": "E", "rank": float64(i)})
	}
	return r
}

func TestQueryMode_Valid(t *testing.T) {
	for _, m := range []QueryMode{ModeLocal, ModeGlobal, ModeHybrid, ModeMix, ModeNaive} {
		if !m.Valid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if QueryMode("vector").Valid() {
		t.Error("vector should not be valid")
	}
}

func TestNewLogger_SessionFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := newTestLogger(t, dir, 1700000000)
	if l.SessionID != 1700000000 {
		t.Errorf("SessionID = %d", l.SessionID)
	}
	if want := filepath.Join(dir, "retrieval_log_1700000000.jsonl"); l.LogFile != want {
		t.Errorf("LogFile = %q, want %q", l.LogFile, want)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestLogAndLoad_RoundTrip(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)

	want := []RetrievalResult{
		sampleResult("who works with Bob?", ModeHybrid, 2),
		sampleResult("what is a graph?", ModeNaive, 0),
		{Query: "bare", QueryMode: ModeLocal, Timestamp: 1},
	}
	for _, r := range want {
		l.Log(r)
	}

	got := l.Load("")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestLog_OneLinePerRecordUnescaped(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	l.Log(sampleResult("q1", ModeMix, 1))
	l.Log(sampleResult("q2", ModeMix, 1))

	data, err := os.ReadFile(l.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "Alice & Bob <3 graphs") || !strings.Contains(lines[0], "数据") {
		t.Errorf("text should be written unescaped: %s", lines[0])
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		"query", "query_mode", "timestamp", "entities", "relationships", "text_chunks",
		"high_level_keywords", "low_level_keywords", "metadata", "final_response",
	} {
		if _, ok := fields[key]; !ok {
			t.Errorf("field %q missing", key)
		}
	}
	if len(fields) != 10 {
		t.Errorf("got %d fields, want 10", len(fields))
	}
}

func TestLog_FailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Options{Output: &buf, NoTimestamp: true})
	defer logger.Reset()

	l := newTestLogger(t, t.TempDir(), 1700000000)
	l.LogFile = filepath.Join(l.Dir, "missing-dir", "log.jsonl")
	l.Log(sampleResult("q", ModeLocal, 0))

	if !strings.Contains(buf.String(), "Failed to log retrieval result") {
		t.Errorf("failure should be logged:\n%s", buf.String())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	got := l.Load(filepath.Join(l.Dir, "nope.jsonl"))
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

func TestLoad_MalformedLineAbortsWholeLoad(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	l.Log(sampleResult("good", ModeLocal, 1))

	f, err := os.OpenFile(l.LogFile, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n")
	f.Close()
	l.Log(sampleResult("also good", ModeLocal, 1))

	if got := l.Load(""); len(got) != 0 {
		t.Errorf("malformed line should abort the load, got %d records", len(got))
	}
}

func TestLoad_LineMustHoldOneCompleteObject(t *testing.T) {
	good, err := encodeLine(sampleResult("good", ModeLocal, 1))
	if err != nil {
		t.Fatal(err)
	}
	record := string(bytes.TrimSpace(good))

	tests := []struct {
		name string
		line string
	}{
		{"trailing garbage", record + " garbage"},
		{"two objects", record + record},
		{"null", "null"},
		{"array", "[" + record + "]"},
		{"empty object", "{}"},
		{"missing metadata", `{"query":"q","query_mode":"local","timestamp":1,"entities":[],"relationships":[],"text_chunks":[],"high_level_keywords":[],"low_level_keywords":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLogger(t, t.TempDir(), 1700000000)
			l.Log(sampleResult("first", ModeLocal, 1))

			f, err := os.OpenFile(l.LogFile, os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				t.Fatal(err)
			}
			f.WriteString(tt.line + "\n")
			f.Close()

			if got := l.Load(""); len(got) != 0 {
				t.Errorf("got %d records, want 0", len(got))
			}
		})
	}
}

func TestLoad_FinalResponseOptional(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	line := `{"query":"q","query_mode":"naive","timestamp":1,"entities":[],"relationships":[],"text_chunks":[],"high_level_keywords":[],"low_level_keywords":[],"metadata":{}}`
	if err := os.WriteFile(l.LogFile, []byte(line+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := l.Load("")
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].FinalResponse != nil {
		t.Errorf("FinalResponse = %v, want nil", *got[0].FinalResponse)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	if err := os.WriteFile(l.LogFile, []byte(`{"query":"q","query_mode":"local","bogus":1}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := l.Load(""); len(got) != 0 {
		t.Errorf("unknown field should abort the load, got %d records", len(got))
	}
}

func TestLoad_SkipsBlankLines(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	l.Log(sampleResult("one", ModeLocal, 1))
	f, _ := os.OpenFile(l.LogFile, os.O_APPEND|os.O_WRONLY, 0o644)
	f.WriteString("\n   \n")
	f.Close()
	l.Log(sampleResult("two", ModeLocal, 1))

	if got := l.Load(""); len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestExport_SingleFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	l := newTestLogger(t, dir, 1700000000)
	l.Log(sampleResult("q1", ModeLocal, 1))
	l.Log(sampleResult("q2", ModeGlobal, 3))

	out1 := filepath.Join(dir, "export", "a.json")
	out2 := filepath.Join(dir, "export", "b.json")
	l.Export(out1, l.LogFile)
	l.Export(out2, l.LogFile)

	a, err := os.ReadFile(out1)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	b, err := os.ReadFile(out2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("exports of the same file should be byte-identical")
	}
	if !strings.HasPrefix(string(a), "[\n  {") {
		t.Errorf("export should be a pretty-printed array:\n%s", a)
	}

	var decoded []RetrievalResult
	if err := json.Unmarshal(a, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 || decoded[1].Query != "q2" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestExport_DirectoryConcatenatesInSessionOrder(t *testing.T) {
	dir := t.TempDir()
	later := newTestLogger(t, dir, 1700000100)
	earlier := newTestLogger(t, dir, 1700000000)
	later.Log(sampleResult("later", ModeLocal, 0))
	earlier.Log(sampleResult("earlier-1", ModeLocal, 0))
	earlier.Log(sampleResult("earlier-2", ModeLocal, 0))

	files, err := earlier.LogFiles()
	if err != nil || len(files) != 2 {
		t.Fatalf("LogFiles() = %v, %v", files, err)
	}

	out := filepath.Join(dir, "all.json")
	earlier.Export(out, "")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []RetrievalResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	var queries []string
	for _, r := range decoded {
		queries = append(queries, r.Query)
	}
	if got := strings.Join(queries, ","); got != "earlier-1,earlier-2,later" {
		t.Errorf("export order = %s", got)
	}
}

func TestExport_NoFilesIsNoop(t *testing.T) {
	dir := t.TempDir()
	l := newTestLogger(t, dir, 1700000000)
	out := filepath.Join(dir, "out.json")
	l.Export(out, "")
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("no output expected when there are no log files, stat err = %v", err)
	}
}

func TestExport_MissingSourceWritesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	l := newTestLogger(t, dir, 1700000000)
	out := filepath.Join(dir, "out.json")
	l.Export(out, filepath.Join(dir, "missing.jsonl"))
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("export = %q, want []", data)
	}
}

func TestStatistics(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	l.Log(sampleResult("a", ModeLocal, 2))
	l.Log(sampleResult("b", ModeLocal, 4))
	l.Log(sampleResult("c", ModeHybrid, 0))
	l.Log(RetrievalResult{Query: "empty", QueryMode: ModeNaive})

	s := l.Statistics("")
	if s == nil {
		t.Fatal("Statistics returned nil")
	}
	if s.TotalQueries != 4 {
		t.Errorf("TotalQueries = %d", s.TotalQueries)
	}
	wantModes := map[string]int{"local": 2, "hybrid": 1, "naive": 1}
	if !reflect.DeepEqual(s.ModeDistribution, wantModes) {
		t.Errorf("ModeDistribution = %v", s.ModeDistribution)
	}
	if s.AvgEntitiesPerQuery != 1.5 {
		t.Errorf("AvgEntitiesPerQuery = %v, want 1.5", s.AvgEntitiesPerQuery)
	}
	if s.AvgRelationshipsPerQuery != 0.75 || s.AvgChunksPerQuery != 0.75 {
		t.Errorf("averages = %v / %v, want 0.75", s.AvgRelationshipsPerQuery, s.AvgChunksPerQuery)
	}
	if s.QueriesWithNoResults != 1 {
		t.Errorf("QueriesWithNoResults = %d, want 1", s.QueriesWithNoResults)
	}
}

func TestStatistics_NoRecords(t *testing.T) {
	l := newTestLogger(t, t.TempDir(), 1700000000)
	if s := l.Statistics(""); s != nil {
		t.Errorf("expected nil stats, got %+v", s)
	}
}
