package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// LogEntry is a single decoded event.
type LogEntry struct {
	Level     string    `json:"level"`
	Time      string    `json:"time"`
	SessionID string    `json:"session_id"`
	Event     EventType `json:"event"`

	Pid               int      `json:"pid,omitempty"`
	Argv              []string `json:"argv,omitempty"`
	Input             string   `json:"input,omitempty"`
	Output            string   `json:"output,omitempty"`
	Background        bool     `json:"background,omitempty"`
	Signaled          bool     `json:"signaled,omitempty"`
	Code              int      `json:"code,omitempty"`
	BackgroundAllowed bool     `json:"background_allowed,omitempty"`
	Deferred          bool     `json:"deferred,omitempty"`
	RunningJobs       int      `json:"running_jobs,omitempty"`
	Line              string   `json:"line,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// CommandName returns the first word of the entry's argv, if any.
func (le *LogEntry) CommandName() string {
	if len(le.Argv) == 0 {
		return ""
	}
	return le.Argv[0]
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

func formatOutcome(signaled bool, code int) string {
	if signaled {
		return fmt.Sprintf("terminated by signal %d", code)
	}
	return fmt.Sprintf("exit value %d", code)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int `json:"log_entries"`

	Sessions     StrCounter `json:"sessions"`
	Events       StrCounter `json:"events"`
	CommandNames StrCounter `json:"command_names"`

	ForegroundStatuses StrCounter `json:"foreground_statuses"`
	BackgroundStatuses StrCounter `json:"background_statuses"`

	Failures *PathCounter `json:"failures"`

	ModeToggles     int `json:"mode_toggles"`
	DeferredToggles int `json:"deferred_toggles"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Failures: NewPathCounter("event", "command", "error"),
	}
}

// Update adds the entry to the report.
func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	r.Events.Increment(string(le.Event))
	if le.SessionID != "" {
		r.Sessions.Increment(le.SessionID)
	}

	switch le.Event {
	case EventRunCommand:
		r.CommandNames.Increment(le.CommandName())
	case EventForegroundDone:
		r.ForegroundStatuses.Increment(formatOutcome(le.Signaled, le.Code))
	case EventJobReaped:
		r.BackgroundStatuses.Increment(formatOutcome(le.Signaled, le.Code))
	case EventSpawnFailed, EventRedirectFailed, EventReapFailed, EventInvalidInput:
		r.Failures.Increment(string(le.Event), le.CommandName(), le.Error)
	case EventModeToggle:
		r.ModeToggles++
		if le.Deferred {
			r.DeferredToggles++
		}
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}

// NewPathCounter creates a counter keyed on the named columns.
func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of times each combination of column values
// is seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the given column values.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements a custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Path   string            `json:"-"`
		Fields map[string]string `json:"event"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
