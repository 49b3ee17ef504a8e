package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded JSON log record.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	EventType string
	Fields    map[string]any
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects
// report ok=false.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}

	entry := Entry{Fields: map[string]any{}}
	for key, value := range raw {
		switch key {
		case "ts":
			if s, ok := value.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339, s)
			}
		case "level":
			if s, ok := value.(string); ok {
				_ = entry.Level.UnmarshalText([]byte(s))
			}
		case "msg":
			entry.Message, _ = value.(string)
		case "component":
			entry.Component, _ = value.(string)
		case "event_type":
			entry.EventType, _ = value.(string)
		case "source":
		default:
			entry.Fields[key] = value
		}
	}
	return entry, true
}

// Filter selects entries. Empty Component and EventType match everything;
// the zero MinLevel is slog.LevelInfo.
type Filter struct {
	MinLevel  slog.Level
	Component string
	EventType string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if f.Component != "" && !strings.EqualFold(f.Component, e.Component) {
		return false
	}
	if f.EventType != "" && !strings.EqualFold(f.EventType, e.EventType) {
		return false
	}
	return true
}

// Format renders e on one line: time, level, component, message, then the
// remaining fields sorted by key.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", e.Level.String())
	if e.Component != "" {
		fmt.Fprintf(&b, " [%s]", e.Component)
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)
	if e.EventType != "" {
		fmt.Fprintf(&b, " event_type=%s", e.EventType)
	}

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}
