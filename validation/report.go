package validation

import (
	"sort"
	"sync"
)

// one faulty source row with all diagnostics collected for it
type ErrorEntry struct {
	LineNum  int
	Fields   map[string]string
	Messages []string
}

// Process-wide collection of row-level problems. The report is the durable
// record of a run: it is produced even when the database phase is skipped
// or fails.
type ErrorReport struct {
	mu      sync.Mutex
	entries map[int]*ErrorEntry
	general []string //problems not tied to a single source line
}

func NewErrorReport() *ErrorReport {
	return &ErrorReport{
		entries: make(map[int]*ErrorEntry),
	}
}

// Add records diagnostics for a source line, merging with any messages
// already collected for the same line.
func (r *ErrorReport) Add(lineNum int, fields map[string]string, messages []string) {
	if len(messages) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[lineNum]
	if !exists {
		entry = &ErrorEntry{LineNum: lineNum, Fields: fields}
		r.entries[lineNum] = entry
	}
	entry.Messages = append(entry.Messages, messages...)
}

// AddGeneral records a problem that has no source line, such as a failed
// fact insert during the best-effort load.
func (r *ErrorReport) AddGeneral(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.general = append(r.general, message)
}

// Entries returns the faulty rows ordered by line number.
func (r *ErrorReport) Entries() []ErrorEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]ErrorEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LineNum < result[j].LineNum })
	return result
}

// General returns the diagnostics that are not tied to a source line.
func (r *ErrorReport) General() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.general...)
}

// Count returns the number of faulty source rows.
func (r *ErrorReport) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
