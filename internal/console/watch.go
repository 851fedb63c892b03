package console

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type watchKey struct {
	tab, tag string
}

// WatchEntry is one row of the watch table
type WatchEntry struct {
	Tab   string
	Tag   string
	Value string
}

// WatchTable keeps the latest value per (tab, tag) in first-seen order
type WatchTable struct {
	mu      sync.Mutex
	entries []WatchEntry
	index   map[watchKey]int
	version uint64
}

// NewWatchTable creates an empty table
func NewWatchTable() *WatchTable {
	return &WatchTable{index: make(map[watchKey]int)}
}

// Upsert stores value, replacing the previous value for the same key in place
func (t *WatchTable) Upsert(tab, tag, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := watchKey{tab, tag}
	if i, ok := t.index[k]; ok {
		if t.entries[i].Value != value {
			t.entries[i].Value = value
			t.version++
		}
		return
	}
	t.index[k] = len(t.entries)
	t.entries = append(t.entries, WatchEntry{Tab: tab, Tag: tag, Value: value})
	t.version++
}

// Clear removes every entry
func (t *WatchTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.index = make(map[watchKey]int)
	t.version++
}

// Get returns the value stored for (tab, tag)
func (t *WatchTable) Get(tab, tag string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[watchKey{tab, tag}]
	if !ok {
		return "", false
	}
	return t.entries[i].Value, true
}

// Len returns the number of entries
func (t *WatchTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entries returns a snapshot in first-seen order
func (t *WatchTable) Entries() []WatchEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]WatchEntry(nil), t.entries...)
}

// Version increases on every change, so renderers can skip redundant draws
func (t *WatchTable) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// Render draws the table with r, or the default renderer when r is nil
func (t *WatchTable) Render(r *lipgloss.Renderer) string {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	rows := make([][]string, 0, t.Len())
	for _, e := range t.Entries() {
		rows = append(rows, []string{e.Tab, e.Tag, e.Value})
	}

	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Faint(true)).
		Headers("TAB", "TAG", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}
