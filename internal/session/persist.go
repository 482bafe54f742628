package session

import (
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/nightvsknight/phraims/internal/browser"
	"github.com/nightvsknight/phraims/internal/settings"
)

// Manager owns the per-window session records in the settings store and
// the in-memory list of recently closed windows.
type Manager struct {
	store  *settings.Store
	closed *ClosedList
}

func NewManager(store *settings.Store, maxClosed int) *Manager {
	return &Manager{
		store:  store,
		closed: NewClosedList(maxClosed),
	}
}

func (m *Manager) Store() *settings.Store { return m.store }
func (m *Manager) Closed() *ClosedList    { return m.closed }

func windowGroup(id string) string {
	return KeyWindows + "/" + id
}

// Save writes a window's full record under windows/<id> and flushes the
// store. Ephemeral windows are skipped entirely.
func (m *Manager) Save(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("refusing to save window with empty id")
	}

	scope := settings.NewGroupScope(m.store, windowGroup(rec.ID))
	m.store.Set(KeyAddresses, rec.Addresses)
	m.store.Set(KeyFrameScales, rec.FrameScales)
	m.store.Set(KeyLayoutMode, rec.LayoutMode.Key())
	m.store.Set(KeyProfileName, rec.ProfileName)
	if len(rec.Geometry) > 0 {
		m.store.Set(KeyWindowGeometry, rec.Geometry)
	}
	if len(rec.WindowState) > 0 {
		m.store.Set(KeyWindowState, rec.WindowState)
	}

	// Rewrite splitter sizes wholesale so stale mode groups disappear.
	m.store.Remove(KeySplitterSizes)
	for mode, groups := range rec.SplitterSizes {
		for i, sizes := range groups {
			m.store.Set(fmt.Sprintf("%s/%s/%d", KeySplitterSizes, mode.Key(), i), sizes)
		}
	}
	scope.Close()

	if err := m.store.Sync(); err != nil {
		return fmt.Errorf("failed to persist window %s: %w", rec.ID, err)
	}
	return nil
}

// SaveWindow snapshots and saves a live window. Ephemeral windows never
// touch the store.
func (m *Manager) SaveWindow(w *browser.Window) error {
	if w.Ephemeral() {
		return nil
	}
	return m.Save(RecordFromWindow(w))
}

// Load reads the record for a window id, normalizing missing or malformed
// fields to usable defaults. It never fails: a completely absent group
// yields a single empty frame.
func (m *Manager) Load(id string) Record {
	scope := settings.NewGroupScope(m.store, windowGroup(id))
	defer scope.Close()

	rec := Record{
		ID:            id,
		Addresses:     m.store.GetStringList(KeyAddresses),
		FrameScales:   m.store.GetFloatList(KeyFrameScales),
		LayoutMode:    browser.LayoutModeFromKey(m.store.GetString(KeyLayoutMode, "")),
		ProfileName:   m.store.GetString(KeyProfileName, ""),
		Geometry:      m.store.GetBlob(KeyWindowGeometry),
		WindowState:   m.store.GetBlob(KeyWindowState),
		SplitterSizes: make(map[browser.LayoutMode][][]int),
	}

	for _, modeKey := range m.store.ChildGroups(KeySplitterSizes) {
		mode := browser.LayoutModeFromKey(modeKey)
		indexes := m.store.ChildKeys(KeySplitterSizes + "/" + modeKey)
		sort.Slice(indexes, func(i, j int) bool {
			a, _ := strconv.Atoi(indexes[i])
			b, _ := strconv.Atoi(indexes[j])
			return a < b
		})
		var groups [][]int
		for _, idx := range indexes {
			if sizes := m.store.GetIntList(KeySplitterSizes + "/" + modeKey + "/" + idx); sizes != nil {
				groups = append(groups, sizes)
			}
		}
		if len(groups) > 0 {
			rec.SplitterSizes[mode] = groups
		}
	}

	rec.Normalize()
	return rec
}

// Delete removes a window's record from the store, remembering it on the
// recently-closed list so it can be reopened later.
func (m *Manager) Delete(id string) error {
	if rec := m.Load(id); m.Exists(id) {
		m.closed.Push(rec)
	}
	m.store.Remove(windowGroup(id))
	if err := m.store.Sync(); err != nil {
		return fmt.Errorf("failed to remove window %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a record group is present for the id.
func (m *Manager) Exists(id string) bool {
	for _, g := range m.store.ChildGroups(KeyWindows) {
		if g == id {
			return true
		}
	}
	return false
}

// WindowIDs enumerates the persisted window ids. Group listing is the
// primary path; the migratedWindowIds index recovers records that group
// enumeration misses.
func (m *Manager) WindowIDs() []string {
	ids := m.store.ChildGroups(KeyWindows)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, id := range m.store.GetStringList(KeyMigratedWindowIDs) {
		if !seen[id] {
			log.Printf("[SESSION] Recovering window %s from migration index", id)
			ids = append(ids, id)
			seen[id] = true
		}
	}
	return ids
}
