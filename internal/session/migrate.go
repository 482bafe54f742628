package session

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nightvsknight/phraims/internal/browser"
	"github.com/nightvsknight/phraims/internal/settings"
)

// Migrator repairs legacy settings layouts once per installation. Earlier
// releases wrote window state under flattened key names ("windows/x/y" as
// one literal key) or as a single set of top-level keys with no per-window
// grouping. The pass is guarded by two independent markers, a store flag
// and a file in the data directory, so losing one never repeats the scan.
type Migrator struct {
	mgr        *Manager
	markerPath string
}

func NewMigrator(mgr *Manager, markerPath string) *Migrator {
	return &Migrator{mgr: mgr, markerPath: markerPath}
}

// Done reports whether either completion marker is present.
func (m *Migrator) Done() bool {
	if m.mgr.store.GetBool(KeyMigrationDone, false) {
		return true
	}
	if _, err := os.Stat(m.markerPath); err == nil {
		return true
	}
	return false
}

// Run executes the migration. Safe to call on every launch; completed
// installations short-circuit on the markers.
func (m *Migrator) Run() error {
	if m.Done() {
		return nil
	}
	log.Printf("[MIGRATE] Starting legacy settings migration")

	m.repairFlattenedKeys()

	// If nested per-window groups exist now, there is nothing left to
	// consolidate.
	if len(m.mgr.store.ChildGroups(KeyWindows)) == 0 {
		m.consolidateTopLevel()
	}

	return m.markDone()
}

type flattenedKey struct {
	group string
	name  string
}

// findFlattenedKeys walks every group looking for leaf names that contain
// a path separator, the signature of the old buggy writers.
func (m *Migrator) findFlattenedKeys() []flattenedKey {
	var found []flattenedKey
	var walk func(group string)
	walk = func(group string) {
		for _, name := range m.mgr.store.ChildKeys(group) {
			if strings.Contains(name, "/") {
				found = append(found, flattenedKey{group: group, name: name})
			}
		}
		for _, child := range m.mgr.store.ChildGroups(group) {
			sub := child
			if group != "" {
				sub = group + "/" + child
			}
			walk(sub)
		}
	}
	walk("")
	return found
}

// repairFlattenedKeys rewrites each flattened key into its properly nested
// location, flushing after every key so a crash mid-pass leaves each
// already-repaired key valid on disk.
func (m *Migrator) repairFlattenedKeys() {
	var windowIDs []string
	seen := make(map[string]bool)

	for _, fk := range m.findFlattenedKeys() {
		value, ok := m.mgr.store.GetAt(fk.group, fk.name)
		if !ok {
			continue
		}

		full := fk.name
		if fk.group != "" {
			full = fk.group + "/" + fk.name
		}
		cut := strings.LastIndex(full, "/")
		groupPath, leaf := full[:cut], full[cut+1:]

		scope := settings.NewGroupScope(m.mgr.store, groupPath)
		m.mgr.store.Set(leaf, value)
		scope.Close()
		m.mgr.store.RemoveAt(fk.group, fk.name)

		segs := strings.Split(full, "/")
		if segs[0] == KeyWindows && len(segs) >= 3 && !seen[segs[1]] {
			seen[segs[1]] = true
			windowIDs = append(windowIDs, segs[1])
		}

		if err := m.mgr.store.Sync(); err != nil {
			log.Printf("[MIGRATE] Failed to flush after repairing %q: %v", full, err)
		} else {
			log.Printf("[MIGRATE] Repaired flattened key %q", full)
		}
	}

	if len(windowIDs) > 0 {
		m.appendMigratedIDs(windowIDs)
	}
}

// consolidateTopLevel converts the oldest layout, one global window state
// at the top level, into a nested record under a freshly minted id.
func (m *Migrator) consolidateTopLevel() {
	addresses := m.mgr.store.GetStringList(KeyAddresses)
	_, hasGeometry := m.mgr.store.Get(KeyWindowGeometry)
	_, hasLayout := m.mgr.store.Get(KeyLayoutMode)
	if len(addresses) == 0 && !hasGeometry && !hasLayout {
		return
	}

	id := uuid.NewString()
	rec := Record{
		ID:          id,
		Addresses:   addresses,
		FrameScales: m.mgr.store.GetFloatList(KeyFrameScales),
		LayoutMode:  legacyLayoutMode(m.mgr.store),
		ProfileName: m.mgr.store.GetString(KeyCurrentProfile, ""),
		Geometry:    m.mgr.store.GetBlob(KeyWindowGeometry),
		WindowState: m.mgr.store.GetBlob(KeyWindowState),
	}
	rec.SplitterSizes = legacySplitterSizes(m.mgr.store)
	rec.Normalize()

	if err := m.mgr.Save(rec); err != nil {
		log.Printf("[MIGRATE] Failed to write consolidated window %s: %v", id, err)
		return
	}

	for _, key := range []string{KeyAddresses, KeyFrameScales, KeyLayoutMode, KeyWindowGeometry, KeyWindowState, KeySplitterSizes} {
		m.mgr.store.Remove(key)
	}
	m.appendMigratedIDs([]string{id})
	log.Printf("[MIGRATE] Consolidated top-level session into window %s", id)
}

// legacyLayoutMode reads the top-level layout mode, tolerating both the
// numeric encoding of the oldest files and the current string keys.
func legacyLayoutMode(store *settings.Store) browser.LayoutMode {
	v, ok := store.Get(KeyLayoutMode)
	if !ok {
		return browser.Vertical
	}
	switch n := v.(type) {
	case string:
		return browser.LayoutModeFromKey(n)
	case int:
		return clampLayoutMode(n)
	case int64:
		return clampLayoutMode(int(n))
	case float64:
		return clampLayoutMode(int(n))
	}
	return browser.Vertical
}

func clampLayoutMode(n int) browser.LayoutMode {
	if n < int(browser.Vertical) || n > int(browser.Grid) {
		return browser.Vertical
	}
	return browser.LayoutMode(n)
}

// legacySplitterSizes reads the pre-per-window top-level splitterSizes
// group.
func legacySplitterSizes(store *settings.Store) map[browser.LayoutMode][][]int {
	out := make(map[browser.LayoutMode][][]int)
	for _, modeKey := range store.ChildGroups(KeySplitterSizes) {
		var groups [][]int
		for _, idx := range store.ChildKeys(KeySplitterSizes + "/" + modeKey) {
			if sizes := store.GetIntList(KeySplitterSizes + "/" + modeKey + "/" + idx); sizes != nil {
				groups = append(groups, sizes)
			}
		}
		if len(groups) > 0 {
			out[browser.LayoutModeFromKey(modeKey)] = groups
		}
	}
	return out
}

func (m *Migrator) appendMigratedIDs(ids []string) {
	existing := m.mgr.store.GetStringList(KeyMigratedWindowIDs)
	present := make(map[string]bool, len(existing))
	for _, id := range existing {
		present[id] = true
	}
	for _, id := range ids {
		if !present[id] {
			existing = append(existing, id)
			present[id] = true
		}
	}
	m.mgr.store.Set(KeyMigratedWindowIDs, existing)
	if err := m.mgr.store.Sync(); err != nil {
		log.Printf("[MIGRATE] Failed to flush migration index: %v", err)
	}
}

// markDone sets both completion markers. The file carries a timestamp for
// debugging only; its mere presence is what gates future runs.
func (m *Migrator) markDone() error {
	m.mgr.store.Set(KeyMigrationDone, true)
	if err := m.mgr.store.Sync(); err != nil {
		return fmt.Errorf("failed to persist migration flag: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.markerPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	payload := []byte(time.Now().Format(time.RFC3339) + "\n")
	if err := os.WriteFile(m.markerPath, payload, 0644); err != nil {
		return fmt.Errorf("failed to write migration marker: %w", err)
	}
	log.Printf("[MIGRATE] Migration complete")
	return nil
}
