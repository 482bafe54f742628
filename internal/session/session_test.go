package session

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nightvsknight/phraims/internal/browser"
	"github.com/nightvsknight/phraims/internal/settings"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := settings.Open(filepath.Join(dir, "settings.toml"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return NewManager(store, 5), dir
}

func writeRawSettings(t *testing.T, dir, content string) *settings.Store {
	t.Helper()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}
	store, err := settings.Open(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return store
}

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)

	rec := Record{
		ID:          "win-1",
		Addresses:   []string{"https://a", "https://b", ""},
		FrameScales: []float64{0.8, 1.5, 1.0},
		LayoutMode:  browser.Grid,
		ProfileName: "Work",
		Geometry:    []byte{0x01, 0x02, 0xff},
		WindowState: []byte{0x03},
		SplitterSizes: map[browser.LayoutMode][][]int{
			browser.Grid:     {{100, 200}, {30, 70}},
			browser.Vertical: {{500}},
		},
	}
	if err := mgr.Save(rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	// reload from disk through a fresh store
	store, err := settings.Open(mgr.Store().Path())
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	got := NewManager(store, 5).Load("win-1")

	if !reflect.DeepEqual(got.Addresses, rec.Addresses) {
		t.Errorf("Addresses did not round-trip: %v", got.Addresses)
	}
	if !reflect.DeepEqual(got.FrameScales, rec.FrameScales) {
		t.Errorf("FrameScales did not round-trip: %v", got.FrameScales)
	}
	if got.LayoutMode != browser.Grid {
		t.Errorf("LayoutMode did not round-trip: %v", got.LayoutMode)
	}
	if got.ProfileName != "Work" {
		t.Errorf("ProfileName did not round-trip: %q", got.ProfileName)
	}
	if !reflect.DeepEqual(got.Geometry, rec.Geometry) {
		t.Errorf("Geometry did not round-trip: %v", got.Geometry)
	}
	if !reflect.DeepEqual(got.SplitterSizes, rec.SplitterSizes) {
		t.Errorf("SplitterSizes did not round-trip: %v", got.SplitterSizes)
	}
}

func TestManager_LoadClampsScales(t *testing.T) {
	store := writeRawSettings(t, t.TempDir(), `
[windows.bad]
addresses = ["https://a", "https://b"]
frameScales = [-1.0, 9.0]
`)
	got := NewManager(store, 5).Load("bad")

	if got.FrameScales[0] != browser.MinFrameScale {
		t.Errorf("Expected -1.0 clamped to %f, got %f", browser.MinFrameScale, got.FrameScales[0])
	}
	if got.FrameScales[1] != browser.MaxFrameScale {
		t.Errorf("Expected 9.0 clamped to %f, got %f", browser.MaxFrameScale, got.FrameScales[1])
	}
}

func TestManager_LoadMissingRecordYieldsDefaults(t *testing.T) {
	mgr, _ := newTestManager(t)
	got := mgr.Load("nope")

	if !reflect.DeepEqual(got.Addresses, []string{""}) {
		t.Errorf("Expected single empty address, got %v", got.Addresses)
	}
	if got.FrameScales[0] != browser.DefaultFrameScale {
		t.Errorf("Expected default scale, got %f", got.FrameScales[0])
	}
	if got.LayoutMode != browser.Vertical {
		t.Errorf("Expected vertical default, got %v", got.LayoutMode)
	}
	if mgr.Store().Depth() != 0 {
		t.Errorf("Expected balanced group stack, depth %d", mgr.Store().Depth())
	}
}

func TestManager_LoadAlignsScaleListLength(t *testing.T) {
	store := writeRawSettings(t, t.TempDir(), `
[windows.short]
addresses = ["a", "b", "c"]
frameScales = [1.2]
`)
	got := NewManager(store, 5).Load("short")

	if len(got.FrameScales) != 3 {
		t.Fatalf("Expected 3 scales, got %d", len(got.FrameScales))
	}
	if got.FrameScales[1] != browser.DefaultFrameScale || got.FrameScales[2] != browser.DefaultFrameScale {
		t.Errorf("Expected missing scales to default, got %v", got.FrameScales)
	}
}

func TestManager_DeleteRemovesRecordAndRemembersIt(t *testing.T) {
	mgr, _ := newTestManager(t)
	rec := Record{ID: "gone", Addresses: []string{"https://a"}, FrameScales: []float64{1.0}}
	if err := mgr.Save(rec); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	if err := mgr.Delete("gone"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if mgr.Exists("gone") {
		t.Error("Expected record to be gone from the store")
	}

	reopened, ok := mgr.Closed().PopLast()
	if !ok {
		t.Fatal("Expected deleted window on the recently-closed list")
	}
	if reopened.ID != "gone" || reopened.Addresses[0] != "https://a" {
		t.Errorf("Unexpected reopened record: %+v", reopened)
	}
}

func TestManager_SaveWindowSkipsEphemeral(t *testing.T) {
	mgr, _ := newTestManager(t)
	w := browser.NewWindow("incog", "", true, nil)
	w.SetFrames([]string{"https://secret"}, nil)

	if err := mgr.SaveWindow(w); err != nil {
		t.Fatalf("SaveWindow failed: %v", err)
	}
	if mgr.Exists("incog") {
		t.Error("Expected ephemeral window to never be persisted")
	}
}

func TestManager_WindowIDsUsesMigrationIndexFallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Store().Set(KeyMigratedWindowIDs, []string{"lost-id"})
	if err := mgr.Save(Record{ID: "real", Addresses: []string{"a"}, FrameScales: []float64{1}}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	ids := mgr.WindowIDs()
	found := map[string]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found["real"] || !found["lost-id"] {
		t.Errorf("Expected both enumerated and indexed ids, got %v", ids)
	}
}

func TestClosedList_EvictsOldest(t *testing.T) {
	c := NewClosedList(2)
	c.Push(Record{ID: "a"})
	c.Push(Record{ID: "b"})
	c.Push(Record{ID: "c"})

	if c.Len() != 2 {
		t.Fatalf("Expected capacity 2, got %d", c.Len())
	}
	if rec, ok := c.PopLast(); !ok || rec.ID != "c" {
		t.Errorf("Expected most recent closure first, got %+v", rec)
	}
	if rec, ok := c.PopLast(); !ok || rec.ID != "b" {
		t.Errorf("Expected b second, got %+v", rec)
	}
	if _, ok := c.PopLast(); ok {
		t.Error("Expected a to have been evicted")
	}
}

func TestMigrator_DefaultsOnEmptyStore(t *testing.T) {
	mgr, dir := newTestManager(t)
	marker := filepath.Join(dir, "migration_done_v1")
	m := NewMigrator(mgr, marker)

	if err := m.Run(); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}

	if !mgr.Store().GetBool(KeyMigrationDone, false) {
		t.Error("Expected store migration flag set")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("Expected marker file present: %v", err)
	}
	if groups := mgr.Store().ChildGroups(KeyWindows); len(groups) != 0 {
		t.Errorf("Expected zero window groups, got %v", groups)
	}
}

func TestMigrator_RepairsFlattenedKeys(t *testing.T) {
	dir := t.TempDir()
	store := writeRawSettings(t, dir, `
"windows/abc/addresses" = ["https://a", "https://b"]
"windows/abc/frameScales" = [1.0, 1.2]
"windows/abc/layoutMode" = "horizontal"
`)
	mgr := NewManager(store, 5)
	m := NewMigrator(mgr, filepath.Join(dir, "migration_done_v1"))
	if err := m.Run(); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}

	if groups := store.ChildGroups(KeyWindows); !reflect.DeepEqual(groups, []string{"abc"}) {
		t.Fatalf("Expected nested window group, got %v", groups)
	}
	for _, name := range store.ChildKeys("") {
		if name == "windows/abc/addresses" {
			t.Error("Expected flattened key removed")
		}
	}

	rec := mgr.Load("abc")
	if !reflect.DeepEqual(rec.Addresses, []string{"https://a", "https://b"}) {
		t.Errorf("Unexpected repaired addresses: %v", rec.Addresses)
	}
	if rec.LayoutMode != browser.Horizontal {
		t.Errorf("Unexpected repaired layout mode: %v", rec.LayoutMode)
	}

	index := store.GetStringList(KeyMigratedWindowIDs)
	if !reflect.DeepEqual(index, []string{"abc"}) {
		t.Errorf("Expected window id recorded in migration index, got %v", index)
	}
}

func TestMigrator_ConsolidatesTopLevelLegacyState(t *testing.T) {
	dir := t.TempDir()
	store := writeRawSettings(t, dir, `
addresses = ["https://old1", "https://old2"]
layoutMode = 1
currentProfile = "Default"

[splitterSizes.horizontal]
0 = [300, 300]
`)
	mgr := NewManager(store, 5)
	m := NewMigrator(mgr, filepath.Join(dir, "migration_done_v1"))
	if err := m.Run(); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}

	groups := store.ChildGroups(KeyWindows)
	if len(groups) != 1 {
		t.Fatalf("Expected one consolidated window, got %v", groups)
	}
	rec := mgr.Load(groups[0])
	if !reflect.DeepEqual(rec.Addresses, []string{"https://old1", "https://old2"}) {
		t.Errorf("Unexpected consolidated addresses: %v", rec.Addresses)
	}
	if rec.LayoutMode != browser.Horizontal {
		t.Errorf("Expected numeric layout mode 1 to map to horizontal, got %v", rec.LayoutMode)
	}
	if !reflect.DeepEqual(rec.SplitterSizes[browser.Horizontal], [][]int{{300, 300}}) {
		t.Errorf("Unexpected consolidated splitter sizes: %v", rec.SplitterSizes)
	}

	if _, ok := store.Get(KeyAddresses); ok {
		t.Error("Expected legacy top-level addresses removed")
	}
	if _, ok := store.Get(KeyLayoutMode); ok {
		t.Error("Expected legacy top-level layoutMode removed")
	}
	if index := store.GetStringList(KeyMigratedWindowIDs); len(index) != 1 || index[0] != groups[0] {
		t.Errorf("Expected consolidated id in migration index, got %v", index)
	}
}

func TestMigrator_Idempotent(t *testing.T) {
	dir := t.TempDir()
	store := writeRawSettings(t, dir, `
addresses = ["https://only"]
layoutMode = 0
`)
	mgr := NewManager(store, 5)
	marker := filepath.Join(dir, "migration_done_v1")

	if err := NewMigrator(mgr, marker).Run(); err != nil {
		t.Fatalf("First migration failed: %v", err)
	}
	first := store.AllKeys()

	if err := NewMigrator(mgr, marker).Run(); err != nil {
		t.Fatalf("Second migration failed: %v", err)
	}
	second := store.AllKeys()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected second run to be a no-op:\nfirst:  %v\nsecond: %v", first, second)
	}
	if groups := store.ChildGroups(KeyWindows); len(groups) != 1 {
		t.Errorf("Expected exactly one window group after both runs, got %v", groups)
	}
}

func TestMigrator_MarkerFileAloneShortCircuits(t *testing.T) {
	dir := t.TempDir()
	store := writeRawSettings(t, dir, `
"windows/xyz/addresses" = ["https://a"]
`)
	marker := filepath.Join(dir, "migration_done_v1")
	if err := os.WriteFile(marker, []byte("2024-01-01T00:00:00Z\n"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}

	mgr := NewManager(store, 5)
	if err := NewMigrator(mgr, marker).Run(); err != nil {
		t.Fatalf("Migration failed: %v", err)
	}

	// the scan never ran: the flattened key is untouched
	if _, ok := store.GetAt("", "windows/xyz/addresses"); !ok {
		t.Error("Expected flattened key untouched when marker file present")
	}
	if groups := store.ChildGroups(KeyWindows); len(groups) != 0 {
		t.Errorf("Expected no repair with marker present, got %v", groups)
	}
}
