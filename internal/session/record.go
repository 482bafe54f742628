package session

import (
	"github.com/nightvsknight/phraims/internal/browser"
)

// Settings store keys used by the session layer. The windows group holds
// one child group per persisted window, keyed by its UUID.
const (
	KeyWindows           = "windows"
	KeyAddresses         = "addresses"
	KeyFrameScales       = "frameScales"
	KeyLayoutMode        = "layoutMode"
	KeyWindowGeometry    = "windowGeometry"
	KeyWindowState       = "windowState"
	KeyProfileName       = "profileName"
	KeySplitterSizes     = "splitterSizes"
	KeyCurrentProfile    = "currentProfile"
	KeyAlwaysOnTop       = "alwaysOnTop"
	KeyMigrationDone     = "migrationDone"
	KeyMigratedWindowIDs = "migratedWindowIds"
)

// Record is the full persisted state of one window.
type Record struct {
	ID            string
	Addresses     []string
	FrameScales   []float64
	LayoutMode    browser.LayoutMode
	ProfileName   string
	Geometry      []byte
	WindowState   []byte
	SplitterSizes map[browser.LayoutMode][][]int
}

// Normalize enforces the load-time invariants: the address list is never
// empty, the scale list is index-aligned with it, and every scale is
// inside the supported range.
func (r *Record) Normalize() {
	if len(r.Addresses) == 0 {
		r.Addresses = []string{""}
	}
	scales := make([]float64, len(r.Addresses))
	for i := range r.Addresses {
		scale := browser.DefaultFrameScale
		if i < len(r.FrameScales) {
			scale = r.FrameScales[i]
		}
		scales[i] = browser.ClampScale(scale)
	}
	r.FrameScales = scales
	if r.SplitterSizes == nil {
		r.SplitterSizes = make(map[browser.LayoutMode][][]int)
	}
}

// RecordFromWindow snapshots a window's current in-memory state.
func RecordFromWindow(w *browser.Window) Record {
	sizes := make(map[browser.LayoutMode][][]int)
	for _, m := range []browser.LayoutMode{browser.Vertical, browser.Horizontal, browser.Grid} {
		if s := w.SplitterSizesFor(m); len(s) > 0 {
			sizes[m] = s
		}
	}
	return Record{
		ID:            w.ID(),
		Addresses:     w.FrameAddresses(),
		FrameScales:   w.FrameScales(),
		LayoutMode:    w.LayoutMode(),
		ProfileName:   w.ProfileName(),
		Geometry:      w.GeometryBlob(),
		WindowState:   w.WindowStateBlob(),
		SplitterSizes: sizes,
	}
}

// Apply restores a record into a window model.
func (r Record) Apply(w *browser.Window) {
	w.SetFrames(r.Addresses, r.FrameScales)
	w.SetLayoutMode(r.LayoutMode)
	for m, sizes := range r.SplitterSizes {
		w.RestoreSplitterSizes(m, sizes)
	}
	if len(r.Geometry) > 0 {
		w.RestoreGeometry(r.Geometry)
	}
	if len(r.WindowState) > 0 {
		w.RestoreWindowState(r.WindowState)
	}
}
