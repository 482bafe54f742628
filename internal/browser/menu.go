package browser

import "fmt"

// MenuEntry is one row of a window's "Window" menu: every live window
// appears in every menu, with indicators for the active and minimized
// ones. Activate performs the same sequence the single-instance
// coordinator uses.
type MenuEntry struct {
	WindowID  string
	Title     string
	Active    bool
	Minimized bool
	Activate  func()
}

// Synchronizer keeps window titles and Window menus consistent across all
// registered windows. RebuildAll is cheap enough to run eagerly on every
// triggering event; event frequency is human-interaction-bound, so no
// debouncing or coalescing happens.
type Synchronizer struct {
	reg *Registry
}

func NewSynchronizer(reg *Registry) *Synchronizer {
	return &Synchronizer{reg: reg}
}

// TitleFor computes a window's display title from its current registry
// position, frame count and profile, e.g. "Group 3 (2) - Default".
func (s *Synchronizer) TitleFor(w *Window) string {
	return fmt.Sprintf("Group %d (%d) - %s", s.reg.IndexOf(w), w.FrameCount(), w.ProfileDisplayName())
}

// RebuildAll recomputes every window's title, then rebuilds every
// window's menu from the full registry so all menus agree.
func (s *Synchronizer) RebuildAll() {
	windows := s.reg.Windows()

	for _, w := range windows {
		w.setTitle(s.TitleFor(w))
	}

	entries := make([]MenuEntry, 0, len(windows))
	for _, w := range windows {
		target := w
		entries = append(entries, MenuEntry{
			WindowID:  w.ID(),
			Title:     w.Title(),
			Active:    w.IsActive(),
			Minimized: w.IsMinimized(),
			Activate:  func() { ActivateWindow(target) },
		})
	}

	for _, w := range windows {
		w.chrome.ApplyWindowMenu(entries)
	}
}
