package browser

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// windowSource adapts the registry snapshot for fuzzy matching over each
// window's title and frame addresses.
type windowSource []*Window

func (ws windowSource) Len() int { return len(ws) }

func (ws windowSource) String(i int) string {
	w := ws[i]
	parts := append([]string{w.Title()}, w.FrameAddresses()...)
	return strings.Join(parts, " ")
}

// Search filters the registered windows by a fuzzy query against titles
// and addresses, best matches first. An empty query returns all windows
// in display order.
func (s *Synchronizer) Search(query string) []*Window {
	windows := s.reg.Windows()
	if strings.TrimSpace(query) == "" {
		return windows
	}

	matches := fuzzy.FindFrom(query, windowSource(windows))
	out := make([]*Window, 0, len(matches))
	for _, m := range matches {
		out = append(out, windows[m.Index])
	}
	return out
}
