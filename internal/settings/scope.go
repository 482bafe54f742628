package settings

import "strings"

// GroupScope opens one nested group per segment of a slash-delimited path
// and closes exactly that many on Close. Deferring Close guarantees the
// open-group depth is restored on every exit path; a mismatched depth
// corrupts all subsequent reads until the process restarts.
//
//	gs := settings.NewGroupScope(s, "windows/"+id)
//	defer gs.Close()
type GroupScope struct {
	s     *Store
	depth int
}

func NewGroupScope(s *Store, path string) *GroupScope {
	gs := &GroupScope{s: s}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		s.BeginGroup(seg)
		gs.depth++
	}
	return gs
}

// Close pops the groups this scope opened. Safe to call more than once.
func (gs *GroupScope) Close() {
	for i := 0; i < gs.depth; i++ {
		gs.s.EndGroup()
	}
	gs.depth = 0
}
