package settings

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Store is a hierarchical key/value store persisted as a single TOML file.
// Keys are addressed by slash-separated group paths relative to the
// currently open group stack. Writes are in-memory until Sync is called.
type Store struct {
	mu     sync.RWMutex
	path   string
	root   map[string]interface{}
	groups []string
}

// Open loads the store file at path, or starts empty if it does not exist.
// A file that fails to parse is treated as empty rather than failing the
// caller; the application must never refuse to start over a bad store.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		root: make(map[string]interface{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := toml.Unmarshal(data, &s.root); err != nil {
		log.Printf("[SETTINGS] Failed to parse %s, starting empty: %v", path, err)
		s.root = make(map[string]interface{})
		return s, nil
	}
	if s.root == nil {
		s.root = make(map[string]interface{})
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// BeginGroup pushes one group segment onto the open-group stack. All path
// lookups are resolved relative to the open stack.
func (s *Store) BeginGroup(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, name)
}

// EndGroup pops one group segment. Unbalanced calls corrupt subsequent
// reads for the rest of the process, which is why callers should prefer
// GroupScope over manual pairing.
func (s *Store) EndGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.groups) > 0 {
		s.groups = s.groups[:len(s.groups)-1]
	}
}

// Depth reports how many groups are currently open.
func (s *Store) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}

// segments resolves a relative slash path against the open group stack.
func (s *Store) segments(path string) []string {
	segs := append([]string{}, s.groups...)
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// node walks to the group holding the final segment, optionally creating
// intermediate groups. A leaf shadowing an intermediate segment is
// replaced by a group when create is set.
func (s *Store) node(segs []string, create bool) (map[string]interface{}, bool) {
	cur := s.root
	for _, seg := range segs {
		child, ok := cur[seg].(map[string]interface{})
		if !ok {
			if !create {
				return nil, false
			}
			child = make(map[string]interface{})
			cur[seg] = child
		}
		cur = child
	}
	return cur, true
}

// Set writes a value at the given path, creating nested groups as needed.
// Byte slices are stored base64-encoded so the file stays human-editable.
func (s *Store) Set(path string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	segs := s.segments(path)
	if len(segs) == 0 {
		return
	}
	if b, ok := value.([]byte); ok {
		value = base64.StdEncoding.EncodeToString(b)
	}
	parent, _ := s.node(segs[:len(segs)-1], true)
	parent[segs[len(segs)-1]] = value
}

// Get returns the raw value at path and whether it exists.
func (s *Store) Get(path string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segs := s.segments(path)
	if len(segs) == 0 {
		return nil, false
	}
	parent, ok := s.node(segs[:len(segs)-1], false)
	if !ok {
		return nil, false
	}
	v, ok := parent[segs[len(segs)-1]]
	if !ok {
		return nil, false
	}
	if _, isGroup := v.(map[string]interface{}); isGroup {
		return nil, false
	}
	return v, true
}

// Remove deletes the value or the entire group subtree at path.
func (s *Store) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	segs := s.segments(path)
	if len(segs) == 0 {
		return
	}
	parent, ok := s.node(segs[:len(segs)-1], false)
	if !ok {
		return
	}
	delete(parent, segs[len(segs)-1])
}

// GetAt reads a leaf by its literal name inside the group at groupPath.
// Unlike Get, the name is not split on slashes; this is how the migration
// pass addresses historically flattened keys.
func (s *Store) GetAt(groupPath, name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.node(s.segments(groupPath), false)
	if !ok {
		return nil, false
	}
	v, ok := parent[name]
	if !ok {
		return nil, false
	}
	if _, isGroup := v.(map[string]interface{}); isGroup {
		return nil, false
	}
	return v, true
}

// RemoveAt deletes a leaf by its literal name inside the group at groupPath.
func (s *Store) RemoveAt(groupPath, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.node(s.segments(groupPath), false)
	if !ok {
		return
	}
	delete(parent, name)
}

// ChildGroups lists the names of child groups directly under path, sorted.
func (s *Store) ChildGroups(path string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.node(s.segments(path), false)
	if !ok {
		return nil
	}
	var names []string
	for name, v := range parent {
		if _, isGroup := v.(map[string]interface{}); isGroup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ChildKeys lists the literal leaf key names directly under path, sorted.
// Names are reported verbatim, so flattened legacy keys keep their
// embedded separators.
func (s *Store) ChildKeys(path string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parent, ok := s.node(s.segments(path), false)
	if !ok {
		return nil
	}
	var names []string
	for name, v := range parent {
		if _, isGroup := v.(map[string]interface{}); !isGroup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AllKeys returns the full slash-joined path of every leaf in the store,
// ignoring the open group stack.
func (s *Store) AllKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	var walk func(prefix string, node map[string]interface{})
	walk = func(prefix string, node map[string]interface{}) {
		for name, v := range node {
			full := name
			if prefix != "" {
				full = prefix + "/" + name
			}
			if child, isGroup := v.(map[string]interface{}); isGroup {
				walk(full, child)
			} else {
				keys = append(keys, full)
			}
		}
	}
	walk("", s.root)
	sort.Strings(keys)
	return keys
}

// Sync flushes the in-memory tree to the backing file.
func (s *Store) Sync() error {
	s.mu.RLock()
	data, err := toml.Marshal(s.root)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
