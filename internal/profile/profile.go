package profile

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nightvsknight/phraims/internal/session"
	"github.com/nightvsknight/phraims/internal/settings"
)

// DefaultName is the profile every installation starts with.
const DefaultName = "Default"

// Manager handles browsing profiles. Each profile is a directory under the
// data directory's profiles/ folder holding that profile's browsing data;
// the active profile name lives in the settings store.
type Manager struct {
	store *settings.Store
	dir   string
}

func NewManager(store *settings.Store, profilesDir string) *Manager {
	return &Manager{store: store, dir: profilesDir}
}

// ValidName rejects empty names and names that would escape the profiles
// directory.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

// Dir returns the data directory for a profile.
func (m *Manager) Dir(name string) string {
	return filepath.Join(m.dir, name)
}

// ensureDefault guarantees at least one profile directory exists.
func (m *Manager) ensureDefault() {
	if len(m.listDirs()) == 0 {
		if err := os.MkdirAll(m.Dir(DefaultName), 0755); err != nil {
			log.Printf("[PROFILE] Failed to create default profile: %v", err)
		}
	}
}

func (m *Manager) listDirs() []string {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// List returns all profile names sorted case-insensitively. There is
// always at least the default profile.
func (m *Manager) List() []string {
	m.ensureDefault()
	names := m.listDirs()
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// Exists reports whether a profile directory is present.
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(m.Dir(name))
	return err == nil && info.IsDir()
}

// Current returns the active profile name, falling back to the default
// when the stored name no longer exists.
func (m *Manager) Current() string {
	name := m.store.GetString(session.KeyCurrentProfile, DefaultName)
	if !m.Exists(name) {
		m.ensureDefault()
		return DefaultName
	}
	return name
}

// SetCurrent switches the active profile and persists the choice.
func (m *Manager) SetCurrent(name string) error {
	if !m.Exists(name) {
		return fmt.Errorf("profile %q does not exist", name)
	}
	m.store.Set(session.KeyCurrentProfile, name)
	if err := m.store.Sync(); err != nil {
		return fmt.Errorf("failed to persist current profile: %w", err)
	}
	return nil
}

// Create makes a new empty profile.
func (m *Manager) Create(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid profile name %q", name)
	}
	if m.Exists(name) {
		return fmt.Errorf("profile %q already exists", name)
	}
	if err := os.MkdirAll(m.Dir(name), 0755); err != nil {
		return fmt.Errorf("failed to create profile %q: %w", name, err)
	}
	log.Printf("[PROFILE] Created profile %q", name)
	return nil
}

// Rename moves a profile's data directory. The active profile follows its
// new name.
func (m *Manager) Rename(oldName, newName string) error {
	if !ValidName(newName) {
		return fmt.Errorf("invalid profile name %q", newName)
	}
	if !m.Exists(oldName) {
		return fmt.Errorf("profile %q does not exist", oldName)
	}
	if m.Exists(newName) {
		return fmt.Errorf("profile %q already exists", newName)
	}
	if err := os.Rename(m.Dir(oldName), m.Dir(newName)); err != nil {
		return fmt.Errorf("failed to rename profile %q: %w", oldName, err)
	}
	if m.store.GetString(session.KeyCurrentProfile, DefaultName) == oldName {
		return m.SetCurrent(newName)
	}
	return nil
}

// Delete removes a profile and its data. The last remaining profile can
// never be deleted; deleting the active profile switches to a survivor.
func (m *Manager) Delete(name string) error {
	if !m.Exists(name) {
		return fmt.Errorf("profile %q does not exist", name)
	}
	names := m.List()
	if len(names) <= 1 {
		return fmt.Errorf("cannot delete the last profile")
	}
	if err := os.RemoveAll(m.Dir(name)); err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", name, err)
	}
	log.Printf("[PROFILE] Deleted profile %q", name)

	if m.store.GetString(session.KeyCurrentProfile, DefaultName) == name {
		for _, survivor := range m.List() {
			if survivor != name {
				return m.SetCurrent(survivor)
			}
		}
	}
	return nil
}
