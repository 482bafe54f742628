package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nightvsknight/phraims/internal/browser"
	"github.com/nightvsknight/phraims/internal/config"
	"github.com/nightvsknight/phraims/internal/instance"
	"github.com/nightvsknight/phraims/internal/profile"
	"github.com/nightvsknight/phraims/internal/session"
	"github.com/nightvsknight/phraims/internal/settings"
)

// App owns the whole window/session machinery and the UI event loop. All
// window, registry and menu mutations happen on the loop goroutine;
// anything arriving from elsewhere goes through Dispatch.
type App struct {
	cfg      *config.Config
	store    *settings.Store
	sessions *session.Manager
	profiles *profile.Manager
	registry *browser.Registry
	menus    *browser.Synchronizer
	coord    *instance.Coordinator

	// chromeFor lets a toolkit layer supply real window chrome. Nil means
	// headless, which is what tests run with.
	chromeFor func(id string) browser.Chrome

	events       chan func()
	quit         chan struct{}
	quitOnce     sync.Once
	shuttingDown bool
	alwaysOnTop  bool
}

func New(cfg *config.Config) (*App, error) {
	store, err := settings.Open(cfg.SettingsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	a := &App{
		cfg:      cfg,
		store:    store,
		sessions: session.NewManager(store, cfg.Session.MaxClosedGroups),
		profiles: profile.NewManager(store, cfg.ProfilesDir()),
		registry: browser.NewRegistry(),
		events:   make(chan func(), 64),
		quit:     make(chan struct{}),
	}
	a.menus = browser.NewSynchronizer(a.registry)
	a.registry.SetChangeHook(a.menus.RebuildAll)
	a.coord = instance.NewCoordinator(cfg.SocketPath, a.Dispatch, a.ActivateBest)
	a.alwaysOnTop = store.GetBool(session.KeyAlwaysOnTop, false)
	return a, nil
}

func (a *App) Registry() *browser.Registry  { return a.registry }
func (a *App) Menus() *browser.Synchronizer { return a.menus }
func (a *App) Sessions() *session.Manager   { return a.sessions }
func (a *App) Profiles() *profile.Manager   { return a.profiles }

// SetChromeFactory installs the toolkit hook for building real window
// chrome. Must be called before Run.
func (a *App) SetChromeFactory(fn func(id string) browser.Chrome) {
	a.chromeFor = fn
}

// Dispatch posts a function to the UI event loop.
func (a *App) Dispatch(fn func()) {
	select {
	case a.events <- fn:
	case <-a.quit:
	}
}

// Quit asks the event loop to shut down. Safe to call more than once and
// from any goroutine.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Run performs the startup sequence and then drives the UI event loop
// until Quit. Returns immediately when another instance is already
// running.
func (a *App) Run() error {
	migrator := session.NewMigrator(a.sessions, a.cfg.MigrationMarkerPath())
	if err := migrator.Run(); err != nil {
		log.Printf("[APP] Migration failed: %v", err)
	}

	delay := time.Duration(a.cfg.Instance.RetryDelayMs) * time.Millisecond
	if instance.Probe(a.cfg.SocketPath, a.cfg.Instance.RetryAttempts, delay) == instance.Secondary {
		log.Printf("[APP] Activated running instance, exiting")
		return nil
	}
	if err := a.coord.Start(); err != nil {
		log.Printf("[APP] Continuing without single-instance protection: %v", err)
	}

	a.restoreSession()
	a.menus.RebuildAll()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	for {
		select {
		case fn := <-a.events:
			fn()
		case <-sig:
			a.Quit()
		case <-a.quit:
			a.Shutdown()
			return nil
		}
	}
}

// restoreSession recreates one window per persisted record, or a single
// fresh window on first launch.
func (a *App) restoreSession() {
	ids := a.sessions.WindowIDs()
	if len(ids) == 0 {
		if _, err := a.CreateAndShowWindow("", "", false); err != nil {
			log.Printf("[APP] Failed to create initial window: %v", err)
		}
		return
	}
	for _, id := range ids {
		rec := a.sessions.Load(id)
		if _, err := a.createFromRecord(rec); err != nil {
			log.Printf("[APP] Failed to restore window %s: %v", id, err)
		}
	}
	log.Printf("[APP] Restored %d window(s)", a.registry.Len())
}

// CreateAndShowWindow builds a window, registers it and brings it to the
// front. An empty windowID mints a fresh identifier; ephemeral windows
// carry no profile and are never persisted.
func (a *App) CreateAndShowWindow(initialAddress, windowID string, ephemeral bool) (*browser.Window, error) {
	if windowID == "" {
		windowID = uuid.NewString()
	}
	profileName := ""
	if !ephemeral {
		profileName = a.profiles.Current()
	}

	w := browser.NewWindow(windowID, profileName, ephemeral, a.newChrome(windowID))
	if initialAddress != "" {
		w.SetFrameAddress(0, initialAddress)
	}
	if err := a.attach(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (a *App) createFromRecord(rec session.Record) (*browser.Window, error) {
	profileName := rec.ProfileName
	if profileName == "" {
		profileName = a.profiles.Current()
	}
	w := browser.NewWindow(rec.ID, profileName, false, a.newChrome(rec.ID))
	rec.Apply(w)
	if err := a.attach(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (a *App) newChrome(id string) browser.Chrome {
	if a.chromeFor == nil {
		return nil
	}
	return a.chromeFor(id)
}

func (a *App) attach(w *browser.Window) error {
	w.SetChangeHook(a.menus.RebuildAll)
	if err := a.registry.Register(w); err != nil {
		return err
	}
	w.SetAlwaysOnTop(a.alwaysOnTop)
	browser.ActivateWindow(w)
	return nil
}

// SavePersistentState writes a window's current state to the store.
func (a *App) SavePersistentState(w *browser.Window) {
	if err := a.sessions.SaveWindow(w); err != nil {
		log.Printf("[APP] Failed to save window %s: %v", w.ID(), err)
	}
}

// CloseWindow handles a user-initiated close. While other windows remain
// the record is deleted, so a deliberately closed window does not
// resurrect on next launch; closing the last window quits the app
// instead, and the shutdown save preserves its state.
func (a *App) CloseWindow(w *browser.Window) {
	if a.shuttingDown {
		return
	}
	if a.registry.Len() <= 1 {
		a.Quit()
		return
	}
	if !w.Ephemeral() {
		if err := a.sessions.Delete(w.ID()); err != nil {
			log.Printf("[APP] Failed to delete record for %s: %v", w.ID(), err)
		}
	}
	a.registry.Unregister(w)
}

// ReopenLastClosed restores the most recently closed window from the
// in-memory closed list.
func (a *App) ReopenLastClosed() (*browser.Window, bool) {
	rec, ok := a.sessions.Closed().PopLast()
	if !ok {
		return nil, false
	}
	if a.registry.ByID(rec.ID) != nil {
		rec.ID = uuid.NewString()
	}
	w, err := a.createFromRecord(rec)
	if err != nil {
		log.Printf("[APP] Failed to reopen window: %v", err)
		return nil, false
	}
	a.SavePersistentState(w)
	return w, true
}

// ActivateBest brings the most relevant window to the front. This is the
// single-instance activation target.
func (a *App) ActivateBest() {
	browser.ActivateWindow(a.registry.BestForActivation())
}

func (a *App) AlwaysOnTop() bool { return a.alwaysOnTop }

func (a *App) SetAlwaysOnTop(v bool) {
	a.alwaysOnTop = v
	for _, w := range a.registry.Windows() {
		w.SetAlwaysOnTop(v)
	}
	a.store.Set(session.KeyAlwaysOnTop, v)
	if err := a.store.Sync(); err != nil {
		log.Printf("[APP] Failed to persist always-on-top: %v", err)
	}
}

// Shutdown saves every persistent window unconditionally, flushes the
// store and releases the instance endpoint. Saving wins over any earlier
// per-window deletion only for windows still open at this point.
func (a *App) Shutdown() {
	if a.shuttingDown {
		return
	}
	a.shuttingDown = true
	log.Printf("[APP] Shutting down")

	for _, w := range a.registry.Windows() {
		a.SavePersistentState(w)
	}
	if err := a.store.Sync(); err != nil {
		log.Printf("[APP] Failed to flush settings: %v", err)
	}
	if err := a.coord.Stop(); err != nil {
		log.Printf("[APP] Failed to stop instance coordinator: %v", err)
	}
	a.registry.Shutdown()
}
