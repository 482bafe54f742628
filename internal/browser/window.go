package browser

// The toolkit layer is an external collaborator: everything it owns sits
// behind the Chrome interface, and the core never touches a widget.

// LayoutMode selects how a window arranges its frames.
type LayoutMode int

const (
	Vertical LayoutMode = iota
	Horizontal
	Grid
)

// Key returns the stable settings key for a layout mode. Splitter sizes
// are persisted per mode under this key so switching modes does not
// clobber another mode's saved geometry.
func (m LayoutMode) Key() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Grid:
		return "grid"
	default:
		return "vertical"
	}
}

func LayoutModeFromKey(key string) LayoutMode {
	switch key {
	case "horizontal":
		return Horizontal
	case "grid":
		return Grid
	default:
		return Vertical
	}
}

// Frame scale bounds. Out-of-range persisted values are clamped on load.
const (
	MinFrameScale     = 0.5
	MaxFrameScale     = 1.75
	DefaultFrameScale = 1.0
	FrameScaleStep    = 0.1
)

// ClampScale forces a scale factor into the supported range.
func ClampScale(scale float64) float64 {
	if scale < MinFrameScale {
		return MinFrameScale
	}
	if scale > MaxFrameScale {
		return MaxFrameScale
	}
	return scale
}

// Frame is one content section of a window: an address and its zoom scale.
// The window owns the ordered frame list directly; frame order is never
// re-derived from live widgets.
type Frame struct {
	Address string
	Scale   float64
}

// Chrome is the toolkit-facing surface of a window. The headless
// implementation is used when no toolkit layer is attached.
type Chrome interface {
	Show()
	Raise()
	Activate()
	Restore()
	IsMinimized() bool
	IsActive() bool
	SetTitle(title string)
	SetAlwaysOnTop(onTop bool)
	ApplyWindowMenu(entries []MenuEntry)
}

// Window is the core's model of one top-level browser window. All methods
// must be called from the UI event loop.
type Window struct {
	id          string
	profileName string
	ephemeral   bool

	frames        []Frame
	layoutMode    LayoutMode
	splitterSizes map[LayoutMode][][]int
	geometry      []byte
	windowState   []byte

	chrome  Chrome
	title   string
	changed func()
}

// NewWindow builds a window with a single empty frame. Ephemeral windows
// are never persisted and always start empty.
func NewWindow(id, profileName string, ephemeral bool, chrome Chrome) *Window {
	if chrome == nil {
		chrome = NewHeadlessChrome()
	}
	return &Window{
		id:            id,
		profileName:   profileName,
		ephemeral:     ephemeral,
		frames:        []Frame{{Scale: DefaultFrameScale}},
		layoutMode:    Vertical,
		splitterSizes: make(map[LayoutMode][][]int),
		chrome:        chrome,
	}
}

func (w *Window) ID() string          { return w.id }
func (w *Window) Ephemeral() bool     { return w.ephemeral }
func (w *Window) ProfileName() string { return w.profileName }
func (w *Window) Title() string       { return w.title }
func (w *Window) Chrome() Chrome      { return w.chrome }

// SetChangeHook installs a callback fired after every structural change
// (frame add/remove/reorder/readdress, scale, layout, profile switch).
func (w *Window) SetChangeHook(fn func()) { w.changed = fn }

func (w *Window) notifyChanged() {
	if w.changed != nil {
		w.changed()
	}
}

func (w *Window) SetProfileName(name string) {
	if name == w.profileName {
		return
	}
	w.profileName = name
	w.notifyChanged()
}

// ProfileDisplayName is what the title and menus show for this window's
// profile. Ephemeral windows display as Incognito.
func (w *Window) ProfileDisplayName() string {
	if w.ephemeral {
		return "Incognito"
	}
	return w.profileName
}

func (w *Window) FrameCount() int { return len(w.frames) }

func (w *Window) FrameAddresses() []string {
	out := make([]string, len(w.frames))
	for i, f := range w.frames {
		out[i] = f.Address
	}
	return out
}

func (w *Window) FrameScales() []float64 {
	out := make([]float64, len(w.frames))
	for i, f := range w.frames {
		out[i] = f.Scale
	}
	return out
}

// SetFrames replaces the frame list from an address list and an
// index-aligned scale list. An empty address list becomes a single empty
// frame; missing scales default to 1.0 and all scales are clamped.
func (w *Window) SetFrames(addresses []string, scales []float64) {
	if len(addresses) == 0 {
		addresses = []string{""}
	}
	frames := make([]Frame, len(addresses))
	for i, addr := range addresses {
		scale := DefaultFrameScale
		if i < len(scales) {
			scale = scales[i]
		}
		frames[i] = Frame{Address: addr, Scale: ClampScale(scale)}
	}
	w.frames = frames
	w.notifyChanged()
}

// InsertFrameAfter adds a new empty frame after position pos.
func (w *Window) InsertFrameAfter(pos int) {
	if pos < 0 || pos >= len(w.frames) {
		pos = len(w.frames) - 1
	}
	frames := make([]Frame, 0, len(w.frames)+1)
	frames = append(frames, w.frames[:pos+1]...)
	frames = append(frames, Frame{Scale: DefaultFrameScale})
	frames = append(frames, w.frames[pos+1:]...)
	w.frames = frames
	w.notifyChanged()
}

// RemoveFrame deletes the frame at pos. The last remaining frame is never
// removed.
func (w *Window) RemoveFrame(pos int) bool {
	if len(w.frames) <= 1 || pos < 0 || pos >= len(w.frames) {
		return false
	}
	w.frames = append(w.frames[:pos], w.frames[pos+1:]...)
	w.notifyChanged()
	return true
}

// RemoveLastFrame drops the frame at the end of the list (close-frame
// shortcut behavior). Returns false when only one frame remains, in which
// case the caller should close the window instead.
func (w *Window) RemoveLastFrame() bool {
	return w.RemoveFrame(len(w.frames) - 1)
}

func (w *Window) MoveFrameUp(pos int) bool {
	if pos <= 0 || pos >= len(w.frames) {
		return false
	}
	w.frames[pos], w.frames[pos-1] = w.frames[pos-1], w.frames[pos]
	w.notifyChanged()
	return true
}

func (w *Window) MoveFrameDown(pos int) bool {
	if pos < 0 || pos >= len(w.frames)-1 {
		return false
	}
	w.frames[pos], w.frames[pos+1] = w.frames[pos+1], w.frames[pos]
	w.notifyChanged()
	return true
}

func (w *Window) SetFrameAddress(pos int, address string) {
	if pos < 0 || pos >= len(w.frames) {
		return
	}
	w.frames[pos].Address = address
	w.notifyChanged()
}

func (w *Window) SetFrameScale(pos int, scale float64) {
	if pos < 0 || pos >= len(w.frames) {
		return
	}
	w.frames[pos].Scale = ClampScale(scale)
	w.notifyChanged()
}

// ResetToSingleEmptyFrame is the New Window behavior: one empty frame,
// nothing persisted until the user changes something.
func (w *Window) ResetToSingleEmptyFrame() {
	w.frames = []Frame{{Scale: DefaultFrameScale}}
	w.notifyChanged()
}

func (w *Window) LayoutMode() LayoutMode { return w.layoutMode }

func (w *Window) SetLayoutMode(m LayoutMode) {
	if m == w.layoutMode {
		// Re-selecting the current layout resets its splitters to defaults.
		delete(w.splitterSizes, m)
		return
	}
	// Switching layouts starts the target layout with default splitter
	// positions rather than an older saved configuration.
	delete(w.splitterSizes, m)
	w.layoutMode = m
	w.notifyChanged()
}

// SplitterSizesFor returns the saved pane extents for a layout mode, one
// slice per resizable pane group.
func (w *Window) SplitterSizesFor(m LayoutMode) [][]int {
	return w.splitterSizes[m]
}

// RestoreSplitterSizes installs saved pane extents for a layout mode.
func (w *Window) RestoreSplitterSizes(m LayoutMode, sizes [][]int) {
	if len(sizes) == 0 {
		delete(w.splitterSizes, m)
		return
	}
	w.splitterSizes[m] = sizes
}

func (w *Window) GeometryBlob() []byte            { return w.geometry }
func (w *Window) WindowStateBlob() []byte         { return w.windowState }
func (w *Window) RestoreGeometry(blob []byte)     { w.geometry = blob }
func (w *Window) RestoreWindowState(blob []byte)  { w.windowState = blob }

func (w *Window) Show()                 { w.chrome.Show() }
func (w *Window) SetAlwaysOnTop(v bool) { w.chrome.SetAlwaysOnTop(v) }
func (w *Window) Raise()                { w.chrome.Raise() }
func (w *Window) ActivateInput()        { w.chrome.Activate() }
func (w *Window) IsMinimized() bool     { return w.chrome.IsMinimized() }
func (w *Window) IsActive() bool        { return w.chrome.IsActive() }

func (w *Window) setTitle(title string) {
	w.title = title
	w.chrome.SetTitle(title)
}

// ActivateWindow makes a window visible, un-minimizes it, raises it and
// gives it input focus. Both the Window menu entries and the
// single-instance activation path use this exact sequence.
func ActivateWindow(w *Window) {
	if w == nil {
		return
	}
	w.chrome.Show()
	if w.chrome.IsMinimized() {
		w.chrome.Restore()
	}
	w.chrome.Raise()
	w.chrome.Activate()
}
