package browser

// HeadlessChrome is the default Chrome when no toolkit layer is attached.
// It tracks visibility, minimized and active state in memory so the core
// behaves identically with or without a real window on screen.
type HeadlessChrome struct {
	visible     bool
	minimized   bool
	active      bool
	alwaysOnTop bool
	title       string
	menu        []MenuEntry
}

func NewHeadlessChrome() *HeadlessChrome {
	return &HeadlessChrome{}
}

func (c *HeadlessChrome) Show()    { c.visible = true }
func (c *HeadlessChrome) Raise()   {}
func (c *HeadlessChrome) Restore() { c.minimized = false }

func (c *HeadlessChrome) Activate() {
	c.visible = true
	c.active = true
}

func (c *HeadlessChrome) Deactivate()       { c.active = false }
func (c *HeadlessChrome) Minimize()         { c.minimized = true }
func (c *HeadlessChrome) IsMinimized() bool { return c.minimized }
func (c *HeadlessChrome) IsActive() bool    { return c.active }
func (c *HeadlessChrome) IsVisible() bool   { return c.visible }

func (c *HeadlessChrome) SetTitle(title string) { c.title = title }
func (c *HeadlessChrome) Title() string         { return c.title }

func (c *HeadlessChrome) SetAlwaysOnTop(onTop bool) { c.alwaysOnTop = onTop }
func (c *HeadlessChrome) AlwaysOnTop() bool         { return c.alwaysOnTop }

func (c *HeadlessChrome) ApplyWindowMenu(entries []MenuEntry) { c.menu = entries }
func (c *HeadlessChrome) WindowMenu() []MenuEntry             { return c.menu }
