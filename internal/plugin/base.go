package plugin

// Base carries the state every plugin shares: its metadata, widgets and
// the currently selected output mode. Embed it to get Meta, RequiredWidgets
// and SetOutputMode.
//
// Base is not synchronized; the manager never calls a plugin concurrently.
type Base struct {
	meta    Meta
	widgets []string
	mode    string
}

// NewBase returns a Base starting in the default output mode.
func NewBase(meta Meta, widgets ...string) Base {
	return Base{meta: meta, widgets: widgets, mode: meta.DefaultOutputMode}
}

func (b *Base) Meta() Meta { return b.meta }

func (b *Base) RequiredWidgets() []string {
	return append([]string(nil), b.widgets...)
}

// SetOutputMode switches the output mode; undeclared modes are rejected.
func (b *Base) SetOutputMode(mode string) error {
	if _, ok := b.meta.OutputModes[mode]; !ok {
		return OutputModeError{Mode: mode}
	}
	b.mode = mode
	return nil
}

// OutputMode returns the selected output mode.
func (b *Base) OutputMode() string { return b.mode }
