package cli

import "github.com/charmbracelet/bubbles/key"

// viewKeys are the viewer's key bindings.
type viewKeys struct {
	AST, CFG, DFG key.Binding
	Reload        key.Binding

	Play, Next, Prev key.Binding

	ZoomIn, ZoomOut, Reset, Fit key.Binding
	Up, Down, Left, Right       key.Binding

	FocusNext, FocusPrev, Pin key.Binding
	Inspector, Theme          key.Binding

	Help, Close, Quit key.Binding
}

func defaultViewKeys() viewKeys {
	return viewKeys{
		AST:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "ast")),
		CFG:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "cfg")),
		DFG:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "dfg")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),

		Play: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Next: key.NewBinding(key.WithKeys("n", "."), key.WithHelp("n", "next step")),
		Prev: key.NewBinding(key.WithKeys("p", ","), key.WithHelp("p", "prev step")),

		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Reset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset")),
		Fit:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),

		FocusNext: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next neighbor")),
		FocusPrev: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev neighbor")),
		Pin:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go to neighbor")),
		Inspector: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inspector")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),

		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Close: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k viewKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Next, k.Prev, k.Fit, k.FocusNext, k.Inspector, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.AST, k.CFG, k.DFG, k.Reload},
		{k.Play, k.Next, k.Prev},
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Fit},
		{k.Up, k.Down, k.Left, k.Right},
		{k.FocusNext, k.FocusPrev, k.Pin, k.Inspector, k.Theme},
		{k.Help, k.Close, k.Quit},
	}
}
