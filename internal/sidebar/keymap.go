package sidebar

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the sidebar.
type KeyMap struct {
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	Enter         key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Home          key.Binding
	End           key.Binding
	ExpandAll     key.Binding
	CollapseAll   key.Binding
	Refresh       key.Binding
	ToggleHidden  key.Binding
	CompactIndent key.Binding
	Yank          key.Binding
	MarkCopy      key.Binding
	MarkCut       key.Binding
	ClearMarks    key.Binding
	Search        key.Binding
	ViewFiles     key.Binding
	ViewSearch    key.Binding
	ViewBuffers   key.Binding
	ViewGit       key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("E"),
		),
		CollapseAll: key.NewBinding(
			key.WithKeys("W"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R", "f5"),
		),
		ToggleHidden: key.NewBinding(
			key.WithKeys("."),
		),
		CompactIndent: key.NewBinding(
			key.WithKeys("alt+i"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
		),
		MarkCopy: key.NewBinding(
			key.WithKeys("c"),
		),
		MarkCut: key.NewBinding(
			key.WithKeys("x"),
		),
		ClearMarks: key.NewBinding(
			key.WithKeys("esc"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
		),
		ViewFiles: key.NewBinding(
			key.WithKeys("1"),
		),
		ViewSearch: key.NewBinding(
			key.WithKeys("2"),
		),
		ViewBuffers: key.NewBinding(
			key.WithKeys("3"),
		),
		ViewGit: key.NewBinding(
			key.WithKeys("4"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
		),
	}
}
