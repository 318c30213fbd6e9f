package menu

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Submit  key.Binding
	Back    key.Binding
	Quit    key.Binding
	Cancel  key.Binding
	Confirm key.Binding
	Decline key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter/number", "select")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Cancel:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Confirm: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "start")),
		Decline: key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "back")),
	}
}

// bindings is the help line for one screen.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding {
	return b
}

func (b bindings) FullHelp() [][]key.Binding {
	return [][]key.Binding{b}
}

func (k keyMap) listHelp() bindings {
	return bindings{k.Up, k.Down, k.Select, k.Back, k.Quit}
}

func (k keyMap) inputHelp() bindings {
	return bindings{k.Submit, k.Back, k.Cancel}
}

func (k keyMap) confirmHelp() bindings {
	return bindings{k.Confirm, k.Decline, k.Quit}
}
