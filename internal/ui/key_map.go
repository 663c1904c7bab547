package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	moveUp   key.Binding
	moveDown key.Binding
	play     key.Binding
	lock     key.Binding
	mute     key.Binding
	sound    key.Binding
	volUp    key.Binding
	volDown  key.Binding
	add      key.Binding
	edit     key.Binding
	remove   key.Binding
	rename   key.Binding
	help     key.Binding
	quit     key.Binding

	next   key.Binding
	submit key.Binding
	back   key.Binding
	yes    key.Binding
	no     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		moveUp:   key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		moveDown: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		play:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "play/stop")),
		lock:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lock")),
		mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		sound:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sound")),
		volUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename list")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		next:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.add, k.edit, k.remove, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.moveUp, k.moveDown},
		{k.play, k.lock, k.mute, k.sound},
		{k.volUp, k.volDown, k.add, k.edit},
		{k.remove, k.rename, k.help, k.quit},
	}
}
