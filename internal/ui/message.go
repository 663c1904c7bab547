package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stagelist/internal/metronome"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPulse MsgKind = iota
	MsgPulsesClosed
	MsgCloudLoaded
)

// pulseMsg is the constructor for [MsgPulse]
func pulseMsg(p metronome.Pulse) Msg {
	return Msg{kind: MsgPulse, data: p}
}

// pulsesClosedMsg is the constructor for [MsgPulsesClosed]
func pulsesClosedMsg() Msg {
	return Msg{kind: MsgPulsesClosed}
}

// CloudLoadedMsg reports the end of the initial cloud load; err is nil when the lists came from the cloud.
func CloudLoadedMsg(err error) Msg {
	return Msg{kind: MsgCloudLoaded, data: err}
}
