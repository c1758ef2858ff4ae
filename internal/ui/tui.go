// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg is sent on the VolumeControl.Changes channel whenever the
// user adjusts volume or mute from the TUI.
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg is sent on the VolumeControl.Quit channel when the user quits
// from the TUI.
type QuitMsg struct{}

// VolumeControl holds channels for volume control communication between
// the TUI goroutine and the player driving it.
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewVolumeControl creates a new volume control handler.
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model. volCtrl may be nil for testing.
func NewModel(volCtrl *VolumeControl) Model {
	return Model{
		volumeCtrl: volCtrl,
		volume:     100,
		state:      "idle",
	}
}

// Run creates the TUI program; the caller starts it with Program.Run.
func Run(volCtrl *VolumeControl) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(volCtrl), tea.WithAltScreen())
	return p, nil
}
