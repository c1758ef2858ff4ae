// ABOUTME: Tests for the high-level Player API
// ABOUTME: Tests player creation, configuration defaults, and state before connection
package resonate

import (
	"testing"
)

func TestNewPlayer(t *testing.T) {
	config := PlayerConfig{
		ServerAddr: "localhost:8927",
		PlayerName: "Test Player",
		Volume:     80,
	}

	player, err := NewPlayer(config)
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	if player == nil {
		t.Fatal("Expected player to be created")
	}

	state := player.Status()
	if state.State != "idle" {
		t.Errorf("Expected initial state='idle', got '%s'", state.State)
	}
	if state.Volume != 80 {
		t.Errorf("Expected volume=80, got %d", state.Volume)
	}
	if state.Connected {
		t.Error("Expected connected=false initially")
	}

	player.Close()
}

func TestNewPlayerDefaults(t *testing.T) {
	config := PlayerConfig{
		ServerAddr: "localhost:8927",
		PlayerName: "Test Player",
	}

	player, err := NewPlayer(config)
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	defer player.Close()

	if player.config.Volume != 100 {
		t.Errorf("Expected default volume=100, got %d", player.config.Volume)
	}
	if player.config.DeviceInfo.ProductName == "" {
		t.Error("Expected default ProductName")
	}
	if player.config.DeviceInfo.Manufacturer == "" {
		t.Error("Expected default Manufacturer")
	}
	if player.config.DeviceInfo.SoftwareVersion == "" {
		t.Error("Expected default SoftwareVersion")
	}
}

func TestPlayerSetVolumeBeforeConnect(t *testing.T) {
	player, err := NewPlayer(PlayerConfig{ServerAddr: "localhost:8927", PlayerName: "Test Player"})
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	defer player.Close()

	if err := player.SetVolume(50); err != nil {
		t.Errorf("SetVolume failed: %v", err)
	}
	if got := player.Status().Volume; got != 50 {
		t.Errorf("Status().Volume = %d, want 50", got)
	}

	if err := player.SetVolume(150); err != nil {
		t.Errorf("SetVolume failed: %v", err)
	}
	if got := player.Status().Volume; got != 100 {
		t.Errorf("Status().Volume = %d, want clamped 100", got)
	}

	if err := player.SetVolume(-10); err != nil {
		t.Errorf("SetVolume failed: %v", err)
	}
	if got := player.Status().Volume; got != 0 {
		t.Errorf("Status().Volume = %d, want clamped 0", got)
	}
}

func TestPlayerMuteBeforeConnect(t *testing.T) {
	player, err := NewPlayer(PlayerConfig{ServerAddr: "localhost:8927", PlayerName: "Test Player"})
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	defer player.Close()

	if err := player.Mute(true); err != nil {
		t.Errorf("Mute failed: %v", err)
	}
	if !player.Status().Muted {
		t.Error("Expected muted=true")
	}

	if err := player.Mute(false); err != nil {
		t.Errorf("Mute failed: %v", err)
	}
	if player.Status().Muted {
		t.Error("Expected muted=false")
	}
}

func TestPlayerStateChangeCallback(t *testing.T) {
	stateChanges := 0

	player, err := NewPlayer(PlayerConfig{
		ServerAddr: "localhost:8927",
		PlayerName: "Test Player",
		OnStateChange: func(s PlayerState) {
			stateChanges++
		},
	})
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	defer player.Close()

	player.SetVolume(50)

	if stateChanges == 0 {
		t.Error("Expected OnStateChange to be called at least once")
	}
}

func TestPlayerStatsBeforeConnect(t *testing.T) {
	player, err := NewPlayer(PlayerConfig{ServerAddr: "localhost:8927", PlayerName: "Test Player"})
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}
	defer player.Close()

	stats := player.Stats()
	if stats.Received != 0 {
		t.Errorf("Expected Received=0 before connect, got %d", stats.Received)
	}
	if stats.Played != 0 {
		t.Errorf("Expected Played=0 before connect, got %d", stats.Played)
	}
	if stats.BufferFillMs != 0 {
		t.Errorf("Expected BufferFillMs=0 before connect, got %d", stats.BufferFillMs)
	}
}

func TestPlayerClose(t *testing.T) {
	player, err := NewPlayer(PlayerConfig{ServerAddr: "localhost:8927", PlayerName: "Test Player"})
	if err != nil {
		t.Fatalf("Failed to create player: %v", err)
	}

	if err := player.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	state := player.Status()
	if state.Connected {
		t.Error("Expected connected=false after close")
	}
	if state.State != "idle" {
		t.Errorf("Expected state='idle' after close, got '%s'", state.State)
	}
}

func BenchmarkNewPlayer(b *testing.B) {
	config := PlayerConfig{ServerAddr: "localhost:8927", PlayerName: "Bench Player"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		player, err := NewPlayer(config)
		if err != nil {
			b.Fatalf("Failed to create player: %v", err)
		}
		player.Close()
	}
}
