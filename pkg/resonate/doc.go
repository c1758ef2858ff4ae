// ABOUTME: High-level Resonate library API
// ABOUTME: Provides the Player type for connecting to a server and playing synchronized audio
// Package resonate provides a high-level Player API for Resonate audio
// streaming, wrapping pkg/session.Controller behind a simple
// connect/volume/mute/close surface.
//
// For lower-level control, see pkg/session, pkg/protocol, pkg/clock,
// pkg/scheduler, and pkg/audio.
//
// Example:
//
//	player, err := resonate.NewPlayer(resonate.PlayerConfig{
//	    ServerAddr: "localhost:8927",
//	    PlayerName: "Living Room",
//	    Volume:     80,
//	})
//	err = player.Connect()
//	defer player.Close()
package resonate
