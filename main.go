// ABOUTME: Entry point for the Resonate player
// ABOUTME: Parses CLI flags and starts the player application
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/resonate-audio/resonate-go/internal/discovery"
	"github.com/resonate-audio/resonate-go/internal/ui"
	"github.com/resonate-audio/resonate-go/internal/version"
	"github.com/resonate-audio/resonate-go/pkg/resonate"
)

var (
	serverAddr = flag.String("server", "", "Manual server address, host:port (skip mDNS)")
	name       = flag.String("name", "", "Player friendly name (default: hostname-resonate-player)")
	logFile    = flag.String("log-file", "resonate-player.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	useTUI := !(*noTUI || *streamLogs)

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	playerName := *name
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-resonate-player", hostname)
	}

	if !useTUI {
		log.Printf("Starting Resonate Player: %s", playerName)
		log.Printf("TUI disabled - logging to file for debugging")
	}

	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI exited with error: %v", err)
			}
		}()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	serverAddress := *serverAddr
	if serverAddress == "" {
		log.Printf("Starting server discovery...")
		disc := discovery.NewManager(discovery.Config{})
		disc.Browse()

		select {
		case server := <-disc.Servers():
			serverAddress = fmt.Sprintf("%s:%d", server.Host, server.Port)
			log.Printf("Discovered server at %s", serverAddress)
		case <-time.After(10 * time.Second):
			log.Fatalf("No server found after 10 seconds")
		}
		disc.Stop()
	}

	config := resonate.PlayerConfig{
		ServerAddr: serverAddress,
		PlayerName: playerName,
		Volume:     100,
		DeviceInfo: resonate.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
		OnStateChange: func(state resonate.PlayerState) {
			updateTUI(ui.StatusMsg{
				Codec:      state.Codec,
				SampleRate: state.SampleRate,
				Channels:   state.Channels,
				BitDepth:   state.BitDepth,
				Volume:     state.Volume,
			})
			connected := state.Connected
			updateTUI(ui.StatusMsg{
				Connected:  &connected,
				ServerName: serverAddress,
			})
		},
		OnMetadata: func(meta resonate.Metadata) {
			updateTUI(ui.StatusMsg{
				Title:       meta.Title,
				Artist:      meta.Artist,
				Album:       meta.Album,
				ArtworkPath: meta.ArtworkURL,
			})
		},
		OnError: func(err error) {
			log.Printf("Player error: %v", err)
		},
	}

	player, err := resonate.NewPlayer(config)
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	if err := player.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}

	log.Printf("Connected to server: %s", serverAddress)

	if volumeCtrl != nil {
		go handleVolumeControl(player, volumeCtrl)
	}

	if tuiProg != nil {
		go statsUpdateLoop(player, updateTUI)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if volumeCtrl != nil {
		select {
		case <-volumeCtrl.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	if err := player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}

	log.Printf("Player stopped")
}

// handleVolumeControl processes volume changes from the TUI.
func handleVolumeControl(player *resonate.Player, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			player.SetVolume(vol.Volume)
			player.Mute(vol.Muted)
		case <-volumeCtrl.Quit:
			return
		}
	}
}

// statsUpdateLoop periodically pushes playback statistics to the TUI.
func statsUpdateLoop(player *resonate.Player, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	var lastGoroutines int
	var lastMemAlloc, lastMemSys uint64

	for {
		select {
		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			lastGoroutines = runtime.NumGoroutine()
			lastMemAlloc = m.Alloc
			lastMemSys = m.Sys

		case <-ticker.C:
			stats := player.Stats()

			updateTUI(ui.StatusMsg{
				Received:    stats.Received,
				Played:      stats.Played,
				Dropped:     stats.DroppedLate + stats.DroppedOverflow + stats.DroppedOther + stats.DroppedBackPressure,
				BufferDepth: int(stats.BufferFillMs),
				SyncRTT:     stats.SyncRTT,
				SyncOffset:  stats.SyncOffset,
				SyncQuality: stats.SyncQuality,
				Goroutines:  lastGoroutines,
				MemAlloc:    lastMemAlloc,
				MemSys:      lastMemSys,
			})
		}
	}
}
