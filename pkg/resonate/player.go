// ABOUTME: High-level Player API for Resonate streaming
// ABOUTME: Wraps pkg/session.Controller behind a simple connect/volume/mute/close surface
package resonate

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/resonate-audio/resonate-go/pkg/audio/output"
	"github.com/resonate-audio/resonate-go/pkg/clock"
	"github.com/resonate-audio/resonate-go/pkg/protocol"
	"github.com/resonate-audio/resonate-go/pkg/session"
)

// PlayerConfig holds player configuration.
type PlayerConfig struct {
	// ServerAddr is the server address (host:port).
	ServerAddr string

	// PlayerName is the display name for this player.
	PlayerName string

	// Volume is the initial volume (0-100).
	Volume int

	// DeviceInfo provides device identification.
	DeviceInfo DeviceInfo

	// EnableArtwork advertises the artwork role in client/hello.
	EnableArtwork bool

	// EnableVisualizer advertises the visualizer role in client/hello.
	EnableVisualizer bool

	// OnMetadata is called when session/update carries new track metadata.
	OnMetadata func(Metadata)

	// OnStateChange is called when playback state changes.
	OnStateChange func(PlayerState)

	// OnArtwork is called when an artwork-channel binary frame arrives.
	OnArtwork func(channel int, data []byte)

	// OnVisualizer is called when a visualizer binary frame arrives.
	OnVisualizer func(data []byte)

	// OnError is called when errors occur.
	OnError func(error)
}

// DeviceInfo describes the player device.
type DeviceInfo struct {
	ProductName     string
	Manufacturer    string
	SoftwareVersion string
}

// Metadata contains track information.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	ArtworkURL  string
	Track       int
	Year        int
	Duration    int // seconds
}

// PlayerState describes the current state.
type PlayerState struct {
	State      string // "idle", "playing", "error"
	Volume     int
	Muted      bool
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Connected  bool
}

// PlayerStats contains playback statistics.
type PlayerStats struct {
	Received            int64
	Played              int64
	DroppedLate         int64
	DroppedOverflow     int64
	DroppedOther        int64
	DroppedBackPressure int64
	BufferFillMs        int64
	SyncRTT             int64
	SyncOffset          int64
	SyncQuality         clock.Quality
}

// Player provides high-level audio playback from Resonate servers.
type Player struct {
	config     PlayerConfig
	controller *session.Controller
	out        output.Output

	state PlayerState
	ctx   context.Context
	stop  context.CancelFunc
}

// NewPlayer creates a new player with the given configuration.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if config.Volume == 0 {
		config.Volume = 100
	}
	if config.DeviceInfo.ProductName == "" {
		config.DeviceInfo.ProductName = "Resonate Player"
	}
	if config.DeviceInfo.Manufacturer == "" {
		config.DeviceInfo.Manufacturer = "Resonate"
	}
	if config.DeviceInfo.SoftwareVersion == "" {
		config.DeviceInfo.SoftwareVersion = "1.0.0"
	}

	out := output.NewOto()

	transport := protocol.Config{
		ServerAddr: config.ServerAddr,
		ClientID:   uuid.New().String(),
		Name:       config.PlayerName,
		Version:    1,
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     config.DeviceInfo.ProductName,
			Manufacturer:    config.DeviceInfo.Manufacturer,
			SoftwareVersion: config.DeviceInfo.SoftwareVersion,
		},
		PlayerSupport: protocol.PlayerSupport{
			SupportFormats: []protocol.AudioFormat{
				{Codec: protocol.CodecPCM, Channels: 2, SampleRate: 192000, BitDepth: 24},
				{Codec: protocol.CodecPCM, Channels: 2, SampleRate: 96000, BitDepth: 24},
				{Codec: protocol.CodecPCM, Channels: 2, SampleRate: 48000, BitDepth: 16},
				{Codec: protocol.CodecPCM, Channels: 2, SampleRate: 44100, BitDepth: 16},
				{Codec: protocol.CodecFLAC, Channels: 2, SampleRate: 48000, BitDepth: 24},
				{Codec: protocol.CodecOpus, Channels: 2, SampleRate: 48000, BitDepth: 16},
			},
			BufferCapacity:    1 << 20,
			SupportedCommands: []string{"volume", "mute"},
		},
	}
	if config.EnableArtwork {
		transport.ArtworkSupport = &protocol.ArtworkSupport{Channels: 1, SupportFormats: []string{"jpeg", "png"}}
	}
	if config.EnableVisualizer {
		transport.VisualizerSupport = &protocol.VisualizerSupport{BufferCapacity: 1 << 18}
	}

	controller := session.New(session.Config{
		Transport:     transport,
		InitialVolume: config.Volume,
	}, out)

	ctx, cancel := context.WithCancel(context.Background())

	p := &Player{
		config:     config,
		controller: controller,
		out:        out,
		ctx:        ctx,
		stop:       cancel,
		state: PlayerState{
			State:     "idle",
			Volume:    config.Volume,
			Muted:     false,
			Connected: false,
		},
	}

	return p, nil
}

// Connect establishes a connection to the server, completes the protocol
// handshake, and starts consuming session events in the background.
func (p *Player) Connect() error {
	if err := p.controller.Connect(p.ctx); err != nil {
		return fmt.Errorf("resonate: connect failed: %w", err)
	}

	p.state.Connected = true
	p.state.State = "idle"
	p.notifyStateChange()

	go p.eventLoop()
	return nil
}

func (p *Player) eventLoop() {
	for ev := range p.controller.Events() {
		switch ev.Kind {
		case session.EventServerConnected:
			log.Printf("resonate: connected to %s", p.config.ServerAddr)

		case session.EventStreamStarted:
			p.state.State = "playing"
			p.state.Codec = ev.Format.Codec
			p.state.SampleRate = ev.Format.SampleRate
			p.state.Channels = ev.Format.Channels
			p.state.BitDepth = ev.Format.BitDepth
			p.notifyStateChange()

		case session.EventStreamEnded:
			p.state.State = "idle"
			p.notifyStateChange()

		case session.EventMetadataUpdated:
			if ev.Session.Metadata != nil && p.config.OnMetadata != nil {
				p.config.OnMetadata(metadataFromSession(ev.Session.Metadata))
			}

		case session.EventArtworkReceived:
			if p.config.OnArtwork != nil {
				p.config.OnArtwork(ev.ArtworkChannel, ev.Artwork)
			}

		case session.EventVisualizerData:
			if p.config.OnVisualizer != nil {
				p.config.OnVisualizer(ev.Visualizer)
			}

		case session.EventError:
			p.state.State = "error"
			p.notifyStateChange()
			p.notifyError(ev.Err)
		}
	}
}

func metadataFromSession(m *protocol.SessionMetadata) Metadata {
	var meta Metadata
	if m.Title != nil {
		meta.Title = *m.Title
	}
	if m.Artist != nil {
		meta.Artist = *m.Artist
	}
	if m.Album != nil {
		meta.Album = *m.Album
	}
	if m.AlbumArtist != nil {
		meta.AlbumArtist = *m.AlbumArtist
	}
	if m.ArtworkURL != nil {
		meta.ArtworkURL = *m.ArtworkURL
	}
	if m.Track != nil {
		meta.Track = *m.Track
	}
	if m.Year != nil {
		meta.Year = *m.Year
	}
	if m.Duration != nil {
		meta.Duration = *m.Duration
	}
	return meta
}

// SetVolume sets the volume (0-100, clamped) and reports it to the server.
func (p *Player) SetVolume(volume int) error {
	p.controller.SetVolume(volume)
	p.state.Volume = p.controller.Report().Volume
	p.notifyStateChange()
	return nil
}

// Mute sets the mute state and reports it to the server.
func (p *Player) Mute(muted bool) error {
	p.controller.SetMuted(muted)
	p.state.Muted = muted
	p.notifyStateChange()
	return nil
}

// Status returns the current player state.
func (p *Player) Status() PlayerState {
	return p.state
}

// Stats returns playback statistics.
func (p *Player) Stats() PlayerStats {
	sched := p.controller.SchedulerStats()
	offset, rtt, quality := p.controller.ClockStats()

	return PlayerStats{
		Received:            sched.Received,
		Played:              sched.Played,
		DroppedLate:         sched.DroppedLate,
		DroppedOverflow:     sched.DroppedOverflow,
		DroppedOther:        sched.DroppedOther,
		DroppedBackPressure: sched.DroppedBackPressure,
		BufferFillMs:        sched.BufferFillMs,
		SyncRTT:             rtt,
		SyncOffset:          offset,
		SyncQuality:         quality,
	}
}

// Close disconnects and releases all resources. Safe to call without a
// prior successful Connect.
func (p *Player) Close() error {
	p.stop()
	p.controller.Close()

	p.state.Connected = false
	p.state.State = "idle"
	p.notifyStateChange()
	return nil
}

func (p *Player) notifyStateChange() {
	if p.config.OnStateChange != nil {
		p.config.OnStateChange(p.state)
	}
}

func (p *Player) notifyError(err error) {
	if p.config.OnError != nil {
		p.config.OnError(err)
	} else {
		log.Printf("resonate: player error: %v", err)
	}
}
