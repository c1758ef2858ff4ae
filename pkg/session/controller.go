// ABOUTME: Session Controller state machine
// ABOUTME: Drives the handshake, demultiplexes protocol messages, and owns Clock Sync/Scheduler/Decoder/Sink lifecycles
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/resonate-audio/resonate-go/pkg/audio"
	"github.com/resonate-audio/resonate-go/pkg/audio/decode"
	"github.com/resonate-audio/resonate-go/pkg/audio/output"
	"github.com/resonate-audio/resonate-go/pkg/clock"
	"github.com/resonate-audio/resonate-go/pkg/protocol"
	"github.com/resonate-audio/resonate-go/pkg/scheduler"
)

// Sentinel errors. They never cross a goroutine boundary as bare error
// returns: handleStreamStart wraps ErrUnsupportedCodec and delivers it as
// EventError, while handleAudioChunk only uses ErrDecodeFailed in its
// rate-limited log line and counts the dropped chunk.
var (
	// ErrUnsupportedCodec is returned by newDecoder when stream/start names
	// a codec this client has no decoder for.
	ErrUnsupportedCodec = errors.New("session: unsupported codec")

	// ErrDecodeFailed prefixes the log line for any error a Decoder.Decode
	// call returns.
	ErrDecodeFailed = errors.New("session: decode failed")
)

// State is one node of the session state machine.
type State int

const (
	Disconnected State = iota
	Connecting
	HandshakePending
	Ready
	Streaming
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case HandshakePending:
		return "handshake_pending"
	case Ready:
		return "ready"
	case Streaming:
		return "streaming"
	default:
		return "error"
	}
}

const (
	initialSyncProbes  = 5
	initialSyncSpacing = 100 * time.Millisecond
	steadySyncInterval = 5 * time.Second
	defaultBufferBytes = 2 << 20 // 2 MiB, typical configuration
)

// defaultFormat is synthesized when a binary audio chunk arrives before
// stream/start, matching what unannounced legacy servers actually send.
var defaultFormat = audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}

// Config holds everything Controller needs to dial and identify itself, on
// top of the raw transport parameters in protocol.Config.
type Config struct {
	Transport      protocol.Config
	InitialVolume  int
	BufferCapacity int // bytes; 0 uses defaultBufferBytes
}

// Controller owns one Resonate session end-to-end: transport lifecycle,
// handshake, clock sync, decode, scheduling, and output. It is a
// single-writer state machine guarded by mu for the fields consumers read
// concurrently (state, report); the demultiplexing goroutines otherwise run
// without additional locking because each owns a disjoint piece of state.
type Controller struct {
	mu     sync.Mutex
	state  State
	report protocol.PlayerUpdate

	config Config
	client *protocol.Client
	clk    *clock.Sync
	bufMgr *scheduler.BufferManager
	out    output.Output

	sched   *scheduler.Scheduler
	decoder decode.Decoder
	format  audio.Format

	autoStarting bool
	errLog       rateLimiter

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	start time.Time // process-start monotonic origin for local timestamps
}

// New creates a Controller in the Disconnected state. out is the audio
// sink the session will Open/Write/Close as streams start and end.
func New(config Config, out output.Output) *Controller {
	if config.BufferCapacity == 0 {
		config.BufferCapacity = defaultBufferBytes
	}
	if config.InitialVolume == 0 {
		config.InitialVolume = 100
	}

	return &Controller{
		state:  Disconnected,
		report: protocol.PlayerUpdate{State: "synchronized", Volume: config.InitialVolume, Muted: false},
		config: config,
		clk:    clock.New(),
		bufMgr: scheduler.NewBufferManager(config.BufferCapacity),
		out:    out,
		events: make(chan Event, 32),
		start:  time.Now(),
	}
}

// Events returns the channel Event values are pushed to. The channel is
// never closed by Connect/Disconnect cycles; it is closed only by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// State reports the current FSM state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// localMicros returns elapsed microseconds since the controller was
// created, matching the convention that the first time-sync probe's
// timestamp is relative to the client's process-start monotonic origin.
func (c *Controller) localMicros() int64 {
	return time.Since(c.start).Microseconds()
}

// Connect dials the server and blocks until the handshake completes (or
// fails), then starts the session's background tasks: text-message
// demultiplexing, binary-frame demultiplexing, and the clock-sync probe
// loop. The scheduler emit→sink loop is started per stream by
// handleStreamStart.
func (c *Controller) Connect(ctx context.Context) error {
	c.setState(Connecting)

	c.client = protocol.NewClient(c.config.Transport)

	c.mu.Lock()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.setState(HandshakePending)
	if err := c.client.Connect(); err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("session: connect failed: %w", err)
	}

	c.setState(Ready)
	c.emit(Event{Kind: EventServerConnected})

	c.wg.Add(3)
	go c.textLoop()
	go c.binaryLoop()
	go c.clockSyncLoop()

	return nil
}

// Disconnect tears the session down: best-effort client/goodbye, cancel
// all background tasks, stop the scheduler, release the sink. The
// Controller returns to Disconnected and can be reconnected with Connect.
func (c *Controller) Disconnect(reason string) {
	c.mu.Lock()
	client := c.client
	cancel := c.cancel
	c.mu.Unlock()

	if client != nil {
		_ = client.SendGoodbye(reason)
		client.Close()
	}
	if cancel != nil {
		cancel()
	}
	// teardownStream closes the scheduler's output channel, which is what
	// lets schedulerSinkLoop (blocked in a range over it) return; it must
	// run before wg.Wait() or that wait deadlocks.
	c.teardownStream()
	c.wg.Wait()

	c.setState(Disconnected)
}

// Close permanently shuts the Controller down and closes the event
// channel. The Controller must not be reused after Close.
func (c *Controller) Close() {
	c.Disconnect("shutdown")
	close(c.events)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) emit(e Event) {
	select {
	case c.events <- e:
	case <-c.ctx.Done():
	default:
		log.Printf("session: event channel full, dropping %s event", e.Kind)
	}
}

// textLoop demultiplexes stream/start, stream/end, group/update,
// session/update, and server/command onto FSM actions. It runs on its own
// goroutine so session-state transitions are serialized: one text message
// is fully handled before the next is read.
func (c *Controller) textLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return

		case start := <-c.client.StreamStart:
			c.handleStreamStart(start)

		case <-c.client.StreamEnd:
			c.handleStreamEnd()

		case update := <-c.client.GroupUpdate:
			c.emit(Event{Kind: EventGroupUpdated, Group: update})

		case update := <-c.client.SessionUpdate:
			c.emit(Event{Kind: EventMetadataUpdated, Session: update})

		case cmd := <-c.client.ServerCommand:
			c.handleServerCommand(cmd)
		}
	}
}

// binaryLoop demultiplexes audio/artwork/visualizer frames. It runs
// independently of textLoop: decode and scheduling use the Clock Sync
// snapshot atomically and the scheduler queue is mutex-guarded, so no
// further coordination with text-message handling is required.
func (c *Controller) binaryLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return

		case frame := <-c.client.BinaryFrames:
			switch {
			case frame.Kind.IsAudioChunk():
				c.handleAudioChunk(frame)
			case frame.Kind.ArtworkChannel() >= 0:
				c.emit(Event{Kind: EventArtworkReceived, ArtworkChannel: frame.Kind.ArtworkChannel(), Artwork: frame.Payload})
			case frame.Kind == protocol.KindVisualizer:
				c.emit(Event{Kind: EventVisualizerData, Visualizer: frame.Payload})
			default:
				log.Printf("session: ignoring unknown binary frame kind %d", frame.Kind)
			}
		}
	}
}

func (c *Controller) handleStreamStart(start protocol.StreamStart) {
	if start.Player == nil {
		return
	}

	format := audio.Format{
		Codec:      string(start.Player.Codec),
		SampleRate: start.Player.SampleRate,
		Channels:   start.Player.Channels,
		BitDepth:   start.Player.BitDepth,
	}
	if start.Player.CodecHeader != "" {
		if header, err := base64.StdEncoding.DecodeString(start.Player.CodecHeader); err == nil {
			format.CodecHeader = header
		} else {
			log.Printf("session: failed to decode codec_header: %v", err)
		}
	}

	c.teardownStream()

	decoder, err := newDecoder(format)
	if err != nil {
		c.setState(Error)
		c.setReportState("error")
		c.sendReport()
		c.emit(Event{Kind: EventError, Err: fmt.Errorf("session: unsupported codec on stream start: %w", err)})
		return
	}

	if err := c.out.Open(format.SampleRate, format.Channels, format.BitDepth); err != nil {
		c.setState(Error)
		c.setReportState("error")
		c.sendReport()
		c.emit(Event{Kind: EventError, Err: fmt.Errorf("session: failed to open audio output: %w", err)})
		return
	}

	sched := scheduler.New(c.localMicros)
	sched.Start()

	c.mu.Lock()
	c.decoder = decoder
	c.format = format
	c.sched = sched
	c.mu.Unlock()

	c.bufMgr.Clear()
	c.wg.Add(1)
	go c.schedulerSinkLoop(sched)

	c.setState(Streaming)
	c.setReportState("synchronized")
	c.sendReport()
	c.emit(Event{Kind: EventStreamStarted, Format: format})
}

func (c *Controller) setReportState(state string) {
	c.mu.Lock()
	c.report.State = state
	c.mu.Unlock()
}

func (c *Controller) handleStreamEnd() {
	if c.State() != Streaming {
		return
	}
	c.teardownStream()
	c.setState(Ready)
	c.emit(Event{Kind: EventStreamEnded})
}

// teardownStream stops the scheduler, clears its queue, releases the
// decoder, and closes the sink. Safe to call when nothing is active.
func (c *Controller) teardownStream() {
	c.mu.Lock()
	sched := c.sched
	decoder := c.decoder
	c.sched = nil
	c.decoder = nil
	c.mu.Unlock()

	if sched != nil {
		sched.Finish()
	}
	if decoder != nil {
		decoder.Close()
	}
	c.bufMgr.Clear()
	if c.out != nil {
		c.out.Close()
	}
}

// currentStream returns the active decoder, scheduler, and format, or
// (nil, nil, zero) when no stream is in progress. Reading all three under
// one lock keeps binaryLoop consistent with concurrent
// teardownStream/handleStreamStart calls on textLoop.
func (c *Controller) currentStream() (decode.Decoder, *scheduler.Scheduler, audio.Format) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decoder, c.sched, c.format
}

func (c *Controller) handleAudioChunk(frame protocol.BinaryFrame) {
	c.mu.Lock()
	streaming := c.state == Streaming
	autoStarting := c.autoStarting
	c.mu.Unlock()

	if !streaming {
		if autoStarting {
			return
		}
		c.mu.Lock()
		c.autoStarting = true
		c.mu.Unlock()

		log.Printf("session: audio chunk before stream/start, synthesizing default format")
		c.handleStreamStart(protocol.StreamStart{Player: &protocol.StreamStartPlayer{
			Codec:      protocol.Codec(defaultFormat.Codec),
			SampleRate: defaultFormat.SampleRate,
			Channels:   defaultFormat.Channels,
			BitDepth:   defaultFormat.BitDepth,
		}})

		c.mu.Lock()
		c.autoStarting = false
		c.mu.Unlock()
	}

	decoder, sched, format := c.currentStream()
	if decoder == nil || sched == nil {
		return
	}

	// DecodeError never propagates past the session as an Event: the
	// affected chunk is dropped and counted, per spec's "audio-pipeline
	// errors never propagate upward past the session" rule.
	pcm, err := decoder.Decode(frame.Payload)
	if err != nil {
		if c.errLog.allow("decode") {
			log.Printf("session: %v: %v", ErrDecodeFailed, err)
		}
		sched.RecordDecodeDrop()
		return
	}

	if !c.bufMgr.HasCapacity(len(pcm)) {
		if c.errLog.allow("backpressure") {
			log.Printf("session: sink at capacity, refusing chunk ingest")
		}
		sched.RecordBackPressureDrop()
		return
	}

	playAtLocal := c.clk.ServerToLocal(frame.ServerTS)
	endTimeLocal := playAtLocal + chunkDurationMicros(format, len(pcm))

	sched.Schedule(pcm, frame.ServerTS, c.clk)
	c.bufMgr.Register(endTimeLocal, len(pcm))
}

// chunkDurationMicros estimates how long n bytes of canonical PCM take to
// play at format's sample rate, for BufferManager's end_time_local key.
func chunkDurationMicros(format audio.Format, n int) int64 {
	bytesPerFrame := format.BytesPerFrame()
	if bytesPerFrame <= 0 || format.SampleRate <= 0 {
		return 0
	}
	frames := int64(n / bytesPerFrame)
	return frames * 1_000_000 / int64(format.SampleRate)
}

func (c *Controller) handleServerCommand(cmd protocol.ServerCommand) {
	switch cmd.Command {
	case "volume":
		c.SetVolume(cmd.Volume)
	case "mute":
		c.SetMuted(cmd.Mute)
	default:
		log.Printf("session: unknown server/command: %s", cmd.Command)
	}
}

// schedulerSinkLoop drains one scheduler's emitted chunks into the sink. It
// exits when the scheduler's output channel closes (Finish was called),
// which happens on every stream boundary, so one loop instance is scoped
// to exactly one stream.
func (c *Controller) schedulerSinkLoop(s *scheduler.Scheduler) {
	defer c.wg.Done()

	for chunk := range s.Emitted() {
		if err := c.out.Write(chunk.PCM); err != nil {
			log.Printf("session: output write failed: %v", err)
			c.emit(Event{Kind: EventError, Err: fmt.Errorf("session: output write failed: %w", err)})
		}
		c.bufMgr.Prune(c.localMicros())
	}
}

// clockSyncLoop issues the initial high-frequency probe burst and then a
// steady 5s cadence, and consumes every server/time reply.
func (c *Controller) clockSyncLoop() {
	defer c.wg.Done()

	for i := 0; i < initialSyncProbes; i++ {
		sent := time.Now()
		if !c.sendProbeAndWait(initialSyncSpacing) {
			return
		}
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(initialSyncSpacing - time.Since(sent)):
		}
	}

	ticker := time.NewTicker(steadySyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sendProbeAndWait(steadySyncInterval)
		}
	}
}

// sendProbeAndWait sends one client/time probe and waits up to timeout for
// the matching server/time reply, feeding the result to Clock Sync. It
// returns false if the context was cancelled while waiting.
func (c *Controller) sendProbeAndWait(timeout time.Duration) bool {
	t1 := c.localMicros()
	if err := c.client.SendClientTime(t1); err != nil {
		log.Printf("session: failed to send client/time: %v", err)
		return true
	}

	select {
	case resp := <-c.client.TimeSyncResp:
		t4 := c.localMicros()
		c.clk.ProcessSample(resp.ClientTransmitted, resp.ServerReceived, resp.ServerTransmitted, t4)
		return true
	case <-time.After(timeout):
		return true
	case <-c.ctx.Done():
		return false
	}
}

// SetVolume sets the player's volume (0-100, clamped), applies it to the
// output sink, and emits a player/update to the server.
func (c *Controller) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	c.mu.Lock()
	c.report.Volume = volume
	c.mu.Unlock()

	if c.out != nil {
		c.out.SetVolume(volume)
	}
	c.sendReport()
}

// SetMuted sets the player's mute flag, applies it to the output sink, and
// emits a player/update to the server.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	c.report.Muted = muted
	c.mu.Unlock()

	if c.out != nil {
		c.out.SetMuted(muted)
	}
	c.sendReport()
}

// Report returns a snapshot of the current PlayerReport.
func (c *Controller) Report() protocol.PlayerUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// ClockStats returns the current offset, round-trip time, and quality from
// Clock Sync. Like clock.Sync.Stats, it ages the quality to Lost once 5s
// have passed without an accepted sample.
func (c *Controller) ClockStats() (offset, rtt int64, quality clock.Quality) {
	return c.clk.Stats()
}

// SchedulerStats returns a snapshot of the active stream's scheduler
// counters, or a zero value when no stream is in progress.
func (c *Controller) SchedulerStats() scheduler.Stats {
	_, sched, _ := c.currentStream()
	if sched == nil {
		return scheduler.Stats{}
	}
	return sched.Stats()
}

// CurrentFormat returns the audio format of the active stream, or the zero
// Format when no stream is in progress.
func (c *Controller) CurrentFormat() audio.Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

func (c *Controller) sendReport() {
	c.mu.Lock()
	update := c.report
	client := c.client
	c.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return
	}
	if err := client.SendPlayerUpdate(update); err != nil {
		log.Printf("session: failed to send player/update: %v", err)
	}
}

// rateLimiter suppresses duplicate log lines for the same cause within one
// second, matching the "no error logged more than once per unique cause per
// second" policy. Same idiom as pkg/clock.rateLimiter.
type rateLimiter struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func (r *rateLimiter) allow(cause string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]time.Time)
	}
	now := time.Now()
	if last, ok := r.seen[cause]; ok && now.Sub(last) < time.Second {
		return false
	}
	r.seen[cause] = now
	return true
}

func newDecoder(format audio.Format) (decode.Decoder, error) {
	switch format.Codec {
	case "pcm":
		return decode.NewPCM(format)
	case "opus":
		return decode.NewOpus(format)
	case "flac":
		return decode.NewFLAC(format)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, format.Codec)
	}
}
