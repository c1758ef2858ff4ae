// ABOUTME: Timestamp-based playback scheduler
// ABOUTME: Orders decoded PCM chunks by play-out instant and emits them on a fixed tick
package scheduler

import (
	"container/heap"
	"context"
	"log"
	"sync"
	"time"

	"github.com/resonate-audio/resonate-go/pkg/clock"
)

const (
	// Tick is how often the scheduler inspects the head of its queue.
	Tick = 10 * time.Millisecond

	// Window is the playback tolerance: a chunk more than Window early is
	// left queued, a chunk more than Window late is dropped.
	Window = 50 * time.Millisecond

	// MaxQueue is the hard cap on queued chunks. Scheduling past this
	// drops the earliest-keyed (stalest) entry.
	MaxQueue = 100
)

// ScheduledChunk is one decoded PCM chunk waiting for its play-out instant.
type ScheduledChunk struct {
	PCM            []byte
	PlayAtLocal    int64 // local monotonic µs
	SourceServerTS int64 // server domain µs, for diagnostics
	seq            int64 // insertion order, for FIFO stability on ties
}

// Stats is a point-in-time snapshot of scheduler counters.
type Stats struct {
	Received            int64
	Played              int64
	DroppedLate         int64
	DroppedOverflow     int64
	DroppedOther        int64 // decode failures: chunk discarded before scheduling
	DroppedBackPressure int64 // sink had no capacity: ingest refused
	QueueLen            int
	BufferFillMs        int64
}

// Scheduler orders decoded chunks by play_at_local and emits them to its
// output channel on a fixed tick, honoring a ±Window tolerance and an
// overflow drop-oldest policy. The now function is injectable so tests can
// drive the tick deterministically; when it is nil the scheduler uses a
// local monotonic clock (see New).
type Scheduler struct {
	mu    sync.Mutex
	queue chunkHeap
	seq   int64

	nowLocalMicros func() int64

	output chan ScheduledChunk
	ctx    context.Context
	cancel context.CancelFunc

	running bool
	tickers sync.WaitGroup

	stats Stats
}

// New creates a Scheduler. nowLocalMicros supplies the current local
// monotonic time in microseconds; pass nil to use a monotonic clock counting
// microseconds from the Scheduler's creation (callers typically pass a
// closure over their own monotonic base).
func New(nowLocalMicros func() int64) *Scheduler {
	if nowLocalMicros == nil {
		origin := time.Now()
		nowLocalMicros = func() int64 { return time.Since(origin).Microseconds() }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		queue:          chunkHeap{},
		nowLocalMicros: nowLocalMicros,
		output:         make(chan ScheduledChunk, MaxQueue),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Schedule converts a server timestamp to local time via sync, then
// inserts the chunk into the queue in play-time order. If the queue is at
// MaxQueue, the earliest-keyed (stalest) entry is dropped to make room —
// newer frames are more likely to still be playable.
func (s *Scheduler) Schedule(pcm []byte, serverTS int64, clk *clock.Sync) {
	playAt := clk.ServerToLocal(serverTS)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) >= MaxQueue {
		heap.Pop(&s.queue)
		s.stats.DroppedOverflow++
	}

	heap.Push(&s.queue, ScheduledChunk{
		PCM:            pcm,
		PlayAtLocal:    playAt,
		SourceServerTS: serverTS,
		seq:            s.seq,
	})
	s.seq++
	s.stats.Received++
}

// RecordDecodeDrop bumps dropped_other for a chunk discarded because its
// codec frame failed to decode, per spec's DecodeError handling: the chunk
// never reaches the queue, so Schedule is never called for it.
func (s *Scheduler) RecordDecodeDrop() {
	s.mu.Lock()
	s.stats.DroppedOther++
	s.mu.Unlock()
}

// RecordBackPressureDrop bumps the BackPressure counter for a chunk whose
// ingest was refused because the sink had no capacity for it.
func (s *Scheduler) RecordBackPressureDrop() {
	s.mu.Lock()
	s.stats.DroppedBackPressure++
	s.mu.Unlock()
}

// Start begins the tick loop. Calling Start while already running is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.tickers.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.tickers.Done()

	ticker := time.NewTicker(Tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.processTick()
		}
	}
}

func (s *Scheduler) processTick() {
	now := s.now()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		head := s.queue[0]
		delay := head.PlayAtLocal - now

		switch {
		case delay > int64(Window/time.Microsecond):
			s.mu.Unlock()
			return

		case delay < -int64(Window/time.Microsecond):
			heap.Pop(&s.queue)
			s.stats.DroppedLate++
			s.mu.Unlock()
			log.Printf("scheduler: dropped late chunk, %dµs behind window", -delay)
			continue

		default:
			chunk := heap.Pop(&s.queue).(ScheduledChunk)
			s.stats.Played++
			s.mu.Unlock()

			select {
			case s.output <- chunk:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func (s *Scheduler) now() int64 {
	if s.nowLocalMicros != nil {
		return s.nowLocalMicros()
	}
	return time.Now().UnixMicro()
}

// Emitted returns the channel the Audio Sink adapter should read from.
func (s *Scheduler) Emitted() <-chan ScheduledChunk {
	return s.output
}

// Stop pauses the tick loop but preserves the output channel and queued
// contents; Start resumes it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	if running {
		s.cancel()
		s.tickers.Wait()
		// a fresh context is needed so a subsequent Start can run again
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
}

// Finish stops the tick loop permanently and closes the output channel.
func (s *Scheduler) Finish() {
	s.Stop()
	close(s.output)
}

// Clear discards all queued chunks without emitting them.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = chunkHeap{}
}

// Stats returns a snapshot of scheduler counters, including queue_len and
// an estimate of how many milliseconds of audio are currently buffered
// (from the earliest to the latest queued chunk's play_at).
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.stats
	snap.QueueLen = len(s.queue)
	if len(s.queue) > 0 {
		earliest, latest := s.queue[0].PlayAtLocal, s.queue[0].PlayAtLocal
		for _, c := range s.queue {
			if c.PlayAtLocal < earliest {
				earliest = c.PlayAtLocal
			}
			if c.PlayAtLocal > latest {
				latest = c.PlayAtLocal
			}
		}
		snap.BufferFillMs = (latest - earliest) / 1000
	}
	return snap
}

// chunkHeap is a container/heap.Interface ordering ScheduledChunks by
// PlayAtLocal ascending, stable (FIFO) on ties via the insertion sequence.
type chunkHeap []ScheduledChunk

func (h chunkHeap) Len() int { return len(h) }

func (h chunkHeap) Less(i, j int) bool {
	if h[i].PlayAtLocal != h[j].PlayAtLocal {
		return h[i].PlayAtLocal < h[j].PlayAtLocal
	}
	return h[i].seq < h[j].seq
}

func (h chunkHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *chunkHeap) Push(x interface{}) {
	*h = append(*h, x.(ScheduledChunk))
}

func (h *chunkHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
