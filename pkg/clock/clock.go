// ABOUTME: Clock synchronization with drift compensation
// ABOUTME: Tracks both offset AND drift from NTP-style four-timestamp exchanges
package clock

import (
	"log"
	"sync"
	"time"
)

// Quality is a coarse health classification of the clock model.
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	default:
		return "lost"
	}
}

const (
	gain = 0.1 // fixed Kalman-style gain applied to every residual

	maxRTT        = 100 * time.Millisecond
	goodRTT       = 50 * time.Millisecond
	maxResidual   = 50 * time.Millisecond
	maxDrift      = 1e-3 // 1000 ppm
	lostAfter     = 5 * time.Second
	minDenomGuard = 1e-10
)

// Sync estimates the offset and drift between the server's monotonic clock
// and the local monotonic clock from repeated four-timestamp exchanges.
// All methods are safe for concurrent use; Sync is a single-writer state
// machine guarded by an internal mutex.
type Sync struct {
	mu sync.RWMutex

	offset      int64   // server ≈ local + offset, at lastUpdateLocal
	drift       float64 // dimensionless, µs/µs
	rtt         int64   // last accepted round-trip time, µs
	quality     Quality
	sampleCount int

	lastUpdateLocal int64     // local µs at which offset/drift were last updated
	lastUpdateWall  time.Time // wall-clock time of that update, for quality aging
	lastArrival     int64     // t4 of the last accepted sample, for monotonicity check

	logRate *rateLimiter
}

// New creates a clock sync estimator with zeroed state and Quality Lost.
func New() *Sync {
	return &Sync{quality: QualityLost, logRate: &rateLimiter{}}
}

// ProcessSample ingests one four-point NTP-style exchange:
//
//	t1 = client send, t2 = server receive, t3 = server send, t4 = client receive
//
// all in microseconds, t1/t4 in the local monotonic domain and t2/t3 in the
// server domain. Samples that fail the sanity checks are rejected and leave
// the model unchanged.
func (s *Sync) ProcessSample(t1, t2, t3, t4 int64) {
	rtt := (t4 - t1) - (t3 - t2)
	rawOffset := ((t2 - t1) + (t3 - t4)) / 2

	s.mu.Lock()
	defer s.mu.Unlock()

	if rtt < 0 {
		s.logReject("negative rtt %dµs", rtt)
		return
	}
	if time.Duration(rtt)*time.Microsecond > maxRTT {
		s.logReject("rtt %dµs exceeds %v", rtt, maxRTT)
		return
	}
	if s.sampleCount > 0 && t4 <= s.lastArrival {
		s.logReject("non-monotonic arrival: t4=%d, last=%d", t4, s.lastArrival)
		return
	}

	switch s.sampleCount {
	case 0:
		s.offset = rawOffset
		s.drift = 0

	case 1:
		dt := float64(t4 - s.lastUpdateLocal)
		if dt > 0 {
			s.drift = float64(rawOffset-s.offset) / dt
		}
		s.offset = rawOffset

	default:
		dt := float64(t4 - s.lastUpdateLocal)
		predicted := s.offset + int64(s.drift*dt)
		residual := rawOffset - predicted

		if time.Duration(abs64(residual))*time.Microsecond > maxResidual {
			s.logReject("residual %dµs exceeds %v (possible clock jump)", residual, maxResidual)
			return
		}

		newOffset := predicted + int64(gain*float64(residual))
		newDrift := s.drift + gain*(float64(residual)/dt)
		if newDrift > maxDrift || newDrift < -maxDrift {
			s.logReject("drift %.9f exceeds ±%.0e, rejecting sample", newDrift, maxDrift)
			return
		}
		s.offset = newOffset
		s.drift = newDrift
	}

	s.rtt = rtt
	s.lastUpdateLocal = t4
	s.lastUpdateWall = time.Now()
	s.lastArrival = t4
	s.sampleCount++

	switch {
	case time.Duration(rtt)*time.Microsecond < goodRTT:
		s.quality = QualityGood
	default:
		s.quality = QualityDegraded
	}
}

// ServerToLocal maps a server-domain timestamp forward into the local
// monotonic domain using the current offset/drift model. Before the first
// accepted sample, server and local time are assumed identical.
func (s *Sync) ServerToLocal(serverMicros int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sampleCount == 0 {
		return serverMicros
	}

	denom := 1 + s.drift
	if denom > -minDenomGuard && denom < minDenomGuard {
		return serverMicros - s.offset
	}

	numerator := float64(serverMicros) - float64(s.offset) + s.drift*float64(s.lastUpdateLocal)
	return int64(numerator / denom)
}

// LocalToServer is the exact inverse of ServerToLocal.
func (s *Sync) LocalToServer(localMicros int64) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sampleCount == 0 {
		return localMicros
	}

	dt := float64(localMicros - s.lastUpdateLocal)
	return localMicros + s.offset + int64(s.drift*dt)
}

// Reset clears all accumulated state, returning the model to Quality Lost.
func (s *Sync) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offset = 0
	s.drift = 0
	s.rtt = 0
	s.quality = QualityLost
	s.sampleCount = 0
	s.lastUpdateLocal = 0
	s.lastUpdateWall = time.Time{}
	s.lastArrival = 0
}

// Stats returns the current offset, round-trip time, and quality. It has no
// side effects beyond aging the quality classification when 5s have elapsed
// without an accepted sample.
func (s *Sync) Stats() (offset, rtt int64, quality Quality) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sampleCount > 0 && time.Since(s.lastUpdateWall) > lostAfter {
		s.quality = QualityLost
	}
	return s.offset, s.rtt, s.quality
}

// SampleCount returns the number of accepted samples, for telemetry.
func (s *Sync) SampleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sampleCount
}

func (s *Sync) logReject(format string, args ...interface{}) {
	if s.logRate.allow("clock-reject") {
		log.Printf("clock sync: rejecting sample: "+format, args...)
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// rateLimiter suppresses duplicate log lines for the same cause within one
// second, matching the "no error logged more than once per unique cause per
// second" policy.
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
