// ABOUTME: Host clock conversion interface for output scheduling
// ABOUTME: Default identity implementation; platform-specific hosts can supply their own
package output

// Timebase converts between the scheduler's local monotonic microsecond
// clock and whatever clock a real output device's host callback runs on.
// This module has no platform-specific host clock to convert against, so
// IdentityTimebase is the only implementation shipped here; a caller
// embedding this package on a platform with a real device timebase (e.g.
// CoreAudio's mach_absolute_time ratio) can supply its own.
type Timebase interface {
	// ToHostTicks converts a local monotonic microsecond timestamp to the
	// host clock's native tick units.
	ToHostTicks(localMicros int64) int64

	// FromHostTicks converts a host clock tick value back to local
	// monotonic microseconds.
	FromHostTicks(hostTicks int64) int64
}

// IdentityTimebase treats the host clock as identical to the local
// monotonic microsecond clock. Correct whenever the output device runs
// on the same clock the scheduler does (true for oto's pipe-fed player,
// which has no independent host callback clock of its own).
type IdentityTimebase struct{}

// ToHostTicks returns localMicros unchanged.
func (IdentityTimebase) ToHostTicks(localMicros int64) int64 {
	return localMicros
}

// FromHostTicks returns hostTicks unchanged.
func (IdentityTimebase) FromHostTicks(hostTicks int64) int64 {
	return hostTicks
}
