// ABOUTME: Tests for BufferManager back-pressure bookkeeping
package scheduler

import "testing"

func TestBufferManagerHasCapacity(t *testing.T) {
	b := NewBufferManager(1000)
	if !b.HasCapacity(1000) {
		t.Error("should have capacity for exactly the full budget")
	}
	if b.HasCapacity(1001) {
		t.Error("should not have capacity for budget+1")
	}

	b.Register(5000, 600)
	if !b.HasCapacity(400) {
		t.Error("600 used of 1000 should leave room for 400 more")
	}
	if b.HasCapacity(401) {
		t.Error("600 used of 1000 should not leave room for 401 more")
	}
}

func TestBufferManagerPruneRemovesExpiredPrefix(t *testing.T) {
	b := NewBufferManager(10000)
	b.Register(1000, 100)
	b.Register(2000, 200)
	b.Register(3000, 300)

	b.Prune(1500) // expires only the first entry (end_time=1000)
	if got := b.Used(); got != 500 {
		t.Errorf("used after prune(1500) = %d, want 500", got)
	}

	b.Prune(3000) // expires the remaining two
	if got := b.Used(); got != 0 {
		t.Errorf("used after prune(3000) = %d, want 0", got)
	}
}

func TestBufferManagerPruneStopsAtFirstUnexpired(t *testing.T) {
	b := NewBufferManager(10000)
	b.Register(5000, 100) // expires at now=5000
	b.Register(1000, 200) // an out-of-order registration with an earlier end time

	// now=2000: the first entry (end_time=5000) is not yet expired, so
	// pruning must stop there even though the second entry (end_time=1000)
	// would itself qualify — FIFO order is not re-sorted.
	b.Prune(2000)
	if got := b.Used(); got != 300 {
		t.Errorf("used after prune(2000) = %d, want 300 (no entries pruned out of order)", got)
	}
}

func TestBufferManagerClear(t *testing.T) {
	b := NewBufferManager(1000)
	b.Register(1000, 500)
	b.Clear()
	if got := b.Used(); got != 0 {
		t.Errorf("used after Clear = %d, want 0", got)
	}
	if !b.HasCapacity(1000) {
		t.Error("full capacity should be available after Clear")
	}
}

func TestBufferManagerCapacity(t *testing.T) {
	b := NewBufferManager(2 * 1024 * 1024)
	if got := b.Capacity(); got != 2*1024*1024 {
		t.Errorf("Capacity() = %d, want 2MiB", got)
	}
}
