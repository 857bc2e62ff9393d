package beefi

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSource is a packetSource fed from a fixed slice of raw packets, used
// to drive the Bee's producer loop deterministically in tests.
type fakeSource struct {
	mu      sync.Mutex
	packets [][]byte
	idx     int
	closed  bool
	// gate is closed to allow Next to return EndOfStream only once the
	// source is closed (used to pace producer vs. poll).
	gate chan struct{}
}

var errFakeEnd = errors.New("fakeSource: end of stream")

func newFakeSource(packets [][]byte) *fakeSource {
	return &fakeSource{packets: packets, gate: make(chan struct{})}
}

func (f *fakeSource) Next() (float64, []byte, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0, nil, errFakeEnd
	}
	if f.idx >= len(f.packets) {
		f.mu.Unlock()
		<-f.gate // block until the test closes gate or Close is called
		return 0, nil, errFakeEnd
	}
	p := f.packets[f.idx]
	f.idx++
	f.mu.Unlock()
	return 0, p, nil
}

func (f *fakeSource) consumed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idx
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.gate)
	return nil
}

// buildE1Frame is a convenience wrapper around the parser test helpers to
// produce one valid feedback packet.
func buildE1Frame(token uint64) []byte {
	mimo := packVHTMimoControl(0, 1, 0, 0, 0, uint64(FeedbackSU), token)
	widths, values := widthsFor(2, 1, 4, 2)
	angleBits := buildAngleBits(52, widths, values)
	return buildFeedbackFrame(uint8(CategoryVHT), mimo, 2, angleBits)
}

// E4: a non-feedback packet is discarded silently; the Bee buffers nothing.
func TestBeeDiscardsNonFeedback(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive")
	}
	radiotap := make([]byte, 8)
	radiotap[2] = 8
	mac := make([]byte, dot11HeaderLen)
	mac[0] = 0x08 // Data frame, not Action
	nonFeedback := append(append([]byte{}, radiotap...), mac...)

	src := newFakeSource([][]byte{nonFeedback})
	bee := NewBee(src, BeeConfig{QueueSize: 4})
	defer bee.Stop()

	deadline := time.Now().Add(time.Second)
	for src.consumed() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok := bee.Poll(); ok {
		t.Fatalf("expected no buffered result for a non-feedback packet")
	}
	if skipped := bee.SkippedCount(); skipped != 0 {
		t.Fatalf("SkippedCount: got %d, want 0 (NotFeedback must not be counted)", skipped)
	}
}

// E5: queue_size=4, push 10 frames, poll exactly 4 before stop; expect the
// last 4 enqueued survive and the drop counter is 6.
func TestBeeDropOldestE5(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive")
	}
	packets := make([][]byte, 10)
	for i := range packets {
		packets[i] = buildE1Frame(uint64(i))
	}
	src := newFakeSource(packets)
	bee := NewBee(src, BeeConfig{QueueSize: 4})

	deadline := time.Now().Add(2 * time.Second)
	for bee.DroppedCount() < 6 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	got := make([]uint8, 0, 4)
	for i := 0; i < 4; i++ {
		d, ok := bee.Poll()
		if !ok {
			t.Fatalf("expected 4 buffered results, got %d", i)
		}
		got = append(got, d.TokenNumber)
	}
	bee.Stop()

	want := []uint8{6, 7, 8, 9}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("entry %d: got token %d, want %d (order/drop-oldest mismatch)", i, got[i], w)
		}
	}
	if dropped := bee.DroppedCount(); dropped != 6 {
		t.Fatalf("dropped: got %d, want 6", dropped)
	}
}

// Invariant 6: Stop is idempotent and Poll returns ok=false after the drain.
func TestBeeStopIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive")
	}
	src := newFakeSource([][]byte{buildE1Frame(1)})
	bee := NewBee(src, BeeConfig{QueueSize: 4})

	deadline := time.Now().Add(time.Second)
	for bee.QueueLen() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	bee.Stop()
	bee.Stop() // must not block or panic

	if !bee.Stopped() {
		t.Fatalf("expected Stopped() == true after Stop")
	}

	if _, ok := bee.Poll(); !ok {
		t.Fatalf("expected the one buffered item to still be pollable after Stop")
	}
	if _, ok := bee.Poll(); ok {
		t.Fatalf("expected Poll to return ok=false once drained")
	}
}
