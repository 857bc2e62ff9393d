package beefi

import (
	"errors"
	"sync"
	"sync/atomic"
)

// packetSource is the narrow contract Bee needs from a capture source:
// component E's capture.Source satisfies it structurally, and tests supply
// small fakes without depending on internal/capture's pcap-backed variants.
type packetSource interface {
	Next() (float64, []byte, error)
	Close() error
}

// beeState is the streaming engine's monotonic Running -> Stopping ->
// Stopped state machine.
type beeState int32

const (
	beeRunning beeState = iota
	beeStopping
	beeStopped
)

// resultQueue is a mutex-guarded, slice-backed FIFO with a bounded
// capacity and a drop-oldest overflow policy, matching the reference
// collector's channel/mutex idioms rather than a lock-free ring.
type resultQueue struct {
	mu       sync.Mutex
	items    []BfaData
	capacity int
	dropped  uint64
}

func newResultQueue(capacity int) *resultQueue {
	return &resultQueue{capacity: capacity}
}

// push enqueues d, dropping the oldest buffered entry first if the queue is
// already at capacity.
func (q *resultQueue) push(d BfaData) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, d)
}

// pop dequeues the oldest entry, or returns ok=false if empty.
func (q *resultQueue) pop() (BfaData, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return BfaData{}, false
	}
	d := q.items[0]
	q.items = q.items[1:]
	return d, true
}

func (q *resultQueue) droppedCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *resultQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// BeeConfig configures a Bee's producer loop and queue.
type BeeConfig struct {
	// QueueSize bounds the number of buffered parsed results; overflow
	// drops the oldest entry.
	QueueSize int
}

// DefaultBeeConfig returns the streaming engine's documented defaults.
func DefaultBeeConfig() BeeConfig {
	return BeeConfig{QueueSize: 1000}
}

// Bee is the streaming engine (component F): a background producer pulling
// packets from a capture.Source, parsing them, and pushing BfaData results
// onto a bounded queue that the caller drains with Poll.
//
// A Bee with no sinks registered behaves exactly like the primary
// poll/stop contract; SetRawSink and SetMatrixQueue register the
// supplemented pollen/honey sinks alongside the primary nectar queue.
type Bee struct {
	source packetSource
	queue  *resultQueue

	state atomic.Int32

	rawSinkMu sync.Mutex
	rawSink   func(timestamp float64, raw []byte)

	matrixQueue *matrixQueue

	skipped atomic.Uint64

	done chan struct{}
	wg   sync.WaitGroup
}

// matrixQueue is the honey sink: a second bounded queue of reconstructed
// BfmData, filled inline by the producer when registered.
type matrixQueue struct {
	mu       sync.Mutex
	items    []BfmData
	capacity int
	dropped  uint64
}

func newMatrixQueue(capacity int) *matrixQueue {
	return &matrixQueue{capacity: capacity}
}

func (q *matrixQueue) push(d BfmData) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, d)
}

func (q *matrixQueue) pop() (BfmData, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return BfmData{}, false
	}
	d := q.items[0]
	q.items = q.items[1:]
	return d, true
}

// NewBee constructs a Bee bound to source and immediately spawns its
// background producer goroutine.
func NewBee(source packetSource, cfg BeeConfig) *Bee {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultBeeConfig().QueueSize
	}
	b := &Bee{
		source: source,
		queue:  newResultQueue(cfg.QueueSize),
		done:   make(chan struct{}),
	}
	b.state.Store(int32(beeRunning))
	b.wg.Add(1)
	go b.harvest()
	return b
}

// SetRawSink registers the pollen sink: fn is invoked with the timestamp
// and raw bytes of every packet the source delivers, before parsing.
func (b *Bee) SetRawSink(fn func(timestamp float64, raw []byte)) {
	b.rawSinkMu.Lock()
	defer b.rawSinkMu.Unlock()
	b.rawSink = fn
}

// SetMatrixQueue registers the honey sink with the given bounded capacity:
// every successfully parsed frame is also reconstructed and pushed here.
// Call PollMatrix to drain it.
func (b *Bee) SetMatrixQueue(capacity int) {
	b.matrixQueue = newMatrixQueue(capacity)
}

// harvest is the producer loop: source.Next -> parse -> enqueue, until
// EndOfStream/IoError.
func (b *Bee) harvest() {
	defer b.wg.Done()
	for {
		ts, raw, err := b.source.Next()
		if err != nil {
			return
		}

		b.rawSinkMu.Lock()
		sink := b.rawSink
		b.rawSinkMu.Unlock()
		if sink != nil {
			sink(ts, raw)
		}

		bfa, err := ParsePacket(raw, ts)
		if err != nil {
			if !errors.Is(err, ErrNotFeedback) {
				b.skipped.Add(1)
			}
			continue
		}

		if b.matrixQueue != nil {
			if bfm, rerr := Reconstruct(bfa); rerr == nil {
				b.matrixQueue.push(*bfm)
			}
		}

		b.queue.push(*bfa)
	}
}

// Poll performs a non-blocking dequeue: it returns the oldest buffered
// result, or ok=false if the queue is currently empty.
func (b *Bee) Poll() (BfaData, bool) {
	return b.queue.pop()
}

// PollMatrix drains the honey sink queue, if one was registered via
// SetMatrixQueue. Returns ok=false if no sink is registered or it is empty.
func (b *Bee) PollMatrix() (BfmData, bool) {
	if b.matrixQueue == nil {
		return BfmData{}, false
	}
	return b.matrixQueue.pop()
}

// DroppedCount returns the number of buffered results discarded so far by
// the drop-oldest overflow policy.
func (b *Bee) DroppedCount() uint64 {
	return b.queue.droppedCount()
}

// SkippedCount returns the number of packets discarded due to a parse
// error other than NotFeedback (the observability counter named in the
// error-handling design).
func (b *Bee) SkippedCount() uint64 {
	return b.skipped.Load()
}

// QueueLen returns the number of results currently buffered.
func (b *Bee) QueueLen() int {
	return b.queue.len()
}

// Stopped reports whether Stop has completed.
func (b *Bee) Stopped() bool {
	return beeState(b.state.Load()) == beeStopped
}

// Stop idempotently signals the source to close, joins the producer
// goroutine, and marks the engine Stopped. Subsequent Poll calls drain
// remaining buffered items and then return ok=false.
func (b *Bee) Stop() {
	if !b.state.CompareAndSwap(int32(beeRunning), int32(beeStopping)) {
		<-b.done // another Stop call is already in flight or finished
		return
	}
	b.source.Close()
	b.wg.Wait()
	b.state.Store(int32(beeStopped))
	close(b.done)
}
