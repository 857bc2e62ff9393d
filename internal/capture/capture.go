// Package capture wraps the packet-capture library behind a single small
// contract: a blocking Next() with a timestamp and byte slice, and an
// idempotent Close(). It is fully decoupled from the beefi package's domain
// types so it can be imported by the core streaming engine without
// introducing an import cycle.
package capture

import (
	"errors"
	"io"
	"time"

	"github.com/google/gopacket/pcap"
)

// ErrEndOfStream is returned by Next when the source has no more packets to
// deliver: a file source reached EOF, or a live source's underlying handle
// was closed.
var ErrEndOfStream = errors.New("capture: end of stream")

// Options configures a live capture; File sources ignore snaplen/bufsize/
// immediate-mode knobs since a savefile carries no such settings.
type Options struct {
	// SnapLen caps bytes captured per frame.
	SnapLen int
	// BufSize is the kernel capture buffer size in bytes.
	BufSize int
	// Immediate, when true, requests immediate packet delivery instead of
	// batched kernel delivery (the inverse of the "pcap_buffer" config
	// option: pcap_buffer=false means Immediate=true).
	Immediate bool
	// BPFFilter, if non-empty, is compiled and applied to the handle.
	BPFFilter string
}

// DefaultOptions returns the defaults named in the streaming engine's
// configuration table: snaplen 4096, bufsize 1,000,000, immediate delivery.
func DefaultOptions() Options {
	return Options{SnapLen: 4096, BufSize: 1_000_000, Immediate: true}
}

// sourceImpl is the unexported interface implemented by the two capture
// variants. Callers never see it directly; they hold a *Source constructed
// via NewLive or NewFile.
type sourceImpl interface {
	next() (float64, []byte, error)
	close() error
}

// Source is a variant type over a live-interface or file capture, exposing
// one shared contract. It is safe to call Close concurrently with a
// blocked Next call; Close is idempotent.
type Source struct {
	impl sourceImpl
}

// Next blocks until a packet is available and returns its capture
// timestamp (seconds, microsecond precision) and raw bytes. It returns
// ErrEndOfStream once the source is exhausted or closed; any other read
// failure is returned as the underlying error.
func (s *Source) Next() (float64, []byte, error) {
	return s.impl.next()
}

// Close releases the underlying handle. Safe to call more than once.
func (s *Source) Close() error {
	return s.impl.close()
}

type liveSource struct {
	handle *pcap.Handle
	closed chan struct{}
}

// NewLive opens iface in promiscuous mode for live capture, honoring the
// given options (snaplen, kernel buffer size, immediate-delivery mode, and
// an optional BPF filter).
func NewLive(iface string, opts Options) (*Source, error) {
	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, err
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(opts.SnapLen); err != nil {
		return nil, err
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, err
	}
	if err := inactive.SetBufferSize(opts.BufSize); err != nil {
		return nil, err
	}
	if err := inactive.SetImmediateMode(opts.Immediate); err != nil {
		return nil, err
	}
	if err := inactive.SetTimeout(time.Second); err != nil {
		return nil, err
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, err
	}

	if opts.BPFFilter != "" {
		if err := handle.SetBPFFilter(opts.BPFFilter); err != nil {
			handle.Close()
			return nil, err
		}
	}

	src := &liveSource{
		handle: handle,
		closed: make(chan struct{}),
	}
	return &Source{impl: src}, nil
}

func (l *liveSource) next() (float64, []byte, error) {
	for {
		data, ci, err := l.handle.ZeroCopyReadPacketData()
		select {
		case <-l.closed:
			return 0, nil, ErrEndOfStream
		default:
		}
		if err == pcap.NextErrorTimeoutExpired {
			continue
		}
		if err == io.EOF {
			return 0, nil, ErrEndOfStream
		}
		if err != nil {
			return 0, nil, err
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		ts := float64(ci.Timestamp.UnixNano()) / 1e9
		return ts, buf, nil
	}
}

func (l *liveSource) close() error {
	select {
	case <-l.closed:
		return nil
	default:
		close(l.closed)
		l.handle.Close()
		return nil
	}
}

type fileSource struct {
	handle *pcap.Handle
	closed chan struct{}
}

// NewFile opens a capture file, preserving its recorded timestamps.
func NewFile(path string) (*Source, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, err
	}
	return &Source{impl: &fileSource{handle: handle, closed: make(chan struct{})}}, nil
}

func (f *fileSource) next() (float64, []byte, error) {
	select {
	case <-f.closed:
		return 0, nil, ErrEndOfStream
	default:
	}
	data, ci, err := f.handle.ZeroCopyReadPacketData()
	if err == io.EOF {
		return 0, nil, ErrEndOfStream
	}
	if err != nil {
		select {
		case <-f.closed:
			return 0, nil, ErrEndOfStream
		default:
		}
		return 0, nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	ts := float64(ci.Timestamp.UnixNano()) / 1e9
	return ts, buf, nil
}

func (f *fileSource) close() error {
	select {
	case <-f.closed:
		return nil
	default:
		close(f.closed)
		f.handle.Close()
		return nil
	}
}
