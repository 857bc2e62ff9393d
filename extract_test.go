package beefi

import (
	"encoding/binary"
	"os"
	"testing"
)

const linktypeIEEE80211Radiotap = 127

// writePcapFile writes a minimal classic-format pcap file containing the
// given packets, for exercising ExtractFromPcap end-to-end against the real
// gopacket/pcap reader rather than a fake source.
func writePcapFile(t *testing.T, packets [][]byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "beefi-*.pcap")
	if err != nil {
		t.Fatalf("creating temp pcap file: %v", err)
	}
	defer f.Close()

	header := make([]byte, 24)
	binary.LittleEndian.PutUint32(header[0:4], 0xa1b2c3d4) // magic number
	binary.LittleEndian.PutUint16(header[4:6], 2)           // version major
	binary.LittleEndian.PutUint16(header[6:8], 4)           // version minor
	binary.LittleEndian.PutUint32(header[16:20], 65535)     // snaplen
	binary.LittleEndian.PutUint32(header[20:24], linktypeIEEE80211Radiotap)
	if _, err := f.Write(header); err != nil {
		t.Fatalf("writing pcap header: %v", err)
	}

	for _, p := range packets {
		rec := make([]byte, 16)
		binary.LittleEndian.PutUint32(rec[8:12], uint32(len(p)))
		binary.LittleEndian.PutUint32(rec[12:16], uint32(len(p)))
		if _, err := f.Write(rec); err != nil {
			t.Fatalf("writing packet record header: %v", err)
		}
		if _, err := f.Write(p); err != nil {
			t.Fatalf("writing packet data: %v", err)
		}
	}

	return f.Name()
}

// E3: batch-extracting a file with mixed 20/80 MHz frames zero-pads to the
// file-wide maximum subcarrier and angle count.
func TestExtractFromPcapMixedBandwidth(t *testing.T) {
	mimo20 := packVHTMimoControl(0, 1, 0, 0, 0, uint64(FeedbackSU), 1) // Nr=2, Nc=1
	widths20, values20 := widthsFor(2, 1, 4, 2)
	angles20 := buildAngleBits(52, widths20, values20)
	frame20 := buildFeedbackFrame(uint8(CategoryVHT), mimo20, 2, angles20)

	mimo80 := packVHTMimoControl(1, 3, 2, 0, 1, uint64(FeedbackMU), 2) // Nr=4, Nc=2
	widths80, values80 := widthsFor(4, 2, 9, 7)
	angles80 := buildAngleBits(234, widths80, values80)
	frame80 := buildFeedbackFrame(uint8(CategoryVHT), mimo80, 3, angles80)

	path := writePcapFile(t, [][]byte{frame20, frame80})

	batch, skipped, err := ExtractFromPcap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped: got %d, want 0", skipped)
	}
	if batch.SMax != 234 {
		t.Fatalf("SMax: got %d, want 234", batch.SMax)
	}
	if batch.AMax != 10 {
		t.Fatalf("AMax: got %d, want 10", batch.AMax)
	}
	if len(batch.Metadata) != 2 {
		t.Fatalf("packet count: got %d, want 2", len(batch.Metadata))
	}
	if batch.Metadata[0].Bandwidth != 20 || batch.Metadata[1].Bandwidth != 80 {
		t.Fatalf("bandwidths: got %d, %d", batch.Metadata[0].Bandwidth, batch.Metadata[1].Bandwidth)
	}
}

func TestExtractFromPcapSkipsBadFrames(t *testing.T) {
	mimo := packVHTMimoControl(0, 1, 0, 0, 0, uint64(FeedbackSU), 1)
	widths, values := widthsFor(2, 1, 4, 2)
	angles := buildAngleBits(52, widths, values)
	good := buildFeedbackFrame(uint8(CategoryVHT), mimo, 2, angles)

	// A well-formed Compressed Beamforming action frame with only 10 bytes
	// of angle payload, far short of the computed budget: this is a
	// genuinely malformed (truncated) frame, not merely non-feedback
	// traffic, so it should be counted as a skip.
	truncated := buildFeedbackFrame(uint8(CategoryVHT), mimo, 2, make([]byte, 10))

	path := writePcapFile(t, [][]byte{good, truncated})

	batch, skipped, err := ExtractFromPcap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Metadata) != 1 {
		t.Fatalf("packet count: got %d, want 1 (bad frame should be skipped, not fail the batch)", len(batch.Metadata))
	}
	if skipped != 1 {
		t.Fatalf("skipped: got %d, want 1", skipped)
	}
}

func TestExtractFromPcapMissingFile(t *testing.T) {
	if _, _, err := ExtractFromPcap("/nonexistent/path.pcap"); err == nil {
		t.Fatalf("expected error for a missing capture file")
	}
}
