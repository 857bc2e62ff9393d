package mimoctrl

import "testing"

func TestDecodeHE(t *testing.T) {
	// Fixture taken from a reference HE MIMO Control decoder's own test
	// vector: Nc=1, Nr=3, BW=20, Grouping=0, Codebook=1, FeedbackType=SU,
	// RemainingSegments=0, FirstSegment=1, RuStart=0, RuEnd=0x08, Token=55.
	buf := []byte{0b00011001, 0b10000010, 0b00000000, 0b11000100, 0b00001101}

	c, err := DecodeHE(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.NcIndex != 1 {
		t.Errorf("NcIndex: got %d, want 1", c.NcIndex)
	}
	if c.NrIndex != 3 {
		t.Errorf("NrIndex: got %d, want 3", c.NrIndex)
	}
	if c.BandwidthCode != 0 {
		t.Errorf("BandwidthCode: got %d, want 0", c.BandwidthCode)
	}
	if c.Grouping != 0 {
		t.Errorf("Grouping: got %d, want 0", c.Grouping)
	}
	if c.CodebookInfo != 1 {
		t.Errorf("CodebookInfo: got %d, want 1", c.CodebookInfo)
	}
	if c.FeedbackType != 0 {
		t.Errorf("FeedbackType: got %d, want 0", c.FeedbackType)
	}
	if c.TokenNumber != 55 {
		t.Errorf("TokenNumber: got %d, want 55", c.TokenNumber)
	}
}

func TestDecodeHETruncated(t *testing.T) {
	if _, err := DecodeHE([]byte{0x00, 0x00, 0x00, 0x00}); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}

func TestDecodeVHTTruncated(t *testing.T) {
	if _, err := DecodeVHT([]byte{0x00, 0x00, 0x00, 0x00, 0x00}); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}

func TestDecodeVHTRoundTrip(t *testing.T) {
	// Hand-packed 48-bit field, LSB-first: NcIndex=2(3b), NrIndex=3(3b),
	// BandwidthCode=1(2b), Grouping=0(2b), CodebookInfo=1(1b),
	// FeedbackType=1(2b), RemainingSegments=0(3b), FirstSegment=1(1b),
	// 25 reserved bits of 0, TokenNumber=21(6b).
	var bits uint64
	pos := 0
	put := func(v uint64, n int) {
		bits |= v << pos
		pos += n
	}
	put(2, 3)
	put(3, 3)
	put(1, 2)
	put(0, 2)
	put(1, 1)
	put(1, 2)
	put(0, 3)
	put(1, 1)
	put(0, 25)
	put(21, 6)

	buf := make([]byte, VHTLen)
	for i := 0; i < VHTLen; i++ {
		buf[i] = byte(bits >> (8 * i))
	}

	c, err := DecodeVHT(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.NcIndex != 2 || c.NrIndex != 3 || c.BandwidthCode != 1 || c.Grouping != 0 ||
		c.CodebookInfo != 1 || c.FeedbackType != 1 || c.TokenNumber != 21 {
		t.Fatalf("got %+v", c)
	}
}

func TestBandwidthMHz(t *testing.T) {
	cases := map[uint8]uint16{0: 20, 1: 40, 2: 80, 3: 160}
	for code, want := range cases {
		if got := BandwidthMHz(code); got != want {
			t.Errorf("BandwidthMHz(%d): got %d, want %d", code, got, want)
		}
	}
}
