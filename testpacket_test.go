package beefi

// bitPacker builds a byte buffer by appending fields LSB-first, matching
// the semantics of internal/bitreader.Reader.Read: the same order a
// Compressed Beamforming frame packs its MIMO Control and angle fields in.
type bitPacker struct {
	bits []bool
}

func (p *bitPacker) put(value uint64, width int) {
	for i := 0; i < width; i++ {
		p.bits = append(p.bits, (value>>uint(i))&1 == 1)
	}
}

func (p *bitPacker) bytes() []byte {
	out := make([]byte, (len(p.bits)+7)/8)
	for i, b := range p.bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// packVHTMimoControl packs the 6-byte VHT MIMO Control field.
func packVHTMimoControl(ncIndex, nrIndex, bwCode, grouping, codebook, feedbackType, token uint64) []byte {
	p := &bitPacker{}
	p.put(ncIndex, 3)
	p.put(nrIndex, 3)
	p.put(bwCode, 2)
	p.put(grouping, 2)
	p.put(codebook, 1)
	p.put(feedbackType, 2)
	p.put(0, 3) // remaining segments
	p.put(0, 1) // first segment
	p.put(0, 25)
	p.put(token, 6)
	return p.bytes()
}

// buildActionFrame assembles a full radiotap+802.11+action-body packet: an
// 8-byte radiotap header, a 24-byte management/action MAC header, and the
// given body bytes (category, action, MIMO control, SNR bytes, angle bits).
func buildActionFrame(body []byte) []byte {
	radiotap := make([]byte, 8)
	radiotap[2] = 8 // length low byte
	radiotap[3] = 0

	mac := make([]byte, dot11HeaderLen)
	mac[0] = 0xD0 // Type=Management(0), Subtype=Action(0b1101)

	pkt := append([]byte{}, radiotap...)
	pkt = append(pkt, mac...)
	pkt = append(pkt, body...)
	return pkt
}

// buildAngleBits packs numSub copies of a fixed per-subcarrier angle
// pattern, where each pattern entry has the given bit width, LSB-first.
func buildAngleBits(numSub int, widths []int, valuePerEntry []uint64) []byte {
	p := &bitPacker{}
	for s := 0; s < numSub; s++ {
		for i, w := range widths {
			p.put(valuePerEntry[i], w)
		}
	}
	return p.bytes()
}
