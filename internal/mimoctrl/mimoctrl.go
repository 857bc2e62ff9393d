// Package mimoctrl decodes the VHT and HE MIMO Control fields carried by
// Compressed Beamforming Action frames. Both layouts pack the same core
// subfields (Nc/Nr index, bandwidth, grouping, codebook, feedback type,
// sounding dialog token) at different bit widths and byte lengths; this
// package exposes one decoded shape for both, selected by the caller
// according to the frame's action category (VHT=21 vs HE=30).
package mimoctrl

import (
	"errors"

	"beefi/internal/bitreader"
)

// ErrTruncated is returned when fewer bytes are available than the MIMO
// Control field requires.
var ErrTruncated = errors.New("mimoctrl: truncated MIMO control field")

// Control is the decoded MIMO Control field, in the shape common to both
// the VHT and HE layouts.
type Control struct {
	NcIndex       uint8
	NrIndex       uint8
	BandwidthCode uint8 // 0=20MHz, 1=40MHz, 2=80MHz, 3=160MHz
	Grouping      uint8 // 0 = Ng=1 (the only supported grouping)
	CodebookInfo  uint8
	FeedbackType  uint8
	TokenNumber   uint8
}

// VHTLen is the byte length of the VHT MIMO Control field.
const VHTLen = 6

// HELen is the byte length of the HE MIMO Control field.
const HELen = 5

// DecodeVHT decodes the 6-byte VHT MIMO Control field:
// Nc index (3 bits), Nr index (3 bits), Bandwidth (2 bits), Grouping (2
// bits), Codebook (1 bit), Feedback Type (2 bits), Remaining Feedback
// Segments (3 bits), First Feedback Segment (1 bit), Reserved (25 bits),
// Sounding Dialog Token Number (6 bits).
func DecodeVHT(buf []byte) (Control, error) {
	if len(buf) < VHTLen {
		return Control{}, ErrTruncated
	}
	r := bitreader.New(buf, 0)
	return decode(r, 25)
}

// DecodeHE decodes the 5-byte HE MIMO Control field. It shares the same
// leading fields as VHT except Grouping is a single bit, and carries an
// extra RU start/end index pair (7 bits each) in place of part of VHT's
// reserved span.
func DecodeHE(buf []byte) (Control, error) {
	if len(buf) < HELen {
		return Control{}, ErrTruncated
	}
	r := bitreader.New(buf, 0)
	c, err := decodeHead(r, 1)
	if err != nil {
		return Control{}, err
	}
	if err := skip(r, 7+7); err != nil { // ru_start_index, ru_end_index
		return Control{}, err
	}
	token, err := r.Read(6)
	if err != nil {
		return Control{}, err
	}
	c.TokenNumber = uint8(token)
	return c, nil
}

// decode reads the common head through First Feedback Segment using a 2-bit
// grouping field, skips reservedBits of padding, and reads the trailing
// 6-bit token.
func decode(r *bitreader.Reader, reservedBits int) (Control, error) {
	c, err := decodeHead(r, 2)
	if err != nil {
		return Control{}, err
	}
	if err := skip(r, reservedBits); err != nil {
		return Control{}, err
	}
	token, err := r.Read(6)
	if err != nil {
		return Control{}, err
	}
	c.TokenNumber = uint8(token)
	return c, nil
}

// decodeHead reads the fields common to both layouts up to and including
// First Feedback Segment: Nc index, Nr index, Bandwidth, Grouping (width
// groupingBits), Codebook, Feedback Type, Remaining Feedback Segments,
// First Feedback Segment.
func decodeHead(r *bitreader.Reader, groupingBits int) (Control, error) {
	var c Control

	nc, err := r.Read(3)
	if err != nil {
		return Control{}, ErrTruncated
	}
	c.NcIndex = uint8(nc)

	nr, err := r.Read(3)
	if err != nil {
		return Control{}, ErrTruncated
	}
	c.NrIndex = uint8(nr)

	bw, err := r.Read(2)
	if err != nil {
		return Control{}, ErrTruncated
	}
	c.BandwidthCode = uint8(bw)

	grouping, err := r.Read(groupingBits)
	if err != nil {
		return Control{}, ErrTruncated
	}
	c.Grouping = uint8(grouping)

	codebook, err := r.Read(1)
	if err != nil {
		return Control{}, ErrTruncated
	}
	c.CodebookInfo = uint8(codebook)

	fbType, err := r.Read(2)
	if err != nil {
		return Control{}, ErrTruncated
	}
	c.FeedbackType = uint8(fbType)

	if err := skip(r, 3+1); err != nil { // remaining segments, first segment
		return Control{}, err
	}

	return c, nil
}

func skip(r *bitreader.Reader, n int) error {
	if r.RemainingBits() < n {
		return ErrTruncated
	}
	r.Skip(n)
	return nil
}

// BandwidthMHz converts a 2-bit bandwidth code to its value in MHz:
// (2 << code) * 10, i.e. 20/40/80/160.
func BandwidthMHz(code uint8) uint16 {
	return (2 << uint16(code)) * 10
}
