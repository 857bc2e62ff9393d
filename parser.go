package beefi

import (
	"beefi/internal/bitreader"
	"beefi/internal/geometry"
	"beefi/internal/mimoctrl"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Action category codes from the 802.11 Action frame header.
const (
	categoryVHT uint8 = 21
	categoryHE  uint8 = 30
)

// actionCompressedBeamforming is the Action field value for the Compressed
// Beamforming Report/Feedback action, shared by both VHT and HE.
const actionCompressedBeamforming uint8 = 0

const dot11HeaderLen = 24 // MAC header preceding the Action frame body, for test fixtures

// ParsePacket implements component C: it locates a Compressed Beamforming
// Report inside a radiotap-prefixed 802.11 frame and decodes its angle
// payload. captureTimestamp is the capture-relative timestamp in seconds,
// microsecond precision, to attach to the result.
//
// ErrNotFeedback is returned when the frame is well-formed but not
// a feedback frame this package decodes; callers that only care about
// feedback frames should discard on errors.Is(err, ErrNotFeedback).
func ParsePacket(raw []byte, captureTimestamp float64) (*BfaData, error) {
	// 1 & 2. Radiotap strip and 802.11 header filter: gopacket's own
	// layers.RadioTap/layers.Dot11 decoders handle the generic frame
	// structure, the same way _examples/ANDRVV-gapcast inspects captured
	// frames.
	packet := gopacket.NewPacket(raw, layers.LayerTypeRadioTap, gopacket.NoCopy)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, WrapParseError(KindTruncatedFrame, "decoding radiotap/802.11 headers", errLayer.Error())
	}
	if packet.Metadata().Truncated {
		return nil, NewParseError(KindTruncatedFrame, "radiotap/802.11 headers truncated")
	}

	dot11Layer := packet.Layer(layers.LayerTypeDot11)
	if dot11Layer == nil {
		return nil, NewParseError(KindTruncatedFrame, "missing 802.11 header")
	}
	dot11, ok := dot11Layer.(*layers.Dot11)
	if !ok {
		return nil, NewParseError(KindTruncatedFrame, "unexpected 802.11 layer type")
	}
	if dot11.Type != layers.Dot11TypeMgmtAction {
		return nil, ErrNotFeedback
	}
	body := dot11.LayerPayload()

	// 3. Action category filter.
	if len(body) < 2 {
		return nil, NewParseError(KindTruncatedFrame, "action body shorter than category and action fields")
	}
	category := body[0]
	action := body[1]
	if action != actionCompressedBeamforming {
		return nil, ErrNotFeedback
	}
	if category != categoryVHT && category != categoryHE {
		return nil, ErrNotFeedback
	}
	mimoField := body[2:]

	// 4. MIMO Control.
	var ctrl mimoctrl.Control
	var err error
	switch category {
	case categoryVHT:
		ctrl, err = mimoctrl.DecodeVHT(mimoField)
	case categoryHE:
		ctrl, err = mimoctrl.DecodeHE(mimoField)
	}
	if err != nil {
		return nil, WrapParseError(KindTruncatedFrame, "decoding MIMO control field", err)
	}
	if ctrl.Grouping != 0 {
		return nil, NewParseError(KindUnsupportedGrouping, "grouping != Ng=1 is not supported")
	}

	meta := BfiMetadata{
		Bandwidth:    mimoctrl.BandwidthMHz(ctrl.BandwidthCode),
		NrIndex:      ctrl.NrIndex,
		NcIndex:      ctrl.NcIndex,
		CodebookInfo: ctrl.CodebookInfo,
		FeedbackType: FeedbackType(ctrl.FeedbackType),
		Category:     ActionCategory(category),
	}
	nr, nc := meta.Nr(), meta.Nc()

	mimoLen := mimoctrl.VHTLen
	if category == categoryHE {
		mimoLen = mimoctrl.HELen
	}
	rest := mimoField[mimoLen:]

	// 5. SNR bytes: Nc+1 average-SNR bytes.
	snrBytes := nc + 1
	if len(rest) < snrBytes {
		return nil, NewParseError(KindTruncatedFrame, "truncated before average SNR bytes")
	}
	angleBytes := rest[snrBytes:]

	// 6. Angle decoding.
	subcarriers, err := geometry.SubcarrierCount(meta.Bandwidth)
	if err != nil {
		return nil, WrapParseError(KindUnsupportedGrouping, "unsupported bandwidth", err)
	}
	phiBits, psiBits, err := geometry.AngleBitWidths(meta.CodebookInfo, uint8(meta.FeedbackType))
	if err != nil {
		return nil, WrapParseError(KindUnsupportedGrouping, "unsupported feedback type/codebook", err)
	}
	pattern := geometry.AnglePattern(nr, nc)
	anglesPerSub := len(pattern)

	totalAngleBits := 0
	for _, entry := range pattern {
		if entry.Kind == geometry.Phi {
			totalAngleBits += phiBits
		} else {
			totalAngleBits += psiBits
		}
	}
	totalBits := totalAngleBits * subcarriers
	availableBits := len(angleBytes) * 8
	if availableBits < totalBits {
		return nil, NewParseError(KindTruncatedFrame, "angle payload shorter than computed budget")
	}
	if availableBits-totalBits > 7 {
		return nil, NewParseError(KindSizeMismatch, "angle payload longer than computed budget by more than one padding byte")
	}

	angles := make([]uint16, subcarriers*anglesPerSub)
	r := bitreader.New(angleBytes, 0)
	for s := 0; s < subcarriers; s++ {
		for a, entry := range pattern {
			width := psiBits
			if entry.Kind == geometry.Phi {
				width = phiBits
			}
			v, rerr := r.Read(width)
			if rerr != nil {
				return nil, WrapParseError(KindTruncatedFrame, "reading angle bits", rerr)
			}
			angles[s*anglesPerSub+a] = uint16(v)
		}
	}

	return &BfaData{
		Metadata:            meta,
		Timestamp:           captureTimestamp,
		TokenNumber:         ctrl.TokenNumber,
		BfaAngles:           angles,
		Subcarriers:         subcarriers,
		AnglesPerSubcarrier: anglesPerSub,
	}, nil
}
