// Package beefi extracts Beamforming Feedback Information from IEEE 802.11
// VHT/HE Compressed Beamforming Action frames and reconstructs the
// corresponding complex beamforming matrices.
package beefi

// FeedbackType enumerates the feedback types carried in the MIMO Control
// field. Only SU and MU determine a distinct bit-width table; CQI frames are
// recognized but rejected during angle decoding since no table 4.B entry
// covers them.
type FeedbackType uint8

const (
	FeedbackSU FeedbackType = iota
	FeedbackMU
	FeedbackCQI
)

func (f FeedbackType) String() string {
	switch f {
	case FeedbackSU:
		return "SU"
	case FeedbackMU:
		return "MU"
	case FeedbackCQI:
		return "CQI"
	default:
		return "unknown"
	}
}

// ActionCategory distinguishes the VHT and HE Compressed Beamforming action
// frame families, which carry differently laid-out MIMO Control fields.
type ActionCategory uint8

const (
	CategoryVHT ActionCategory = 21
	CategoryHE  ActionCategory = 30
)

// BfiMetadata is the decoded MIMO-control descriptor for one feedback frame.
type BfiMetadata struct {
	// Bandwidth in MHz: one of 20, 40, 80, 160.
	Bandwidth uint16
	// NrIndex is the number of receive antennas minus one (0..7).
	NrIndex uint8
	// NcIndex is the number of feedback columns minus one (0..7).
	NcIndex uint8
	// CodebookInfo selects the angle quantization bit widths (0 or 1).
	CodebookInfo uint8
	// FeedbackType is SU, MU, or CQI.
	FeedbackType FeedbackType
	// Category records which action-frame family (VHT or HE) this metadata
	// was decoded from.
	Category ActionCategory
}

// Nr returns the number of receive antennas.
func (m BfiMetadata) Nr() int { return int(m.NrIndex) + 1 }

// Nc returns the number of feedback columns (spatial streams).
func (m BfiMetadata) Nc() int { return int(m.NcIndex) + 1 }

// BfaData holds the Beamforming Feedback Angles extracted from a single
// packet.
type BfaData struct {
	Metadata BfiMetadata
	// Timestamp is seconds since the capture epoch, microsecond precision.
	Timestamp float64
	// TokenNumber is the sounding dialog token, copied verbatim.
	TokenNumber uint8

	// BfaAngles is a flat, row-major (Subcarriers x AnglesPerSubcarrier)
	// buffer of raw quantized angles, each in [0, 2^bits).
	BfaAngles          []uint16
	Subcarriers        int
	AnglesPerSubcarrier int
}

// At returns the raw angle for subcarrier s, angle index a.
func (d *BfaData) At(s, a int) uint16 {
	return d.BfaAngles[s*d.AnglesPerSubcarrier+a]
}

// BfmData is the reconstructed Beamforming Feedback Matrix for a single
// packet: same metadata/timestamp/token as the source BfaData, plus a
// complex beamforming matrix V per subcarrier.
type BfmData struct {
	Metadata    BfiMetadata
	Timestamp   float64
	TokenNumber uint8

	// FeedbackMatrix is a flat, row-major (Nr x Nc x Subcarriers) buffer of
	// complex128 entries: FeedbackMatrix[(r*Nc+c)*Subcarriers+s] is V[r][c]
	// for subcarrier s.
	FeedbackMatrix []complex128
	Nr             int
	Nc             int
	Subcarriers    int
}

// At returns V[r][c] for the given subcarrier.
func (m *BfmData) At(r, c, s int) complex128 {
	return m.FeedbackMatrix[(r*m.Nc+c)*m.Subcarriers+s]
}

// Batch is the parallel-array form of a set of BfaData packets, used by
// ExtractFromPcap and language bindings that prefer dense
// numeric-array interop over a slice of structs.
type Batch struct {
	Metadata     []BfiMetadata
	Timestamps   []float64
	TokenNumbers []uint8

	// Angles is a flat (P x SMax x AMax) buffer, zero-padded per row: rows
	// shorter than SMax (because their frame used a narrower bandwidth) are
	// padded with zeros along the subcarrier axis. The true length of row p
	// is SubcarrierCount(Metadata[p].Bandwidth).
	Angles []uint16
	SMax   int
	AMax   int
}

// SplitBatch transposes a slice of per-packet BfaData into the Batch form,
// zero-padding each row's angle matrix to the widest subcarrier count and
// angle count present in the input.
func SplitBatch(packets []BfaData) Batch {
	b := Batch{
		Metadata:     make([]BfiMetadata, len(packets)),
		Timestamps:   make([]float64, len(packets)),
		TokenNumbers: make([]uint8, len(packets)),
	}
	for _, p := range packets {
		if p.Subcarriers > b.SMax {
			b.SMax = p.Subcarriers
		}
		if p.AnglesPerSubcarrier > b.AMax {
			b.AMax = p.AnglesPerSubcarrier
		}
	}
	b.Angles = make([]uint16, len(packets)*b.SMax*b.AMax)
	for i, p := range packets {
		b.Metadata[i] = p.Metadata
		b.Timestamps[i] = p.Timestamp
		b.TokenNumbers[i] = p.TokenNumber
		for s := 0; s < p.Subcarriers; s++ {
			for a := 0; a < p.AnglesPerSubcarrier; a++ {
				b.Angles[(i*b.SMax+s)*b.AMax+a] = p.At(s, a)
			}
		}
	}
	return b
}
