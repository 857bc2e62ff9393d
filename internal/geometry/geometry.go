// Package geometry holds the static lookup tables that translate a frame's
// MIMO Control fields into the shape of its angle payload: subcarrier count
// from bandwidth, and (phi bits, psi bits, angle count) from (Nr, Nc,
// codebook, feedback type).
//
// The subcarrier table and the general angle-count formula are pinned by
// the package's end-to-end test scenarios; they take precedence over the
// narrower hardcoded angle-pattern table found in the reference this was
// ported from, which this package's formula reproduces exactly for every
// (Nr, Nc) pair that table covers.
package geometry

import "errors"

// ErrUnsupportedBandwidth is returned by SubcarrierCount for any bandwidth
// outside {20, 40, 80, 160} MHz.
var ErrUnsupportedBandwidth = errors.New("geometry: unsupported bandwidth")

// ErrUnsupportedFeedback is returned by AngleBitWidths for a (codebook,
// feedback type) combination with no defined bit-width entry, notably CQI
// feedback.
var ErrUnsupportedFeedback = errors.New("geometry: unsupported feedback type / codebook combination")

// Feedback type codes, matching the 2-bit MIMO Control Feedback Type field
// (and beefi.FeedbackType's numeric values) without this package depending
// on the beefi package's types.
const (
	FeedbackSU uint8 = 0
	FeedbackMU uint8 = 1
	FeedbackCQI uint8 = 2
)

// SubcarrierCount returns the number of subcarriers reported for the given
// bandwidth under grouping Ng=1, the only grouping this package supports.
func SubcarrierCount(bandwidthMHz uint16) (int, error) {
	switch bandwidthMHz {
	case 20:
		return 52, nil
	case 40:
		return 108, nil
	case 80:
		return 234, nil
	case 160:
		return 468, nil
	default:
		return 0, ErrUnsupportedBandwidth
	}
}

// AngleBitWidths returns (phiBits, psiBits) for the given codebook selector
// and feedback type code (see the Feedback* constants above).
func AngleBitWidths(codebookInfo uint8, feedbackType uint8) (phiBits, psiBits int, err error) {
	switch {
	case feedbackType == FeedbackSU && codebookInfo == 0:
		return 4, 2, nil
	case feedbackType == FeedbackSU && codebookInfo == 1:
		return 6, 4, nil
	case feedbackType == FeedbackMU && codebookInfo == 0:
		return 7, 5, nil
	case feedbackType == FeedbackMU && codebookInfo == 1:
		return 9, 7, nil
	default:
		return 0, 0, ErrUnsupportedFeedback
	}
}

// AngleCount returns the number of (phi, psi) entries emitted per
// subcarrier for the given antenna configuration:
// 2 * sum_{i=1..Nc} (Nr - i).
func AngleCount(nr, nc int) int {
	total := 0
	for i := 1; i <= nc; i++ {
		total += nr - i
	}
	return 2 * total
}

// AngleKind distinguishes the two angle roles emitted by the Givens
// decomposition.
type AngleKind uint8

const (
	Phi AngleKind = iota
	Psi
)

// AnglePatternEntry describes one emitted angle: its kind, and the (row,
// col) position (1-indexed, matching the standard's own indexing) it feeds
// into the reconstruction in 4.D.
type AnglePatternEntry struct {
	Kind AngleKind
	Row  int
	Col  int
}

// AnglePattern returns, in emission order, the (kind, row, col) for every
// angle of a subcarrier's feedback given Nr and Nc. For each column i in
// 1..=Nc: first the Nr-i phi entries for rows i..=Nr-1, then the Nr-i psi
// entries for rows i+1..=Nr — the same column-block order the reconstructor
// in 4.D applies (D_i first, then the Givens rotations for that column),
// rather than a per-row phi/psi interleaving.
func AnglePattern(nr, nc int) []AnglePatternEntry {
	pattern := make([]AnglePatternEntry, 0, AngleCount(nr, nc))
	for i := 1; i <= nc; i++ {
		for l := i; l <= nr-1; l++ {
			pattern = append(pattern, AnglePatternEntry{Kind: Phi, Row: l, Col: i})
		}
		for l := i + 1; l <= nr; l++ {
			pattern = append(pattern, AnglePatternEntry{Kind: Psi, Row: l, Col: i})
		}
	}
	return pattern
}
