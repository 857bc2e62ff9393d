package beefi

import (
	"math"
	"math/cmplx"

	"beefi/internal/geometry"

	"gonum.org/v1/gonum/mat"
)

// Reconstruct implements component D: it converts BfaData to BfmData by
// inverting the Givens-rotation decomposition per subcarrier.
//
// A metadata/angle shape mismatch indicates a bug in the parser rather than
// a malformed input, so it is reported as a KindSizeMismatch ParseError
// rather than a distinct error type. A (codebook, feedback type) combination
// with no angle bit widths, such as CQI, is reported with the same kind.
func Reconstruct(d *BfaData) (*BfmData, error) {
	nr, nc := d.Metadata.Nr(), d.Metadata.Nc()
	pattern := geometry.AnglePattern(nr, nc)
	if len(pattern) != d.AnglesPerSubcarrier {
		return nil, NewParseError(KindSizeMismatch, "angle count does not match (Nr, Nc) pattern")
	}

	out := &BfmData{
		Metadata:       d.Metadata,
		Timestamp:      d.Timestamp,
		TokenNumber:    d.TokenNumber,
		FeedbackMatrix: make([]complex128, nr*nc*d.Subcarriers),
		Nr:             nr,
		Nc:             nc,
		Subcarriers:    d.Subcarriers,
	}

	phiBits, psiBits, err := geometry.AngleBitWidths(d.Metadata.CodebookInfo, uint8(d.Metadata.FeedbackType))
	if err != nil {
		return nil, WrapParseError(KindSizeMismatch, "unsupported feedback type/codebook", err)
	}

	acc := mat.NewCDense(nr, nr, nil)
	for s := 0; s < d.Subcarriers; s++ {
		setIdentity(acc)
		for a, entry := range pattern {
			q := d.At(s, a)
			row := entry.Row - 1 // 0-indexed
			col := entry.Col - 1
			if entry.Kind == geometry.Phi {
				phase := dequantizePhi(q, phiBits)
				applyD(acc, row, phase)
			} else {
				phase := dequantizePsi(q, psiBits)
				applyGivens(acc, row, col, phase)
			}
		}
		for r := 0; r < nr; r++ {
			for c := 0; c < nc; c++ {
				out.FeedbackMatrix[(r*nc+c)*d.Subcarriers+s] = acc.At(r, c)
			}
		}
	}

	return out, nil
}

// dequantizePhi maps a raw phi angle index to radians: 2π(q+1)/2^(bits+1).
func dequantizePhi(q uint16, bits int) float64 {
	return 2 * math.Pi * float64(uint64(q)+1) / float64(uint64(1)<<uint(bits+1))
}

// dequantizePsi maps a raw psi angle index to radians:
// 2π(q+1)/2^(bits+2) + π/4.
func dequantizePsi(q uint16, bits int) float64 {
	return 2*math.Pi*float64(uint64(q)+1)/float64(uint64(1)<<uint(bits+2)) + math.Pi/4
}

// setIdentity resets m to the identity matrix.
func setIdentity(m *mat.CDense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			if i == j {
				m.Set(i, j, complex(1, 0))
			} else {
				m.Set(i, j, complex(0, 0))
			}
		}
	}
}

// applyD right-multiplies acc by the diagonal matrix that is identity
// except for exp(i*phase) at position (pos, pos): scale column pos.
func applyD(acc *mat.CDense, pos int, phase float64) {
	scale := cmplx.Exp(complex(0, phase))
	r, _ := acc.Dims()
	for i := 0; i < r; i++ {
		acc.Set(i, pos, acc.At(i, pos)*scale)
	}
}

// applyGivens right-multiplies acc by the transposed Givens rotation that
// mixes columns rowIdx and colIdx by cos(phase)/sin(phase).
func applyGivens(acc *mat.CDense, rowIdx, colIdx int, phase float64) {
	cosVal := complex(math.Cos(phase), 0)
	sinVal := complex(math.Sin(phase), 0)
	r, _ := acc.Dims()
	for i := 0; i < r; i++ {
		a := acc.At(i, rowIdx)
		b := acc.At(i, colIdx)
		acc.Set(i, rowIdx, cosVal*a-sinVal*b)
		acc.Set(i, colIdx, sinVal*a+cosVal*b)
	}
}
