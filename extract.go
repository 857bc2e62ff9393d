package beefi

import (
	"errors"

	"beefi/internal/capture"
)

// ExtractFromPcap opens path as a File capture source, parses every frame
// to BfaData, and assembles a Batch. A single malformed packet does not
// fail the whole extraction: it is skipped and counted, provided the
// source itself keeps delivering; only a failure of the source itself
// (an I/O error, as opposed to end of file) is returned to the caller.
// Ordinary non-feedback traffic (ErrNotFeedback) is dropped silently and
// never added to the returned skip count, matching the streaming engine.
func ExtractFromPcap(path string) (Batch, int, error) {
	src, err := capture.NewFile(path)
	if err != nil {
		return Batch{}, 0, WrapParseError(KindIoError, "opening capture file", err)
	}
	defer src.Close()

	var packets []BfaData
	skipped := 0
	for {
		ts, raw, err := src.Next()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				break
			}
			return Batch{}, skipped, WrapParseError(KindIoError, "reading capture file", err)
		}

		bfa, perr := ParsePacket(raw, ts)
		if perr != nil {
			if !errors.Is(perr, ErrNotFeedback) {
				skipped++
			}
			continue
		}
		packets = append(packets, *bfa)
	}

	return SplitBatch(packets), skipped, nil
}
