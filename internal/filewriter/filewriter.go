// Package filewriter persists BeeFI batches to a small binary file format:
// a "BEEFI" magic header, a format version, a content-type byte selecting
// between an angle batch and a matrix batch, then the payload. Downstream
// writers persist the batch arrays verbatim, per the core's "no owned
// persisted state" contract; this package is the CLI's collaborator, not
// part of the core.
package filewriter

import (
	"encoding/binary"
	"fmt"
	"os"

	"beefi"
)

const (
	magic          = "BEEFI"
	formatVersion  = uint16(1)
	contentTypeBFA = uint8(0)
	contentTypeBFM = uint8(1)
)

// WriteBatch writes a beefi.Batch (the parallel-array form produced by
// beefi.SplitBatch or beefi.ExtractFromPcap) to filename.
func WriteBatch(filename string, batch beefi.Batch) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(magic); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, formatVersion); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, contentTypeBFA); err != nil {
		return err
	}

	p := uint32(len(batch.Metadata))
	if err := binary.Write(file, binary.LittleEndian, p); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(batch.SMax)); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(batch.AMax)); err != nil {
		return err
	}

	for i := 0; i < int(p); i++ {
		if err := writeMetadata(file, batch.Metadata[i]); err != nil {
			return fmt.Errorf("writing packet %d metadata: %w", i, err)
		}
		if err := binary.Write(file, binary.LittleEndian, batch.Timestamps[i]); err != nil {
			return err
		}
		if err := binary.Write(file, binary.LittleEndian, batch.TokenNumbers[i]); err != nil {
			return err
		}
	}

	if err := binary.Write(file, binary.LittleEndian, batch.Angles); err != nil {
		return fmt.Errorf("failed to write angle payload: %w", err)
	}

	return nil
}

// WriteMatrices writes a slice of reconstructed BfmData packets to
// filename, one record per packet (unlike WriteBatch, no shared padding is
// applied since each record carries its own Nr/Nc/Subcarriers shape).
func WriteMatrices(filename string, packets []beefi.BfmData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(magic); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, formatVersion); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, contentTypeBFM); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(len(packets))); err != nil {
		return err
	}

	for i, m := range packets {
		if err := writeMetadata(file, m.Metadata); err != nil {
			return fmt.Errorf("writing packet %d metadata: %w", i, err)
		}
		if err := binary.Write(file, binary.LittleEndian, m.Timestamp); err != nil {
			return err
		}
		if err := binary.Write(file, binary.LittleEndian, m.TokenNumber); err != nil {
			return err
		}
		if err := binary.Write(file, binary.LittleEndian, uint32(m.Nr)); err != nil {
			return err
		}
		if err := binary.Write(file, binary.LittleEndian, uint32(m.Nc)); err != nil {
			return err
		}
		if err := binary.Write(file, binary.LittleEndian, uint32(m.Subcarriers)); err != nil {
			return err
		}
		for _, v := range m.FeedbackMatrix {
			if err := binary.Write(file, binary.LittleEndian, real(v)); err != nil {
				return err
			}
			if err := binary.Write(file, binary.LittleEndian, imag(v)); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeMetadata(file *os.File, m beefi.BfiMetadata) error {
	if err := binary.Write(file, binary.LittleEndian, m.Bandwidth); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, m.NrIndex); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, m.NcIndex); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, m.CodebookInfo); err != nil {
		return err
	}
	if err := binary.Write(file, binary.LittleEndian, uint8(m.FeedbackType)); err != nil {
		return err
	}
	return binary.Write(file, binary.LittleEndian, uint8(m.Category))
}

func readMetadata(file *os.File) (beefi.BfiMetadata, error) {
	var m beefi.BfiMetadata
	if err := binary.Read(file, binary.LittleEndian, &m.Bandwidth); err != nil {
		return m, err
	}
	if err := binary.Read(file, binary.LittleEndian, &m.NrIndex); err != nil {
		return m, err
	}
	if err := binary.Read(file, binary.LittleEndian, &m.NcIndex); err != nil {
		return m, err
	}
	if err := binary.Read(file, binary.LittleEndian, &m.CodebookInfo); err != nil {
		return m, err
	}
	var feedbackType, category uint8
	if err := binary.Read(file, binary.LittleEndian, &feedbackType); err != nil {
		return m, err
	}
	if err := binary.Read(file, binary.LittleEndian, &category); err != nil {
		return m, err
	}
	m.FeedbackType = beefi.FeedbackType(feedbackType)
	m.Category = beefi.ActionCategory(category)
	return m, nil
}

// ReadBatch reads a batch file written by WriteBatch.
func ReadBatch(filename string) (beefi.Batch, error) {
	file, err := os.Open(filename)
	if err != nil {
		return beefi.Batch{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := checkMagic(file, contentTypeBFA); err != nil {
		return beefi.Batch{}, err
	}

	var p, sMax, aMax uint32
	if err := binary.Read(file, binary.LittleEndian, &p); err != nil {
		return beefi.Batch{}, err
	}
	if err := binary.Read(file, binary.LittleEndian, &sMax); err != nil {
		return beefi.Batch{}, err
	}
	if err := binary.Read(file, binary.LittleEndian, &aMax); err != nil {
		return beefi.Batch{}, err
	}

	batch := beefi.Batch{
		Metadata:     make([]beefi.BfiMetadata, p),
		Timestamps:   make([]float64, p),
		TokenNumbers: make([]uint8, p),
		SMax:         int(sMax),
		AMax:         int(aMax),
	}

	for i := 0; i < int(p); i++ {
		m, err := readMetadata(file)
		if err != nil {
			return beefi.Batch{}, fmt.Errorf("reading packet %d metadata: %w", i, err)
		}
		batch.Metadata[i] = m
		if err := binary.Read(file, binary.LittleEndian, &batch.Timestamps[i]); err != nil {
			return beefi.Batch{}, err
		}
		if err := binary.Read(file, binary.LittleEndian, &batch.TokenNumbers[i]); err != nil {
			return beefi.Batch{}, err
		}
	}

	batch.Angles = make([]uint16, int(p)*batch.SMax*batch.AMax)
	if err := binary.Read(file, binary.LittleEndian, batch.Angles); err != nil {
		return beefi.Batch{}, fmt.Errorf("failed to read angle payload: %w", err)
	}

	return batch, nil
}

func checkMagic(file *os.File, wantContentType uint8) error {
	got := make([]byte, len(magic))
	if _, err := file.Read(got); err != nil {
		return fmt.Errorf("failed to read magic: %w", err)
	}
	if string(got) != magic {
		return fmt.Errorf("invalid file format: bad magic %q", got)
	}
	var version uint16
	if err := binary.Read(file, binary.LittleEndian, &version); err != nil {
		return err
	}
	var contentType uint8
	if err := binary.Read(file, binary.LittleEndian, &contentType); err != nil {
		return err
	}
	if contentType != wantContentType {
		return fmt.Errorf("unexpected content type %d, want %d", contentType, wantContentType)
	}
	return nil
}
