package filewriter

import (
	"os"
	"path/filepath"
	"testing"

	"beefi"
)

func TestWriteReadBatchRoundTrip(t *testing.T) {
	batch := beefi.Batch{
		Metadata: []beefi.BfiMetadata{
			{Bandwidth: 20, NrIndex: 1, NcIndex: 0, CodebookInfo: 0, FeedbackType: beefi.FeedbackSU, Category: beefi.CategoryVHT},
			{Bandwidth: 80, NrIndex: 3, NcIndex: 1, CodebookInfo: 1, FeedbackType: beefi.FeedbackMU, Category: beefi.CategoryVHT},
		},
		Timestamps:   []float64{1.5, 2.25},
		TokenNumbers: []uint8{7, 9},
		SMax:         234,
		AMax:         10,
	}
	batch.Angles = make([]uint16, 2*batch.SMax*batch.AMax)
	batch.Angles[0] = 5
	batch.Angles[batch.SMax*batch.AMax] = 11

	path := filepath.Join(t.TempDir(), "batch.beefi")
	if err := WriteBatch(path, batch); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	got, err := ReadBatch(path)
	if err != nil {
		t.Fatalf("ReadBatch: %v", err)
	}
	if len(got.Metadata) != 2 {
		t.Fatalf("packet count: got %d, want 2", len(got.Metadata))
	}
	if got.Metadata[1].Bandwidth != 80 || got.Metadata[1].NrIndex != 3 {
		t.Fatalf("metadata[1]: got %+v", got.Metadata[1])
	}
	if got.TokenNumbers[0] != 7 || got.TokenNumbers[1] != 9 {
		t.Fatalf("tokens: got %v", got.TokenNumbers)
	}
	if got.SMax != 234 || got.AMax != 10 {
		t.Fatalf("shape: got (%d,%d)", got.SMax, got.AMax)
	}
	if got.Angles[0] != 5 || got.Angles[batch.SMax*batch.AMax] != 11 {
		t.Fatalf("angle payload mismatch")
	}
}

func TestReadBatchBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.beefi")
	if err := os.WriteFile(path, []byte("NOTIT"), 0o644); err != nil {
		t.Fatalf("writing test fixture: %v", err)
	}
	if _, err := ReadBatch(path); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}
