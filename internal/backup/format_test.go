package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atomloop/atomloop/internal/models"
)

func sampleArchive() *Archive {
	return &Archive{
		Version:   FormatVersion,
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Atoms: []models.Atom{
			{ID: "a1", Front: "f", Back: "b", Concept: "c"},
		},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomloop-backup-x.json.gz")
	if err := WriteArchive(path, sampleArchive()); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	got, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got.Atoms) != 1 || got.Atoms[0].ID != "a1" {
		t.Errorf("atoms = %+v", got.Atoms)
	}

	header, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if header.AtomCount != 1 || !strings.HasPrefix(header.Checksum, "sha256:") {
		t.Errorf("header = %+v", header)
	}

	if err := Verify(path); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomloop-backup-x.json.gz")
	if err := WriteArchive(path, sampleArchive()); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	// Flip a byte in the compressed payload.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	if err := Verify(path); err == nil {
		t.Error("Verify accepted a corrupted payload")
	}
	if _, err := ReadArchive(path); err == nil {
		t.Error("ReadArchive accepted a corrupted payload")
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atomloop-backup-x.json.gz")
	if err := os.WriteFile(path, []byte(`{"version":99,"checksum":"sha256:00"}`+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadHeader(path); err == nil {
		t.Error("expected error for unsupported version")
	}
}
