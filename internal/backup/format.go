package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FormatVersion is the current backup file format.
const FormatVersion = 1

// MaxDecompressedSize caps decompressed payloads (50MB). A study history
// far beyond this is more likely a corrupt or hostile file than real data.
const MaxDecompressedSize = 50 * 1024 * 1024

// Header is the plain-text first line of a backup file. It can be read
// without decompressing the payload.
type Header struct {
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	Checksum         string    `json:"checksum"`
	AtomCount        int       `json:"atom_count"`
	InteractionCount int       `json:"interaction_count"`
}

// WriteArchive writes an archive as a header line followed by a
// gzip-compressed JSON payload. The header carries a SHA-256 checksum of
// the compressed bytes.
func WriteArchive(path string, a *Archive) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling archive: %w", err)
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(payload); err != nil {
		return fmt.Errorf("compressing archive: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	hash := sha256.Sum256(compressed.Bytes())
	header := Header{
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		Checksum:         "sha256:" + hex.EncodeToString(hash[:]),
		AtomCount:        len(a.Atoms),
		InteractionCount: len(a.Interactions),
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(headerBytes, '\n')); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}

// ReadArchive reads a backup file, verifies the checksum, and decompresses
// the payload.
func ReadArchive(path string) (*Archive, error) {
	header, compressed, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := verify(header, compressed); err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("opening gzip payload: %w", err)
	}
	defer gzr.Close()

	decompressed, err := io.ReadAll(io.LimitReader(gzr, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if int64(len(decompressed)) > MaxDecompressedSize {
		return nil, fmt.Errorf("payload exceeds %d bytes", MaxDecompressedSize)
	}

	var archive Archive
	if err := json.Unmarshal(decompressed, &archive); err != nil {
		return nil, fmt.Errorf("parsing archive: %w", err)
	}
	return &archive, nil
}

// ReadHeader reads only the header line of a backup file.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backup file: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}
	return parseHeader(line)
}

// Verify checks file integrity without decompressing the payload.
func Verify(path string) error {
	header, compressed, err := readFile(path)
	if err != nil {
		return err
	}
	return verify(header, compressed)
}

func readFile(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening backup file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header line: %w", err)
	}
	header, err := parseHeader(line)
	if err != nil {
		return nil, nil, err
	}
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	return header, compressed, nil
}

func parseHeader(line []byte) (*Header, error) {
	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported backup version: %d", header.Version)
	}
	return &header, nil
}

func verify(header *Header, compressed []byte) error {
	hash := sha256.Sum256(compressed)
	actual := "sha256:" + hex.EncodeToString(hash[:])
	if actual != header.Checksum {
		return fmt.Errorf("checksum mismatch: header %s, file %s", header.Checksum, actual)
	}
	return nil
}
