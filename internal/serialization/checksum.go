package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Checksum is the SHA-256 digest of a file's data section. It is stored
// between the JSON header and the padding.
type Checksum [ChecksumSize]byte

// String returns the digest as lowercase hex.
func (c Checksum) String() string { return hex.EncodeToString(c[:]) }

// ComputeChecksum digests an encoded data section.
func ComputeChecksum(data []byte) Checksum {
	return sha256.Sum256(data)
}

// checksumSection digests n bytes of src starting at off, streaming so a
// large data section is never held in memory twice.
func checksumSection(src io.ReaderAt, off, n int64) (Checksum, error) {
	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(src, off, n)); err != nil {
		return Checksum{}, err
	}
	var sum Checksum
	h.Sum(sum[:0])
	return sum, nil
}

// verifyChecksum fails with ErrChecksumMismatch, naming both digests, unless
// the data section still matches what the writer stored.
func verifyChecksum(computed, stored Checksum) error {
	if computed != stored {
		return fmt.Errorf("%w: stored %s, data hashes to %s", ErrChecksumMismatch, stored, computed)
	}
	return nil
}
