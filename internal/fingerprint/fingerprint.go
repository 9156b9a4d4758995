// Package fingerprint computes content digests used for duplicate detection.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// readChunk is the buffer size used when streaming file contents.
const readChunk = 1 << 20

// Fingerprinter produces a stable hex digest of a file's contents. Two files
// have equal digests iff their bytes are identical under the chosen algorithm.
type Fingerprinter interface {
	// Algorithm returns the configured algorithm name.
	Algorithm() string
	// Fingerprint streams the file at path and returns its hex digest.
	Fingerprint(ctx context.Context, path string) (string, error)
}

// New returns a Fingerprinter for the named algorithm. Supported values are
// "sha256" and "xxh64".
func New(algorithm string) (Fingerprinter, error) {
	switch algorithm {
	case "sha256":
		return hasher{name: "sha256", factory: func() hash.Hash { return sha256.New() }}, nil
	case "xxh64":
		return hasher{name: "xxh64", factory: func() hash.Hash { return xxhash.New() }}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

type hasher struct {
	name    string
	factory func() hash.Hash
}

func (h hasher) Algorithm() string { return h.name }

func (h hasher) Fingerprint(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	sum := h.factory()
	buf := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := file.Read(buf)
		if n > 0 {
			sum.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}
