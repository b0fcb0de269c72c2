// Package integrity computes and verifies content hashes for archive files.
package integrity

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/kebairia/cofre/internal/logger"
)

// ChunkSize is the read size used while streaming a file through a hash.
const ChunkSize = 4096

// Supported hash algorithm names.
const (
	AlgorithmMD5    = "md5"
	AlgorithmSHA256 = "sha256"
)

// ErrUnsupportedAlgorithm indicates an unknown hash algorithm name.
// Unlike I/O failures, this is caller misuse and is surfaced as an error.
var ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

func newHash(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case AlgorithmMD5:
		return md5.New(), nil
	case AlgorithmSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

// Hash streams path through the named algorithm and returns the lowercase
// hex digest. Any I/O failure yields the empty string rather than an error;
// an unknown algorithm is reported as an error.
func Hash(path, algorithm string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Global().Warn("cannot open file for hashing", "path", path, "error", err)
		return "", nil
	}
	defer f.Close()

	buf := make([]byte, ChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Global().Warn("read failed while hashing", "path", path, "error", err)
			return "", nil
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// MD5 returns the MD5 hex digest of path, or "" on I/O failure.
func MD5(path string) string {
	digest, _ := Hash(path, AlgorithmMD5)
	return digest
}

// SHA256 returns the SHA-256 hex digest of path, or "" on I/O failure.
func SHA256(path string) string {
	digest, _ := Hash(path, AlgorithmSHA256)
	return digest
}

// Verify recomputes the digest of path and compares it to expectedHex,
// case-insensitively. It returns false when the file cannot be hashed.
func Verify(path, expectedHex, algorithm string) (bool, error) {
	actual, err := Hash(path, algorithm)
	if err != nil {
		return false, err
	}
	if actual == "" {
		return false, nil
	}
	return strings.EqualFold(actual, expectedHex), nil
}
