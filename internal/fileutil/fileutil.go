// Package fileutil provides filesystem helpers shared by the organization
// strategies: content digests, a copy primitive, and extension resolution.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

const (
	// smallFileThreshold is the size below which a file is read whole for
	// hashing instead of streamed.
	smallFileThreshold = 32 * 1024
	// hashChunkSize bounds memory while digesting large files.
	hashChunkSize = 64 * 1024
)

// HashFile computes the hex-encoded SHA-256 digest of the file's content.
// Files above smallFileThreshold are streamed in fixed-size chunks so
// arbitrarily large files never require proportional memory.
func HashFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	if info.Size() <= smallFileThreshold {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Extension resolves a file name's extension: the substring after the last
// dot, lower-cased. Names without a dot, with a trailing dot, or consisting
// only of a leading dot (".bashrc") yield "".
func Extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
