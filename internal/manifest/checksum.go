package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// ChecksumPrefix is the algorithm tag carried by every checksum string.
const ChecksumPrefix = "sha256:"

var checksumPattern = regexp.MustCompile(`^sha256:[a-f0-9]{64}$`)

// ComputeChecksum hashes raw bytes and returns "sha256:<64 hex chars>".
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return ChecksumPrefix + hex.EncodeToString(sum[:])
}

// ParseChecksum validates the "sha256:<hex>" format and returns the hex
// digest portion.
func ParseChecksum(s string) (string, error) {
	if !checksumPattern.MatchString(s) {
		return "", fmt.Errorf("malformed checksum %q: want sha256:<64 lowercase hex chars>", s)
	}
	return strings.TrimPrefix(s, ChecksumPrefix), nil
}

// ChecksumMatches hashes data and compares against expected. It returns
// the actual checksum string alongside the comparison result so callers
// can report expected-vs-actual on mismatch.
func ChecksumMatches(data []byte, expected string) (actual string, ok bool, err error) {
	if _, err := ParseChecksum(expected); err != nil {
		return "", false, err
	}
	actual = ComputeChecksum(data)
	return actual, actual == expected, nil
}
