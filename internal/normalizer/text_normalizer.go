package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CleanRaw canonicalizes line endings and the whitespace inside each line
// without touching the line structure the parser depends on.
func CleanRaw(raw string) string {
	lines := SplitLines(strings.TrimSpace(raw))
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

// Fingerprint identifies a raw address for caching: two inputs that only
// differ in spacing or line-ending style share a fingerprint. The version
// ties the key to the locale data the result was computed with.
func Fingerprint(raw, version string) string {
	sum := sha256.Sum256([]byte(CleanRaw(raw) + "\x1F" + version))
	return "sha256:" + hex.EncodeToString(sum[:])
}
