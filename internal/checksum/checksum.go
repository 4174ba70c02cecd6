// Package checksum computes content digests used for change detection:
// self-write filtering in the file store, index staleness and HTTP entity
// tags.
package checksum

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Fields digests a sequence of strings. Each field is length-prefixed, so
// ("ab", "c") and ("a", "bc") differ.
func Fields(fields ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, f := range fields {
		binary.BigEndian.PutUint64(n[:], uint64(len(f)))
		h.Write(n[:])
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ETag returns a strong HTTP entity tag for data.
func ETag(data []byte) string {
	return `"` + Sum(data)[:32] + `"`
}

// MatchIfMatch reports whether an If-Match header value names data. The
// value may be "*" or a comma-separated list of tags. Each tag may be the
// ETag form or the full digest, quoted or not, with or without W/.
func MatchIfMatch(header string, data []byte) bool {
	var full, short string
	for _, tag := range strings.Split(header, ",") {
		tag = strings.Trim(strings.TrimPrefix(strings.TrimSpace(tag), "W/"), `"`)
		switch {
		case tag == "":
			continue
		case tag == "*":
			return true
		}
		if full == "" {
			full = Sum(data)
			short = full[:32]
		}
		if tag == full || tag == short {
			return true
		}
	}
	return false
}
