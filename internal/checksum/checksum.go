// Package checksum fingerprints case contents so unchanged cases can be
// skipped when the search index is rebuilt.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/starford/casefile/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Case returns the digest of everything the notes file holds for c: the
// opening stamp, the summary and the log body.
func Case(c models.Case) string {
	var b strings.Builder
	for _, part := range []string{c.Opened, c.Summary, c.Body} {
		b.WriteString(part)
		b.WriteByte(0)
	}
	return Sum([]byte(b.String()))
}
