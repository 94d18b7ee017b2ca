// Package identifier generates the opaque entity IDs used across Buykart.
//
// IDs have the form PREFIX_YYYYMMDD_XXXX — a type prefix, the creation date,
// and a 4-character uppercase hex suffix from crypto/rand. The embedded date
// keeps IDs traceable, and the random suffix avoids sequential integers that
// could be enumerated.
package identifier

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// Well-known prefixes.
const (
	PrefixOrder     = "ORD"
	PrefixOrderItem = "ORI"
	PrefixProduct   = "PRD"
	PrefixCategory  = "CAT"
	PrefixUser      = "USR"
	PrefixCart      = "CRT"
)

// New returns a fresh ID for the given prefix, e.g. "ORD_20260828_9F3A".
func New(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	b.WriteString(time.Now().Format("20060102"))
	b.WriteByte('_')
	b.WriteString(randomSuffix())
	return b.String()
}

func randomSuffix() string {
	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}
