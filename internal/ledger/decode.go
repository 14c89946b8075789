// Package ledger decodes and parses accounting ledger CSV exports into
// typed cost records.
package ledger

import (
	"bytes"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Decode converts raw upload bytes to text. It tries BOM-aware UTF-8,
// plain UTF-8, then Windows-1252 as a permissive single-byte fallback,
// so decoding never fails; degraded input is logged and decoded
// best-effort.
func Decode(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
	if err != nil {
		// Single-byte decoders map every byte; this path is unreachable
		// in practice, but degrade rather than fail.
		zap.L().Warn("ledger: fallback decode failed, using raw bytes", zap.Error(err))
		return string(raw)
	}

	zap.L().Warn("ledger: input is not valid UTF-8, decoded as Windows-1252",
		zap.Int("bytes", len(raw)),
	)
	return string(decoded)
}
