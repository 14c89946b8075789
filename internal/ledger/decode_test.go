package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"plain utf-8", []byte("Vernr,Konto"), "Vernr,Konto"},
		{"utf-8 with bom", append([]byte{0xef, 0xbb, 0xbf}, []byte("Vernr")...), "Vernr"},
		{"utf-8 swedish", []byte("Bokföringsdatum"), "Bokföringsdatum"},
		// "Benämning" encoded as Windows-1252 (0xe4 = ä).
		{"windows-1252 fallback", []byte{'B', 'e', 'n', 0xe4, 'm', 'n', 'i', 'n', 'g'}, "Benämning"},
		{"empty", []byte{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.raw))
		})
	}
}
