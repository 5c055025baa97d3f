package paradox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePassword(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		want    [2]byte
		wantErr bool
	}{
		{name: "digits", secret: "1234", want: [2]byte{0x12, 0x34}},
		{name: "zero digits become 0xA", secret: "0000", want: [2]byte{0xaa, 0xaa}},
		{name: "mixed zero", secret: "1050", want: [2]byte{0x1a, 0x5a}},
		{name: "empty", secret: "", want: [2]byte{0x00, 0x00}},
		{name: "raw two bytes", secret: "ab", want: [2]byte{'a', 'b'}},
		{name: "short numeric", secret: "123", wantErr: true},
		{name: "long raw", secret: "abcd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodePassword(tt.secret)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrFieldRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
