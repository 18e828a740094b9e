package dhash

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	knownHex    = "0x3e9efa13cd4e072b"
	knownBinary = "0b0011111010011110111110100001001111001101010011100000011100101011"
)

func TestParseHex_PadsToExpectedBits(t *testing.T) {
	bin, err := ParseHex(knownHex, 64)
	require.NoError(t, err)
	assert.Equal(t, knownBinary, bin)
	assert.Len(t, bin, 66)

	// 大写前缀和数字同样接受
	bin, err = ParseHex(strings.ToUpper(knownHex), 64)
	require.NoError(t, err)
	assert.Equal(t, knownBinary, bin)
}

func TestBinToHex_Known(t *testing.T) {
	hex, err := BinToHex(knownBinary)
	require.NoError(t, err)
	assert.Equal(t, knownHex, hex)
}

func TestBinToHex_DropsLeadingZeros(t *testing.T) {
	hex, err := BinToHex("0b" + strings.Repeat("0", 60) + "1010")
	require.NoError(t, err)
	assert.Equal(t, "0xa", hex)

	hex, err = BinToHex("0b" + strings.Repeat("0", 64))
	require.NoError(t, err)
	assert.Equal(t, "0x0", hex)
}

func TestHex_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for size := 1; size <= 12; size++ {
		n := size * size
		for range 20 {
			bits := make([]bool, n)
			for i := range bits {
				bits[i] = rng.Intn(2) == 1
			}
			bin := EncodeBinary(bits)

			hex, err := BinToHex(bin)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(hex)-2, (n+3)/4, "hex digits must not exceed ceil(n^2/4)")

			back, err := ParseHex(hex, n)
			require.NoError(t, err)
			assert.Equal(t, bin, back, "size %d", size)
		}
	}
}

func TestParseHex_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		bits    int
		wantErr error
	}{
		{"missing prefix", "64", 10, ErrFormat},
		{"binary prefix", "0b1010", 10, ErrFormat},
		{"no digits", "0x", 8, ErrFormat},
		{"bad digit", "0xzz", 8, ErrFormat},
		{"negative", "0x-1", 8, ErrFormat},
		{"plus sign", "0x+ff", 8, ErrFormat},
		{"underscore", "0xf_f", 8, ErrFormat},
		{"inner space", "0xf f", 8, ErrFormat},
		{"too wide", "0x1ff", 8, ErrLengthMismatch},
		{"no bit count", "0xff", 0, ErrLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHex(tt.input, tt.bits)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseBinary(t *testing.T) {
	got, err := ParseBinary("0B0101", 4)
	require.NoError(t, err)
	assert.Equal(t, "0b0101", got)

	got, err = ParseBinary("0b0101", 0)
	require.NoError(t, err)
	assert.Equal(t, "0b0101", got, "expectedBits=0 不检查长度")

	_, err = ParseBinary("10101", 0)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ParseBinary("0b0121", 0)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ParseBinary("0b", 0)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ParseBinary("0b01011010101010101", 64)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestBinToHex_RequiresPrefix(t *testing.T) {
	_, err := BinToHex("10101")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestEncodeBinary(t *testing.T) {
	assert.Equal(t, "0b1001", EncodeBinary([]bool{true, false, false, true}))
	assert.Equal(t, "0b", EncodeBinary(nil))
}
