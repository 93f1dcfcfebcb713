package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSynchsafe(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"zero", []byte{0x00, 0x00, 0x00, 0x00}, 0},
		{"seventeen", []byte{0x00, 0x00, 0x00, 0x11}, 17},
		{"byte boundary", []byte{0x00, 0x00, 0x01, 0x00}, 128},
		{"all bits", []byte{0x7F, 0x7F, 0x7F, 0x7F}, SynchsafeMax},
		{"high bits masked", []byte{0xFF, 0xFF, 0xFF, 0xFF}, SynchsafeMax},
		{"mixed", []byte{0x00, 0x02, 0x01, 0x7F}, 2<<14 | 1<<7 | 0x7F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DecodeSynchsafe(tt.in))
		})
	}
}

func TestEncodeSynchsafe_RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 256, 16383, 16384, 1 << 21, SynchsafeMax}
	// Sweep a spread of the 28-bit space as well.
	for v := uint32(0); v <= SynchsafeMax-65537; v += 65537 {
		values = append(values, v)
	}

	for _, v := range values {
		enc, err := EncodeSynchsafe(v)
		require.NoError(t, err)

		for _, b := range enc {
			require.Zero(t, b&0x80, "encoder must never set bit 7")
		}

		require.Equal(t, v, DecodeSynchsafe(enc[:]), "round trip for %d", v)
	}
}

func TestEncodeSynchsafe_Overflow(t *testing.T) {
	_, err := EncodeSynchsafe(SynchsafeMax + 1)
	require.ErrorIs(t, err, ErrSynchsafeOverflow)

	_, err = EncodeSynchsafe(1 << 31)
	require.ErrorIs(t, err, ErrSynchsafeOverflow)
}

func TestDecodeUint32(t *testing.T) {
	require.Equal(t, uint32(0x01020304), DecodeUint32([]byte{0x01, 0x02, 0x03, 0x04}))
	require.Equal(t, uint32(0xFFFFFFFF), DecodeUint32([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
}

func TestDecodeUint24(t *testing.T) {
	require.Equal(t, uint32(0x000000), DecodeUint24([]byte{0x00, 0x00, 0x00}))
	require.Equal(t, uint32(0x010203), DecodeUint24([]byte{0x01, 0x02, 0x03}))
	require.Equal(t, uint32(0xFFFFFF), DecodeUint24([]byte{0xFF, 0xFF, 0xFF}))
}

func TestDecodeUint16(t *testing.T) {
	require.Equal(t, uint16(0x0102), DecodeUint16([]byte{0x01, 0x02}))
}

func TestPutDecodeSymmetry(t *testing.T) {
	var b4 [4]byte
	PutUint32(b4[:], 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), DecodeUint32(b4[:]))

	var b3 [3]byte
	PutUint24(b3[:], 0xABCDEF)
	require.Equal(t, uint32(0xABCDEF), DecodeUint24(b3[:]))

	var b2 [2]byte
	PutUint16(b2[:], 0xBEEF)
	require.Equal(t, uint16(0xBEEF), DecodeUint16(b2[:]))
}
