package packet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWhoareyouRoundTrip(t *testing.T) {
	dest := mustID(t, destHex)
	w := Whoareyou{Token: AuthTag(), IDNonce: IDNonce(), EnrSeq: 7}

	enc, err := EncodeWhoareyou(dest, w)
	require.NoError(t, err)

	magic := MakeMagic(dest)
	require.Equal(t, magic[:], enc[:MagicLength])
	require.True(t, IsWhoareyou(dest, enc))

	got, err := DecodeWhoareyou(dest, enc)
	require.NoError(t, err)
	require.Equal(t, w, *got)
}

func TestWhoareyouRejectsOtherDestination(t *testing.T) {
	dest := mustID(t, destHex)
	other := mustID(t, srcHex)

	enc, err := EncodeWhoareyou(dest, Whoareyou{Token: AuthTag(), IDNonce: IDNonce()})
	require.NoError(t, err)

	require.False(t, IsWhoareyou(other, enc))
	_, err = DecodeWhoareyou(other, enc)
	require.True(t, errors.Is(err, ErrMalformed))
}

func TestWhoareyouMalformed(t *testing.T) {
	dest := mustID(t, destHex)

	_, err := EncodeWhoareyou(dest, Whoareyou{Token: AuthTag(), IDNonce: []byte{1}})
	require.True(t, errors.Is(err, ErrMalformed))

	enc, err := EncodeWhoareyou(dest, Whoareyou{Token: AuthTag(), IDNonce: IDNonce()})
	require.NoError(t, err)

	_, err = DecodeWhoareyou(dest, append(enc, 0x00))
	require.True(t, errors.Is(err, ErrMalformed), "trailing bytes must be rejected")

	_, err = DecodeWhoareyou(dest, enc[:len(enc)-1])
	require.True(t, errors.Is(err, ErrMalformed), "truncated body must be rejected")
}
