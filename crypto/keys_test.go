package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := [20]byte{}
	copy(raw[:], bytes.Repeat([]byte{0x42}, 20))

	encoded := FromRaw(raw).String()
	require.True(t, strings.HasPrefix(encoded, string(CarbonPrefix)+"1"))

	decoded, err := DecodeAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, CarbonPrefix, decoded.Prefix())
	require.Equal(t, raw, decoded.Raw())
}

func TestParseAddressAcceptsHexAndBech32(t *testing.T) {
	raw := [20]byte{}
	copy(raw[:], bytes.Repeat([]byte{0x07}, 20))

	fromHex, err := ParseAddress("0x0707070707070707070707070707070707070707")
	require.NoError(t, err)
	require.Equal(t, raw, fromHex)

	fromBech, err := ParseAddress(FromRaw(raw).String())
	require.NoError(t, err)
	require.Equal(t, raw, fromBech)

	mixed, err := ParseAddress("0X0707070707070707070707070707070707070707")
	require.NoError(t, err)
	require.Equal(t, raw, mixed)

	_, err = ParseAddress("0x0707")
	require.Error(t, err)
	_, err = ParseAddress("0x" + strings.Repeat("zz", 20))
	require.Error(t, err)
	_, err = ParseAddress("not-an-address")
	require.Error(t, err)
}

func TestGeneratedKeyDerivesStableAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	restored, err := PrivateKeyFromBytes(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().String(), restored.PubKey().Address().String())
}
