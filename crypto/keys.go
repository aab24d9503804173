package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable part of a bech32 address.
type AddressPrefix string

const (
	// CarbonPrefix is used for every participant address rendered by the
	// marketplace (owners, bidders, payout recipients).
	CarbonPrefix AddressPrefix = "carbon"
)

// AddressLength is the size of a raw participant address in bytes.
const AddressLength = 20

// Address represents a 20-byte participant address with a specific prefix.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

func NewAddress(prefix AddressPrefix, b []byte) Address {
	if len(b) != AddressLength {
		panic("address must be 20 bytes long")
	}
	return Address{prefix: prefix, bytes: append([]byte(nil), b...)}
}

// FromRaw renders a fixed-size address with the carbon prefix.
func FromRaw(raw [20]byte) Address {
	return NewAddress(CarbonPrefix, raw[:])
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return a.bytes
}

// Raw returns the address as the fixed-size array used by the engine.
func (a Address) Raw() [20]byte {
	var out [20]byte
	copy(out[:], a.bytes)
	return out
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(strings.TrimSpace(addrStr))
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != AddressLength {
		return Address{}, fmt.Errorf("invalid address length %d", len(conv))
	}
	return NewAddress(AddressPrefix(prefix), conv), nil
}

// ParseAddress accepts either a bech32 address or a 0x-prefixed hex string and
// returns the raw 20-byte form.
func ParseAddress(input string) ([20]byte, error) {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		if !common.IsHexAddress(trimmed) {
			return [20]byte{}, fmt.Errorf("invalid hex address %q", trimmed)
		}
		return common.HexToAddress(trimmed), nil
	}
	addr, err := DecodeAddress(trimmed)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	return NewAddress(CarbonPrefix, addrBytes)
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
