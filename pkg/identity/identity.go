// Package identity holds the fixed-width public identifier of an attestation subject:
// a 20-byte address derived from a secp256k1 public key the way Ethereum does it.
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const Size = 20

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrZeroIdentity    = errors.New("zero identity")
)

type Identity [Size]byte

var Zero Identity

// FromPublicKeyCoordinates derives the identity from the 32-byte big-endian affine
// coordinates of a public key: the last 20 bytes of keccak256(X || Y).
func FromPublicKeyCoordinates(x, y [32]byte) Identity {
	h := sha3.NewLegacyKeccak256()
	h.Write(x[:])
	h.Write(y[:])
	sum := h.Sum(nil)

	var id Identity
	copy(id[:], sum[len(sum)-Size:])
	return id
}

// Parse accepts a hex address with or without the 0x prefix, in any letter case.
func Parse(s string) (Identity, error) {
	var id Identity
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(raw) != 2*Size {
		return id, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidIdentity, 2*Size, len(raw))
	}
	if _, err := hex.Decode(id[:], []byte(raw)); err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return id, nil
}

func MustParse(s string) Identity {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromBigInt is the inverse of BigInt; values wider than 160 bits are rejected.
func FromBigInt(v *big.Int) (Identity, error) {
	var id Identity
	if v == nil || v.Sign() < 0 || v.BitLen() > 8*Size {
		return id, fmt.Errorf("%w: value does not fit in %d bytes", ErrInvalidIdentity, Size)
	}
	v.FillBytes(id[:])
	return id, nil
}

func (id Identity) IsZero() bool { return id == Zero }

// Validate rejects the zero identity, which the ledger refuses to mint to.
func (id Identity) Validate() error {
	if id.IsZero() {
		return ErrZeroIdentity
	}
	return nil
}

// BigInt is the field encoding used by the commitment and the circuit.
func (id Identity) BigInt() *big.Int {
	return new(big.Int).SetBytes(id[:])
}

func (id Identity) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, id[:])
	return out
}

// Hex returns the EIP-55 mixed-case checksum form.
func (id Identity) Hex() string {
	lower := hex.EncodeToString(id[:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

func (id Identity) String() string { return id.Hex() }

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
