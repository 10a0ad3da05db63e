package ecies

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/secp256k1"
	"github.com/consensys/gnark-crypto/ecc/secp256k1/fp"
	"github.com/consensys/gnark-crypto/ecc/secp256k1/fr"

	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
)

const (
	PrivateKeySize = 32
	// PublicKeySize is the uncompressed SEC1 encoding: 0x04 || X || Y.
	PublicKeySize = 65

	uncompressedPrefix = 0x04
)

var curveOrder = fr.Modulus()

type PublicKey struct {
	point secp256k1.G1Affine
}

type PrivateKey struct {
	PublicKey
	d *big.Int
}

func GenerateKey(random io.Reader) (*PrivateKey, error) {
	if random == nil {
		random = rand.Reader
	}
	upper := new(big.Int).Sub(curveOrder, big.NewInt(1))
	d, err := rand.Int(random, upper)
	if err != nil {
		return nil, fmt.Errorf("generate scalar: %w", err)
	}
	d.Add(d, big.NewInt(1))
	return newPrivateKey(d), nil
}

func newPrivateKey(d *big.Int) *PrivateKey {
	_, g := secp256k1.Generators()
	k := &PrivateKey{d: new(big.Int).Set(d)}
	k.point.ScalarMultiplication(&g, d)
	return k
}

// PrivateKeyFromBytes takes a 32-byte big-endian scalar in [1, n-1].
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrMalformedKey, PrivateKeySize, len(b))
	}
	d := new(big.Int).SetBytes(b)
	if d.Sign() == 0 || d.Cmp(curveOrder) >= 0 {
		return nil, fmt.Errorf("%w: private scalar out of range", ErrMalformedKey)
	}
	return newPrivateKey(d), nil
}

func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromBytes(b)
}

func (k *PrivateKey) Public() *PublicKey {
	pub := k.PublicKey
	return &pub
}

func (k *PrivateKey) Bytes() []byte {
	out := make([]byte, PrivateKeySize)
	k.d.FillBytes(out)
	return out
}

// ParsePublicKey accepts the 65-byte uncompressed encoding or the raw 64-byte X || Y form.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	switch {
	case len(b) == PublicKeySize && b[0] == uncompressedPrefix:
		b = b[1:]
	case len(b) == PublicKeySize-1:
	default:
		return nil, fmt.Errorf("%w: unexpected public key encoding of %d bytes", ErrMalformedKey, len(b))
	}

	var pk PublicKey
	if err := pk.point.X.SetBytesCanonical(b[:fp.Bytes]); err != nil {
		return nil, fmt.Errorf("%w: x coordinate: %v", ErrMalformedKey, err)
	}
	if err := pk.point.Y.SetBytesCanonical(b[fp.Bytes:]); err != nil {
		return nil, fmt.Errorf("%w: y coordinate: %v", ErrMalformedKey, err)
	}
	if err := pk.validate(); err != nil {
		return nil, err
	}
	return &pk, nil
}

func ParsePublicKeyHex(s string) (*PublicKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	return ParsePublicKey(b)
}

func (pk *PublicKey) validate() error {
	if pk == nil {
		return fmt.Errorf("%w: nil public key", ErrMalformedKey)
	}
	if pk.point.IsInfinity() || !pk.point.IsOnCurve() {
		return fmt.Errorf("%w: point is not on secp256k1", ErrMalformedKey)
	}
	return nil
}

func (pk *PublicKey) Bytes() []byte {
	x := pk.point.X.Bytes()
	y := pk.point.Y.Bytes()

	out := make([]byte, 0, PublicKeySize)
	out = append(out, uncompressedPrefix)
	out = append(out, x[:]...)
	out = append(out, y[:]...)
	return out
}

func (pk *PublicKey) Hex() string {
	return "0x" + hex.EncodeToString(pk.Bytes())
}

// Identity derives the address this key controls.
func (pk *PublicKey) Identity() identity.Identity {
	return identity.FromPublicKeyCoordinates(pk.point.X.Bytes(), pk.point.Y.Bytes())
}

func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.point.Equal(&other.point)
}

func decodeHex(s string) ([]byte, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return b, nil
}
