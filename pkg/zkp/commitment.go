package zkp

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
)

// RootSize is the width of a serialized commitment root.
const RootSize = FieldElementSize

// Root is a commitment root: a BN254 scalar in big-endian form.
type Root [RootSize]byte

// Commit hashes (identity, creditScore, income, reportDate) with MiMC over the BN254
// scalar field. CreditScoreCircuit recomputes the same hash in-circuit.
func Commit(id identity.Identity, attrs AttributeSet) (Root, error) {
	if err := attrs.Validate(); err != nil {
		return Root{}, err
	}

	h := mimc.NewMiMC()
	inputs := make([]*big.Int, 0, 1+AttributeCount)
	inputs = append(inputs, id.BigInt())
	inputs = append(inputs, attrs[:]...)

	for _, in := range inputs {
		var e fr.Element
		e.SetBigInt(in)
		b := e.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return Root{}, fmt.Errorf("hash input: %w", err)
		}
	}

	var root Root
	copy(root[:], h.Sum(nil))
	return root, nil
}

// ParseRoot accepts a hex string with or without 0x; shorter values are left-padded.
func ParseRoot(s string) (Root, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if raw == "" || len(raw) > 2*RootSize {
		return Root{}, encodingError("root", "expected up to %d hex characters", 2*RootSize)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Root{}, encodingError("root", "invalid hex: %v", err)
	}
	return RootFromBigInt(new(big.Int).SetBytes(b))
}

func RootFromBigInt(v *big.Int) (Root, error) {
	if err := checkFieldElement("root", v); err != nil {
		return Root{}, err
	}
	var r Root
	v.FillBytes(r[:])
	return r, nil
}

func (r Root) BigInt() *big.Int { return new(big.Int).SetBytes(r[:]) }

// Hex renders the root as 0x followed by 64 hex characters.
func (r Root) Hex() string { return "0x" + hex.EncodeToString(r[:]) }

func (r Root) String() string { return r.Hex() }

func (r Root) IsZero() bool { return r == Root{} }

func (r Root) MarshalText() ([]byte, error) { return []byte(r.Hex()), nil }

func (r *Root) UnmarshalText(text []byte) error {
	parsed, err := ParseRoot(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
