package zkp

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
)

const (
	// ElipticalCurveID is the curve every proof and key in this package is built on.
	ElipticalCurveID = ecc.BN254

	// FieldElementSize is the width of a serialized scalar.
	FieldElementSize = 32
)

var fieldModulus = ElipticalCurveID.ScalarField()

// FieldModulus returns a copy of the scalar field modulus.
func FieldModulus() *big.Int {
	return new(big.Int).Set(fieldModulus)
}

func checkFieldElement(field string, v *big.Int) error {
	switch {
	case v == nil:
		return encodingError(field, "value is missing")
	case v.Sign() < 0:
		return encodingError(field, "value %s is negative", v)
	case v.Cmp(fieldModulus) >= 0:
		return encodingError(field, "value exceeds the scalar field modulus")
	}
	return nil
}

func fieldBytes(v *big.Int) []byte {
	return v.FillBytes(make([]byte, FieldElementSize))
}
