package zkp

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
)

func TestBuildProofPerOperator(t *testing.T) {
	backend := testBackend(t)
	builder := NewProofBuilder(backend, nil)
	verifier := backend.Verifier()
	root := subjectRoot(t)
	w := Witness{Identity: subject, Attributes: subjectAttributes()}

	satisfied := []Predicate{
		NewPredicate(EQ, 45), NewPredicate(NEQ, 40), NewPredicate(GT, 40), NewPredicate(GTE, 40),
		NewPredicate(GTE, 45), NewPredicate(LT, 50), NewPredicate(LTE, 50), NewPredicate(LTE, 45),
	}
	for _, p := range satisfied {
		t.Run("accept "+p.String(), func(t *testing.T) {
			proof, err := builder.BuildProof(context.Background(), w, p, root)
			require.NoError(t, err)

			ok, err := verifier.Verify(proof)
			require.NoError(t, err)
			assert.True(t, ok)

			gotRoot, err := proof.Root()
			require.NoError(t, err)
			assert.Equal(t, root, gotRoot)
			owner, err := proof.Owner()
			require.NoError(t, err)
			assert.Equal(t, subject, owner)
			claimed, err := proof.Predicate()
			require.NoError(t, err)
			assert.Equal(t, p.Operator, claimed.Operator)
			assert.Zero(t, p.Threshold.Cmp(claimed.Threshold))
		})
	}

	unsatisfied := []Predicate{
		NewPredicate(EQ, 40), NewPredicate(NEQ, 45), NewPredicate(GT, 45),
		NewPredicate(GTE, 50), NewPredicate(LT, 45), NewPredicate(LTE, 40),
	}
	for _, p := range unsatisfied {
		t.Run("reject "+p.String(), func(t *testing.T) {
			proof, err := builder.BuildProof(context.Background(), w, p, root)
			require.ErrorIs(t, err, ErrProofGeneration)
			assert.Nil(t, proof)

			reason, ok := ProofGenerationReason(err)
			require.True(t, ok)
			assert.Equal(t, reasoncodes.ErrPredicateFalse, reason)
		})
	}
}

func TestBuildProofRejectsWitnessNotMatchingRoot(t *testing.T) {
	backend := testBackend(t)
	builder := NewProofBuilder(backend, nil)

	// the predicate holds for 55, but the root commits 45
	w := Witness{Identity: subject, Attributes: AttributesFromUint64(55, 3100, reportDate)}
	proof, err := builder.BuildProof(context.Background(), w, NewPredicate(GTE, 40), subjectRoot(t))
	require.ErrorIs(t, err, ErrProofGeneration)
	assert.Nil(t, proof)

	reason, ok := ProofGenerationReason(err)
	require.True(t, ok)
	assert.Equal(t, reasoncodes.ErrWitnessMismatch, reason)
}

func TestBuildProofRejectsBadEncoding(t *testing.T) {
	backend := testBackend(t)
	builder := NewProofBuilder(backend, nil)
	root := subjectRoot(t)

	w := Witness{Identity: subject, Attributes: NewAttributeSet(big.NewInt(-45), big.NewInt(1), big.NewInt(1))}
	_, err := builder.BuildProof(context.Background(), w, NewPredicate(GTE, 40), root)
	assert.ErrorIs(t, err, ErrEncoding)

	w = Witness{Identity: subject, Attributes: subjectAttributes()}
	_, err = builder.BuildProof(context.Background(), w, Predicate{Operator: 7, Threshold: big.NewInt(40)}, root)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestBuildProofHonoursCancellation(t *testing.T) {
	backend := testBackend(t)
	builder := NewProofBuilder(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := Witness{Identity: subject, Attributes: subjectAttributes()}
	_, err := builder.BuildProof(ctx, w, NewPredicate(GTE, 40), subjectRoot(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyRejectsAlteredSignals(t *testing.T) {
	backend := testBackend(t)
	builder := NewProofBuilder(backend, nil)
	verifier := backend.Verifier()

	w := Witness{Identity: subject, Attributes: subjectAttributes()}
	proof, err := builder.BuildProof(context.Background(), w, NewPredicate(GTE, 40), subjectRoot(t))
	require.NoError(t, err)

	for i := range PublicSignalCount {
		altered := *proof
		altered.PublicSignals = append([]*big.Int(nil), proof.PublicSignals...)
		altered.PublicSignals[i] = new(big.Int).Add(proof.PublicSignals[i], big.NewInt(1))

		ok, err := verifier.Verify(&altered)
		require.NoError(t, err)
		assert.False(t, ok, "signal %d", i)
	}
}

func TestVerifyRejectsMalformedProofs(t *testing.T) {
	backend := testBackend(t)
	builder := NewProofBuilder(backend, nil)
	verifier := backend.Verifier()

	w := Witness{Identity: subject, Attributes: subjectAttributes()}
	proof, err := builder.BuildProof(context.Background(), w, NewPredicate(GTE, 40), subjectRoot(t))
	require.NoError(t, err)

	shortSignals := *proof
	shortSignals.PublicSignals = proof.PublicSignals[:3]

	offCurve := *proof
	offCurve.A = [2]*big.Int{proof.A[0], new(big.Int).Add(proof.A[1], big.NewInt(1))}

	bigSignal := *proof
	bigSignal.PublicSignals = append([]*big.Int(nil), proof.PublicSignals...)
	bigSignal.PublicSignals[SignalThreshold] = FieldModulus()

	missing := *proof
	missing.C = [2]*big.Int{nil, proof.C[1]}

	for name, p := range map[string]*Proof{
		"short signals":  &shortSignals,
		"off curve":      &offCurve,
		"signal too big": &bigSignal,
		"missing point":  &missing,
		"nil":            nil,
	} {
		ok, err := verifier.Verify(p)
		assert.ErrorIs(t, err, ErrMalformedProof, name)
		assert.False(t, ok, name)
	}
}

func TestProofEncodings(t *testing.T) {
	backend := testBackend(t)
	builder := NewProofBuilder(backend, nil)
	verifier := backend.Verifier()

	w := Witness{Identity: subject, Attributes: subjectAttributes()}
	proof, err := builder.BuildProof(context.Background(), w, NewPredicate(GTE, 40), subjectRoot(t))
	require.NoError(t, err)

	raw, err := json.Marshal(proof)
	require.NoError(t, err)

	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &shape))
	assert.Contains(t, shape, "pi_a")
	assert.Contains(t, shape, "pi_b")
	assert.Contains(t, shape, "pi_c")
	assert.Contains(t, shape, "public_signals")

	var fromJSON Proof
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	ok, err := verifier.Verify(&fromJSON)
	require.NoError(t, err)
	assert.True(t, ok)

	blob, err := proof.MarshalBorsh()
	require.NoError(t, err)
	fromBorsh, err := UnmarshalProofBorsh(blob)
	require.NoError(t, err)
	ok, err = verifier.Verify(fromBorsh)
	require.NoError(t, err)
	assert.True(t, ok)

	var bad Proof
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"pi_a":["1"],"pi_b":[],"pi_c":[],"public_signals":[]}`), &bad), ErrMalformedProof)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"pi_a":["x","1"],"pi_b":[["1","1"],["1","1"]],"pi_c":["1","1"],"public_signals":[]}`), &bad), ErrMalformedProof)

	_, err = UnmarshalProofBorsh([]byte{0x01})
	assert.ErrorIs(t, err, ErrMalformedProof)
}

func TestBackendRoundTrip(t *testing.T) {
	backend := testBackend(t)

	var ccsBuf, pkBuf, vkBuf, sol bytes.Buffer
	require.NoError(t, backend.WriteTo(&ccsBuf, &pkBuf, &vkBuf))

	loaded, err := LoadBackend(nil, &ccsBuf, &pkBuf, &vkBuf)
	require.NoError(t, err)
	assert.Equal(t, backend.NbConstraints(), loaded.NbConstraints())

	w := Witness{Identity: subject, Attributes: subjectAttributes()}
	proof, err := NewProofBuilder(loaded, nil).BuildProof(context.Background(), w, NewPredicate(GTE, 40), subjectRoot(t))
	require.NoError(t, err)

	// keys written and read back still verify proofs from the original backend
	ok, err := backend.Verifier().Verify(proof)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, backend.ExportSolidity(&sol))
	assert.Contains(t, sol.String(), "pragma solidity")
}
