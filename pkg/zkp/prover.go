package zkp

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"

	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
)

// Witness is the private input of a proof.
type Witness struct {
	Identity   identity.Identity
	Attributes AttributeSet
}

type proveFunc func(constraint.ConstraintSystem, groth16.ProvingKey, witness.Witness) (groth16.Proof, error)

type ProofBuilder struct {
	backend *Backend
	prove   proveFunc
	log     *logger.Logger
}

func NewProofBuilder(backend *Backend, log *logger.Logger) *ProofBuilder {
	return &ProofBuilder{backend: backend, prove: groth16Prove, log: logger.OrNop(log)}
}

func groth16Prove(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, w witness.Witness) (groth16.Proof, error) {
	return groth16.Prove(ccs, pk, w)
}

// BuildProof proves that w opens expectedRoot and that its credit score satisfies p.
//
// Out-of-range inputs fail with an EncodingError before any proving work. A witness
// that does not open the root, or whose score does not satisfy p, fails with a
// ProofGenerationError and no proof. Cancelling ctx abandons the computation.
func (b *ProofBuilder) BuildProof(ctx context.Context, w Witness, p Predicate, expectedRoot Root) (*Proof, error) {
	return b.buildProof(ctx, w, p, expectedRoot, nil)
}

// buildProof calls done once no proving work for this call is running anymore,
// which can be after it returned on cancellation.
func (b *ProofBuilder) buildProof(ctx context.Context, w Witness, p Predicate, expectedRoot Root, done func()) (*Proof, error) {
	if done == nil {
		done = func() {}
	}
	started := false
	defer func() {
		if !started {
			done()
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := w.Attributes.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkFieldElement("root", expectedRoot.BigInt()); err != nil {
		return nil, err
	}

	root, err := Commit(w.Identity, w.Attributes)
	if err != nil {
		return nil, err
	}
	if root != expectedRoot {
		return nil, &ProofGenerationError{Reason: reasoncodes.ErrWitnessMismatch}
	}
	if !p.Holds(w.Attributes.CreditScore()) {
		return nil, &ProofGenerationError{Reason: reasoncodes.ErrPredicateFalse}
	}

	assignment := newAssignment(expectedRoot, w, p)
	fullWitness, err := frontend.NewWitness(assignment, ElipticalCurveID.ScalarField())
	if err != nil {
		return nil, &ProofGenerationError{Reason: reasoncodes.ErrProofGeneration, Err: err}
	}

	type result struct {
		proof groth16.Proof
		err   error
	}
	finished := make(chan result, 1)
	start := time.Now()
	started = true
	go func() {
		defer done()
		proof, err := b.prove(b.backend.ccs, b.backend.pk, fullWitness)
		finished <- result{proof, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-finished:
	}
	if res.err != nil {
		return nil, &ProofGenerationError{Reason: reasoncodes.ErrProofGeneration, Err: res.err}
	}

	signals := []*big.Int{
		SignalRoot:      expectedRoot.BigInt(),
		SignalOwner:     w.Identity.BigInt(),
		SignalThreshold: new(big.Int).Set(p.Threshold),
		SignalOperator:  big.NewInt(int64(p.Operator)),
	}
	proof, err := proofFromGnark(res.proof, signals)
	if err != nil {
		return nil, &ProofGenerationError{Reason: reasoncodes.ErrProofGeneration, Err: err}
	}

	b.log.Debugf("built proof for %s (%s) in %s", w.Identity, p, time.Since(start))
	return proof, nil
}

// ProofGenerationReason extracts the reason code of a proof generation failure.
func ProofGenerationReason(err error) (reasoncodes.ReasonCode, bool) {
	var pgErr *ProofGenerationError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	return pgErr.Reason, true
}
