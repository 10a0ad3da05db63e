package zkp

import (
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
)

// Verifier checks proofs against a fixed verifying key. It holds no mutable state.
type Verifier struct {
	vk  groth16.VerifyingKey
	log *logger.Logger
}

func NewVerifier(vk groth16.VerifyingKey, log *logger.Logger) *Verifier {
	return &Verifier{vk: vk, log: logger.OrNop(log)}
}

// Verify runs the pairing check for p against its own public signals.
// A well-formed proof that does not verify yields (false, nil); a malformed proof
// yields an error wrapping ErrMalformedProof.
func (v *Verifier) Verify(p *Proof) (bool, error) {
	gp, err := p.toGnark()
	if err != nil {
		return false, err
	}

	s := p.PublicSignals
	assignment := publicAssignment(s[SignalRoot], s[SignalOwner], s[SignalThreshold], s[SignalOperator])
	publicWitness, err := frontend.NewWitness(assignment, ElipticalCurveID.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, malformed("public witness: %v", err)
	}

	if err := groth16.Verify(gp, v.vk, publicWitness); err != nil {
		v.log.Debugf("proof rejected: %v", err)
		return false, nil
	}
	return true, nil
}
