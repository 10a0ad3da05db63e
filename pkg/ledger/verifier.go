package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

// ProofChecker runs the cryptographic check of a proof against its public signals.
type ProofChecker interface {
	Verify(proof *zkp.Proof) (bool, error)
}

// CreditScoreVerifier ties proofs to ledger records and records loan eligibility.
type CreditScoreVerifier struct {
	ledger      Ledger
	eligibility EligibilityStore
	checker     ProofChecker
	log         *logger.Logger
}

func NewCreditScoreVerifier(l Ledger, e EligibilityStore, checker ProofChecker, log *logger.Logger) *CreditScoreVerifier {
	return &CreditScoreVerifier{ledger: l, eligibility: e, checker: checker, log: logger.OrNop(log)}
}

// VerifyProof reports whether proof is valid and speaks about the root and owner
// of tokenID. Unknown tokens and malformed proofs are errors; everything else that
// fails is (false, nil).
func (v *CreditScoreVerifier) VerifyProof(ctx context.Context, tokenID uint64, proof *zkp.Proof) (bool, error) {
	rec, err := v.ledger.Record(ctx, tokenID)
	if err != nil {
		return false, err
	}
	if err := proof.Validate(); err != nil {
		return false, err
	}

	root, err := proof.Root()
	if err != nil {
		return false, err
	}
	if root != rec.Root {
		v.log.Warnf("token %d: proof root %s does not match stored root %s", tokenID, root, rec.Root)
		return false, nil
	}
	owner, err := proof.Owner()
	if err != nil {
		return false, err
	}
	if owner != rec.Owner {
		v.log.Warnf("token %d: proof owner %s is not the token owner %s", tokenID, owner, rec.Owner)
		return false, nil
	}

	ok, err := v.checker.Verify(proof)
	if err != nil {
		return false, err
	}
	if !ok {
		v.log.Warnf("token %d: proof failed verification", tokenID)
	}
	return ok, nil
}

// LoanEligible verifies a minimum-score proof for tokenID and, on success, records
// the proven minimum for the token owner. GTE proves the threshold itself; GT proves
// threshold+1. Other operators are rejected with ErrNotLowerBound.
func (v *CreditScoreVerifier) LoanEligible(ctx context.Context, tokenID uint64, proof *zkp.Proof) (bool, error) {
	if err := proof.Validate(); err != nil {
		return false, err
	}
	predicate, err := proof.Predicate()
	if err != nil {
		return false, err
	}
	minimum := new(big.Int).Set(predicate.Threshold)
	switch predicate.Operator {
	case zkp.GTE:
	case zkp.GT:
		minimum.Add(minimum, big.NewInt(1))
	default:
		return false, fmt.Errorf("%w: %s", ErrNotLowerBound, predicate)
	}

	ok, err := v.VerifyProof(ctx, tokenID, proof)
	if err != nil || !ok {
		return false, err
	}

	owner, err := proof.Owner()
	if err != nil {
		return false, err
	}
	if err := v.eligibility.SetThreshold(ctx, owner, tokenID, minimum); err != nil {
		return false, fmt.Errorf("record eligibility: %w", err)
	}
	v.log.Infof("token %d: %s eligible for loans at credit score %s", tokenID, owner, minimum)
	return true, nil
}

// IsEligibleForLoan returns the last proven minimum score for id, or 0.
func (v *CreditScoreVerifier) IsEligibleForLoan(ctx context.Context, id identity.Identity) (*big.Int, error) {
	return v.eligibility.Threshold(ctx, id)
}
