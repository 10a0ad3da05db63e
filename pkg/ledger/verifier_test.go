package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

type stubChecker struct {
	ok    bool
	err   error
	calls int
}

func (s *stubChecker) Verify(*zkp.Proof) (bool, error) {
	s.calls++
	return s.ok, s.err
}

func TestLoanEligible(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backends) {
		ctx := context.Background()
		root := testRoot(t, alice, 45)
		tokenID, err := b.ledger.Mint(ctx, alice, root, testBundle(t))
		require.NoError(t, err)

		checker := &stubChecker{ok: true}
		v := NewCreditScoreVerifier(b.ledger, b.eligibility, checker, nil)

		ok, err := v.LoanEligible(ctx, tokenID, shapedProof(root, alice, zkp.GTE, 40))
		require.NoError(t, err)
		assert.True(t, ok)

		threshold, err := v.IsEligibleForLoan(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(40), threshold.Int64())

		ok, err = v.LoanEligible(ctx, tokenID, shapedProof(root, alice, zkp.GT, 41))
		require.NoError(t, err)
		assert.True(t, ok)
		threshold, err = v.IsEligibleForLoan(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(42), threshold.Int64())
	})
}

func TestLoanEligibleRejections(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backends) {
		ctx := context.Background()
		root := testRoot(t, alice, 45)
		tokenID, err := b.ledger.Mint(ctx, alice, root, testBundle(t))
		require.NoError(t, err)
		otherRoot := testRoot(t, alice, 55)

		checker := &stubChecker{ok: true}
		v := NewCreditScoreVerifier(b.ledger, b.eligibility, checker, nil)

		// root of another commitment
		ok, err := v.LoanEligible(ctx, tokenID, shapedProof(otherRoot, alice, zkp.GTE, 40))
		require.NoError(t, err)
		assert.False(t, ok)

		// someone else's identity
		ok, err = v.LoanEligible(ctx, tokenID, shapedProof(root, bob, zkp.GTE, 40))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, checker.calls)

		// pairing check fails
		checker.ok = false
		ok, err = v.LoanEligible(ctx, tokenID, shapedProof(root, alice, zkp.GTE, 40))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, checker.calls)

		// unknown token
		checker.ok = true
		_, err = v.LoanEligible(ctx, 99, shapedProof(root, alice, zkp.GTE, 40))
		assert.ErrorIs(t, err, ErrUnknownToken)

		// not a minimum score claim
		_, err = v.LoanEligible(ctx, tokenID, shapedProof(root, alice, zkp.LTE, 40))
		assert.ErrorIs(t, err, ErrNotLowerBound)

		// malformed shape
		bad := shapedProof(root, alice, zkp.GTE, 40)
		bad.PublicSignals = bad.PublicSignals[:2]
		_, err = v.LoanEligible(ctx, tokenID, bad)
		assert.ErrorIs(t, err, zkp.ErrMalformedProof)

		bad = shapedProof(root, alice, zkp.GTE, 40)
		bad.A[1] = new(big.Int).Add(bad.A[1], big.NewInt(1))
		_, err = v.VerifyProof(ctx, tokenID, bad)
		assert.ErrorIs(t, err, zkp.ErrMalformedProof)

		// checker error propagates
		checker.err = errors.New("boom")
		_, err = v.VerifyProof(ctx, tokenID, shapedProof(root, alice, zkp.EQ, 45))
		assert.Error(t, err)

		threshold, err := v.IsEligibleForLoan(ctx, alice)
		require.NoError(t, err)
		assert.Zero(t, threshold.Sign())
	})
}

func TestVerifyProofAcceptsAnyOperator(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backends) {
		ctx := context.Background()
		root := testRoot(t, alice, 45)
		tokenID, err := b.ledger.Mint(ctx, alice, root, testBundle(t))
		require.NoError(t, err)

		v := NewCreditScoreVerifier(b.ledger, b.eligibility, &stubChecker{ok: true}, nil)
		for op := zkp.EQ; op <= zkp.LTE; op++ {
			ok, err := v.VerifyProof(ctx, tokenID, shapedProof(root, alice, op, 45))
			require.NoError(t, err)
			assert.True(t, ok, op.String())
		}

		threshold, err := v.IsEligibleForLoan(ctx, alice)
		require.NoError(t, err)
		assert.Zero(t, threshold.Sign())
	})
}
