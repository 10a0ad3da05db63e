// Package ledger stores attestation tokens and the eligibility outcomes of verified
// credit score proofs.
//
// Tokens are soulbound: once minted a record is never transferred, updated or burned.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities/timeutil"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

const (
	Name   = "ZKP SBT"
	Symbol = "ZKSBT"
)

var (
	ErrUnknownToken  = errors.New("unknown token")
	ErrInvalidOwner  = errors.New("invalid owner")
	ErrInvalidBundle = errors.New("invalid encrypted bundle")
	ErrInvalidRoot   = errors.New("invalid commitment root")
	// ErrNotLowerBound rejects loan eligibility claims whose predicate does not
	// bound the score from below.
	ErrNotLowerBound = errors.New("predicate does not establish a minimum score")
)

// Record is one minted attestation.
type Record struct {
	TokenID  uint64                `json:"token_id"`
	Owner    identity.Identity     `json:"owner"`
	Root     zkp.Root              `json:"root"`
	Bundle   ecies.EncryptedBundle `json:"bundle"`
	MintedAt timeutil.TimeUTC      `json:"minted_at"`
}

// Ledger is the attestation token store. Token ids start at 1 and increase by one
// per mint.
type Ledger interface {
	Mint(ctx context.Context, owner identity.Identity, root zkp.Root, bundle *ecies.EncryptedBundle) (uint64, error)
	Record(ctx context.Context, tokenID uint64) (*Record, error)
	Root(ctx context.Context, tokenID uint64) (zkp.Root, error)
	EncryptedData(ctx context.Context, tokenID uint64) (*ecies.EncryptedBundle, error)
	TokensOf(ctx context.Context, owner identity.Identity) ([]uint64, error)
	TotalSupply(ctx context.Context) (uint64, error)
}

// EligibilityStore maps an identity to the last threshold it proved.
type EligibilityStore interface {
	SetThreshold(ctx context.Context, id identity.Identity, tokenID uint64, threshold *big.Int) error
	// Threshold returns 0 for identities without a successful verification.
	Threshold(ctx context.Context, id identity.Identity) (*big.Int, error)
}

func validateMint(owner identity.Identity, root zkp.Root, bundle *ecies.EncryptedBundle) error {
	if err := owner.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOwner, err)
	}
	// roots must be scalar field elements
	if _, err := zkp.RootFromBigInt(root.BigInt()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if bundle == nil {
		return fmt.Errorf("%w: missing", ErrInvalidBundle)
	}
	for i, ct := range bundle.Ciphertexts() {
		if len(ct) == 0 {
			return fmt.Errorf("%w: ciphertext %d is empty", ErrInvalidBundle, i)
		}
	}
	return nil
}

func cloneBundle(b *ecies.EncryptedBundle) ecies.EncryptedBundle {
	return ecies.EncryptedBundle{
		CreditScore: append([]byte(nil), b.CreditScore...),
		Income:      append([]byte(nil), b.Income...),
		ReportDate:  append([]byte(nil), b.ReportDate...),
	}
}

func unknownToken(tokenID uint64) error {
	return fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
}
