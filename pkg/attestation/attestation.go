// Package attestation implements the two sides of a credit score attestation: the
// issuer that commits, encrypts and mints, and the holder that decrypts its token
// and proves predicates over it.
package attestation

import (
	"context"
	"errors"
	"fmt"

	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/ledger"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

var (
	// ErrIdentityBinding means the public key does not derive the claimed owner.
	ErrIdentityBinding = errors.New("public key does not belong to owner")
	ErrNotOwner        = errors.New("token is owned by another identity")
	// ErrRootMismatch means the decrypted attributes do not open the stored root.
	ErrRootMismatch = errors.New("decrypted attributes do not match the stored root")
)

// Prover is satisfied by *zkp.ProofBuilder and *zkp.ProverPool.
type Prover interface {
	BuildProof(ctx context.Context, w zkp.Witness, p zkp.Predicate, root zkp.Root) (*zkp.Proof, error)
}

type IssueRequest struct {
	Owner      identity.Identity
	PublicKey  *ecies.PublicKey
	Attributes zkp.AttributeSet
}

type Issued struct {
	TokenID uint64   `json:"token_id"`
	Root    zkp.Root `json:"root"`
}

type Issuer struct {
	ledger ledger.Ledger
	log    *logger.Logger
}

func NewIssuer(l ledger.Ledger, log *logger.Logger) *Issuer {
	return &Issuer{ledger: l, log: logger.OrNop(log)}
}

// Issue binds the key to the owner, commits and encrypts the attributes and mints
// the token. Nothing is minted if any step fails.
func (i *Issuer) Issue(ctx context.Context, req IssueRequest) (*Issued, error) {
	if req.PublicKey == nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityBinding, ecies.ErrMalformedKey)
	}
	if derived := req.PublicKey.Identity(); derived != req.Owner {
		return nil, fmt.Errorf("%w: key derives %s, owner is %s", ErrIdentityBinding, derived, req.Owner)
	}

	root, err := zkp.Commit(req.Owner, req.Attributes)
	if err != nil {
		return nil, err
	}
	a := req.Attributes
	bundle, err := ecies.EncryptAttributes(req.PublicKey, a.CreditScore(), a.Income(), a.ReportDate())
	if err != nil {
		return nil, err
	}

	tokenID, err := i.ledger.Mint(ctx, req.Owner, root, bundle)
	if err != nil {
		return nil, err
	}
	i.log.Infof("minted token %d for %s with root %s", tokenID, req.Owner, root)
	return &Issued{TokenID: tokenID, Root: root}, nil
}

// Holder acts for the owner of a private key.
type Holder struct {
	key    *ecies.PrivateKey
	ledger ledger.Ledger
	prover Prover
	log    *logger.Logger
}

func NewHolder(key *ecies.PrivateKey, l ledger.Ledger, prover Prover, log *logger.Logger) *Holder {
	return &Holder{key: key, ledger: l, prover: prover, log: logger.OrNop(log)}
}

func (h *Holder) Identity() identity.Identity {
	return h.key.Identity()
}

// Decrypt recovers the attributes of tokenID and checks them against the stored root.
func (h *Holder) Decrypt(ctx context.Context, tokenID uint64) (zkp.AttributeSet, error) {
	rec, err := h.ownedRecord(ctx, tokenID)
	if err != nil {
		return zkp.AttributeSet{}, err
	}
	values, err := ecies.DecryptAttributes(h.key, &rec.Bundle)
	if err != nil {
		return zkp.AttributeSet{}, err
	}
	attrs := zkp.AttributeSet(values)

	root, err := zkp.Commit(rec.Owner, attrs)
	if err != nil {
		return zkp.AttributeSet{}, err
	}
	if root != rec.Root {
		return zkp.AttributeSet{}, fmt.Errorf("%w: token %d", ErrRootMismatch, tokenID)
	}
	return attrs, nil
}

// Prove decrypts tokenID and proves p over the recovered credit score.
func (h *Holder) Prove(ctx context.Context, tokenID uint64, p zkp.Predicate) (*zkp.Proof, error) {
	attrs, err := h.Decrypt(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return h.ProveWithValues(ctx, tokenID, attrs, p)
}

// ProveWithValues proves p over caller-supplied attributes against the stored root
// of tokenID. Values that do not open that root fail with zkp.ErrProofGeneration.
func (h *Holder) ProveWithValues(ctx context.Context, tokenID uint64, attrs zkp.AttributeSet, p zkp.Predicate) (*zkp.Proof, error) {
	rec, err := h.ownedRecord(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	proof, err := h.prover.BuildProof(ctx, zkp.Witness{Identity: rec.Owner, Attributes: attrs}, p, rec.Root)
	if err != nil {
		h.log.Debugf("token %d: no proof for %s: %v", tokenID, p, err)
		return nil, err
	}
	return proof, nil
}

func (h *Holder) ownedRecord(ctx context.Context, tokenID uint64) (*ledger.Record, error) {
	rec, err := h.ledger.Record(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if rec.Owner != h.Identity() {
		return nil, fmt.Errorf("%w: token %d", ErrNotOwner, tokenID)
	}
	return rec, nil
}
