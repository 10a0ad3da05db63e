package attestation

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	"github.com/secomuib/zkpSoulboundToken/pkg/attestation"
	"github.com/secomuib/zkpSoulboundToken/pkg/ecies"
	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
	"github.com/secomuib/zkpSoulboundToken/pkg/ledger"
	"github.com/secomuib/zkpSoulboundToken/pkg/logger"
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
	"github.com/secomuib/zkpSoulboundToken/pkg/zkp"
)

type Service struct {
	Issuer   *attestation.Issuer
	Ledger   ledger.Ledger
	Verifier *ledger.CreditScoreVerifier
	log      *logger.Logger
}

func NewService(l ledger.Ledger, e ledger.EligibilityStore, checker ledger.ProofChecker, log *logger.Logger) *Service {
	log = logger.OrNop(log)
	return &Service{
		Issuer:   attestation.NewIssuer(l, log),
		Ledger:   l,
		Verifier: ledger.NewCreditScoreVerifier(l, e, checker, log),
		log:      log,
	}
}

type IssueAttestationRequest struct {
	Owner       identity.Identity `json:"owner"`
	PublicKey   string            `json:"public_key"`
	CreditScore *big.Int          `json:"credit_score"`
	Income      *big.Int          `json:"income"`
	ReportDate  *big.Int          `json:"report_date"`
}

func (s *Service) Issue(ctx context.Context, req IssueAttestationRequest) (*attestation.Issued, error) {
	pub, err := ecies.ParsePublicKeyHex(req.PublicKey)
	if err != nil {
		return nil, errors.Join(attestation.ErrIdentityBinding, err)
	}
	return s.Issuer.Issue(ctx, attestation.IssueRequest{
		Owner:      req.Owner,
		PublicKey:  pub,
		Attributes: zkp.NewAttributeSet(req.CreditScore, req.Income, req.ReportDate),
	})
}

func (s *Service) Record(ctx context.Context, tokenID uint64) (*ledger.Record, error) {
	return s.Ledger.Record(ctx, tokenID)
}

// VerificationOutcome is the result of checking a proof against a token. Valid means
// the proof verified; Eligible means it also established a minimum score that was
// recorded for the owner.
type VerificationOutcome struct {
	TokenID   uint64
	Owner     identity.Identity
	Predicate zkp.Predicate
	Valid     bool
	Eligible  bool
	Threshold *big.Int
}

// Verify runs lower-bound predicates through loan eligibility and every other
// operator through plain verification.
func (s *Service) Verify(ctx context.Context, tokenID uint64, proof *zkp.Proof) (*VerificationOutcome, error) {
	if err := proof.Validate(); err != nil {
		return nil, err
	}
	predicate, err := proof.Predicate()
	if err != nil {
		return nil, err
	}
	owner, err := proof.Owner()
	if err != nil {
		return nil, err
	}
	out := &VerificationOutcome{TokenID: tokenID, Owner: owner, Predicate: predicate}

	switch predicate.Operator {
	case zkp.GT, zkp.GTE:
		out.Valid, err = s.Verifier.LoanEligible(ctx, tokenID, proof)
		out.Eligible = out.Valid
	default:
		out.Valid, err = s.Verifier.VerifyProof(ctx, tokenID, proof)
	}
	if err != nil {
		return nil, err
	}

	if out.Eligible {
		if out.Threshold, err = s.Verifier.IsEligibleForLoan(ctx, owner); err != nil {
			return nil, err
		}
	}
	s.log.Debugf("token %d: %s valid=%t eligible=%t", tokenID, predicate, out.Valid, out.Eligible)
	return out, nil
}

func (s *Service) Eligibility(ctx context.Context, id identity.Identity) (*big.Int, error) {
	return s.Verifier.IsEligibleForLoan(ctx, id)
}

type LedgerInfo struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	TotalSupply uint64 `json:"total_supply"`
}

func (s *Service) Info(ctx context.Context) (*LedgerInfo, error) {
	supply, err := s.Ledger.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	return &LedgerInfo{Name: ledger.Name, Symbol: ledger.Symbol, TotalSupply: supply}, nil
}

// Classify maps a service error to the reason code and HTTP status reported for it.
func Classify(err error) (reasoncodes.ReasonCode, int) {
	switch {
	case errors.Is(err, ledger.ErrUnknownToken):
		return reasoncodes.ErrUnknownToken, http.StatusNotFound
	case errors.Is(err, zkp.ErrMalformedProof):
		return reasoncodes.ErrMalformedProof, http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotLowerBound):
		return reasoncodes.ErrVerificationFailure, http.StatusBadRequest
	case errors.Is(err, attestation.ErrIdentityBinding):
		return reasoncodes.ErrIdentityBinding, http.StatusBadRequest
	case errors.Is(err, zkp.ErrEncoding):
		return reasoncodes.ErrEncoding, http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidIdentity), errors.Is(err, ledger.ErrInvalidOwner):
		return reasoncodes.ErrInvalidOwner, http.StatusBadRequest
	case errors.Is(err, ecies.ErrEncryption):
		return reasoncodes.ErrEncryption, http.StatusInternalServerError
	}
	return reasoncodes.ErrLedger, http.StatusInternalServerError
}
