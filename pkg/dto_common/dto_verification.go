package dtocommon

import (
	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
	"github.com/secomuib/zkpSoulboundToken/pkg/utilities"
)

// ProofVerificationRequestDto asks the verifier to check a borsh encoded proof
// against a token and record loan eligibility.
type ProofVerificationRequestDto struct {
	EventId       string `json:"event_id"`
	TokenId       uint64 `json:"token_id"`
	ProofBorshB64 string `json:"proof_borsh_b64"`
}

func (r ProofVerificationRequestDto) Serialize() ([]byte, error) {
	return utilities.Serialize[ProofVerificationRequestDto](r)
}

type ProofVerificationResultDto struct {
	EventId   string `json:"event_id"`
	TokenId   uint64 `json:"token_id"`
	Owner     string `json:"owner"`
	Eligible  bool   `json:"eligible"`
	Threshold string `json:"threshold"`
}

func (r ProofVerificationResultDto) Serialize() ([]byte, error) {
	return utilities.Serialize[ProofVerificationResultDto](r)
}

type ProofVerificationFailureDto struct {
	EventId     string                 `json:"event_id"`
	RequestBody []byte                 `json:"request_body"`
	Error       string                 `json:"error"`
	ReasonCode  reasoncodes.ReasonCode `json:"reason_code"`
}

func (f ProofVerificationFailureDto) Serialize() ([]byte, error) {
	return utilities.Serialize[ProofVerificationFailureDto](f)
}
