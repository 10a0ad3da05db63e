package reasoncodes

type ReasonCode string

const (
	ErrUnmarshal       ReasonCode = "UnmarshalError"
	ErrProofGeneration ReasonCode = "ProofGenerationError"

	ErrEncoding            ReasonCode = "EncodingError"
	ErrEncryption          ReasonCode = "EncryptionError"
	ErrDecryption          ReasonCode = "DecryptionError"
	ErrWitnessMismatch     ReasonCode = "WitnessRootMismatch"
	ErrPredicateFalse      ReasonCode = "PredicateUnsatisfied"
	ErrMalformedProof      ReasonCode = "MalformedProof"
	ErrVerificationFailure ReasonCode = "VerificationFailure"
	ErrUnknownToken        ReasonCode = "UnknownToken"
	ErrInvalidOwner        ReasonCode = "InvalidOwner"
	ErrIdentityBinding     ReasonCode = "IdentityBindingError"
	ErrLedger              ReasonCode = "LedgerError"
)
