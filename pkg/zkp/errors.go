package zkp

import (
	"errors"
	"fmt"

	reasoncodes "github.com/secomuib/zkpSoulboundToken/pkg/reason_codes"
)

var (
	ErrEncoding        = errors.New("encoding error")
	ErrProofGeneration = errors.New("proof generation failed")
	ErrMalformedProof  = errors.New("malformed proof")
)

// EncodingError reports a value that cannot be represented in the proving field.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrEncoding, e.Field, e.Reason)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// ProofGenerationError is returned instead of a proof whenever the witness cannot
// satisfy the circuit. Reason separates a witness that does not open the root from
// an honest witness whose predicate is false.
type ProofGenerationError struct {
	Reason reasoncodes.ReasonCode
	Err    error
}

func (e *ProofGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", ErrProofGeneration, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", ErrProofGeneration, e.Reason)
}

func (e *ProofGenerationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProofGeneration, e.Err}
	}
	return []error{ErrProofGeneration}
}

func encodingError(field, format string, args ...any) error {
	return &EncodingError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedProof, fmt.Sprintf(format, args...))
}
