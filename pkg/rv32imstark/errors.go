package rv32imstark

import (
	"errors"
	"fmt"

	"github.com/circleproof/rv32im-stark/internal/rv32imstark/executor"
	"github.com/circleproof/rv32im-stark/internal/rv32imstark/verifier"
)

// ErrorCode is the public error taxonomy, flattening the internal
// per-package codes (executor.ErrorCode, verifier.ErrorCode) into one enum
// for callers that only need to branch on category (see DESIGN.md).
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota
	ErrInvalidELF
	ErrUnalignedAccess
	ErrOutOfBoundsMemory
	ErrIllegalInstruction
	ErrInvalidConfig
	ErrInvalidProof
	ErrMerkleVerification
	ErrFRIVerification
	ErrQueryIndexMismatch
	ErrDegreeBound
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidELF:
		return "invalid_elf"
	case ErrUnalignedAccess:
		return "unaligned_access"
	case ErrOutOfBoundsMemory:
		return "out_of_bounds_memory"
	case ErrIllegalInstruction:
		return "illegal_instruction"
	case ErrInvalidConfig:
		return "invalid_config"
	case ErrInvalidProof:
		return "invalid_proof"
	case ErrMerkleVerification:
		return "merkle_verification"
	case ErrFRIVerification:
		return "fri_verification"
	case ErrQueryIndexMismatch:
		return "query_index_mismatch"
	case ErrDegreeBound:
		return "degree_bound"
	default:
		return "unknown"
	}
}

// Error is the public error type every exported function returns on
// failure: a category, a message, and the precise internal error it wraps.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rv32imstark: %s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func wrapExecutorErr(err error) error {
	if err == nil {
		return nil
	}
	var execErr *executor.Error
	if errors.As(err, &execErr) {
		return &Error{Code: executorCode(execErr.Code), Message: execErr.Message, Cause: err}
	}
	return &Error{Code: ErrUnknown, Message: "executor failure", Cause: err}
}

func executorCode(c executor.ErrorCode) ErrorCode {
	switch c {
	case executor.ErrInvalidELF:
		return ErrInvalidELF
	case executor.ErrUnalignedAccess:
		return ErrUnalignedAccess
	case executor.ErrOutOfBoundsMemory:
		return ErrOutOfBoundsMemory
	case executor.ErrIllegalInstruction:
		return ErrIllegalInstruction
	default:
		return ErrUnknown
	}
}

func wrapVerifierErr(err error) error {
	if err == nil {
		return nil
	}
	var verErr *verifier.Error
	if errors.As(err, &verErr) {
		return &Error{Code: verifierCode(verErr.Code), Message: verErr.Message, Cause: err}
	}
	return &Error{Code: ErrUnknown, Message: "verification failure", Cause: err}
}

func verifierCode(c verifier.ErrorCode) ErrorCode {
	switch c {
	case verifier.ErrInvalidProof:
		return ErrInvalidProof
	case verifier.ErrMerkle:
		return ErrMerkleVerification
	case verifier.ErrFRI:
		return ErrFRIVerification
	case verifier.ErrQueryIndexMismatch:
		return ErrQueryIndexMismatch
	case verifier.ErrDegreeBound:
		return ErrDegreeBound
	default:
		return ErrUnknown
	}
}
