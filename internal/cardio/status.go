// Package cardio abstracts the card's APDU transport and the ISO
// 7816-4 status words command handlers report back through it.
package cardio

import "fmt"

// SW is an ISO 7816-4 status word pair (SW1, SW2), carried as a single
// 16-bit value with SW1 in the high byte.
type SW uint16

const (
	SWSuccess                  SW = 0x9000
	SWSecurityNotSatisfied     SW = 0x6982
	SWAuthMethodBlocked        SW = 0x6983
	SWReferenceDataNotUsable   SW = 0x6984
	SWWrongParameterInCommand  SW = 0x6A80
	SWReferenceDataNotFound    SW = 0x6A88
	SWRecordNotFound           SW = 0x6A83
	SWWrongParametersP1P2      SW = 0x6A86
	SWConditionsNotSatisfied   SW = 0x6985
	SWInstructionNotSupported  SW = 0x6D00
	SWWrongLength              SW = 0x6700
)

// swWarnPersistentChangedBase is SW1SW2 "63Cx" (ISO 7816-4 warning:
// state unchanged, x retries remaining). WarnPersistentChanged adds
// the remaining-tries nibble.
const swWarnPersistentChangedBase SW = 0x63C0

// StatusError wraps the status word a command handler reports. The
// card package serializes a StatusError's SW as-is (nil means
// SWSuccess); any other non-nil error a handler returns is reported as
// SWConditionsNotSatisfied.
type StatusError struct {
	SW      SW
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (SW=%04X)", e.Message, uint16(e.SW))
	}
	return fmt.Sprintf("SW=%04X", uint16(e.SW))
}

func newStatusError(sw SW, message string) *StatusError {
	return &StatusError{SW: sw, Message: message}
}

func ErrSecurityNotSatisfied() *StatusError {
	return newStatusError(SWSecurityNotSatisfied, "security status not satisfied")
}

func ErrAuthMethodBlocked() *StatusError {
	return newStatusError(SWAuthMethodBlocked, "authentication method blocked")
}

func ErrReferenceDataNotUsable() *StatusError {
	return newStatusError(SWReferenceDataNotUsable, "reference data not usable")
}

func ErrReferenceDataNotFound() *StatusError {
	return newStatusError(SWReferenceDataNotFound, "referenced data not found")
}

func ErrRecordNotFound() *StatusError {
	return newStatusError(SWRecordNotFound, "record not found")
}

func ErrWrongParameterInCommandData(message string) *StatusError {
	return newStatusError(SWWrongParameterInCommand, message)
}

func ErrWrongParametersP1P2(message string) *StatusError {
	return newStatusError(SWWrongParametersP1P2, message)
}

func ErrConditionsNotSatisfied() *StatusError {
	return newStatusError(SWConditionsNotSatisfied, "conditions of use not satisfied")
}

// ErrWarnPersistentChanged reports the number of verify attempts
// remaining for a reference (0-15) as an ISO 7816-4 "63Cx" warning,
// i.e. success with a caveat rather than a failure.
func ErrWarnPersistentChanged(remaining int) *StatusError {
	if remaining < 0 {
		remaining = 0
	}
	if remaining > 15 {
		remaining = 15
	}
	return newStatusError(swWarnPersistentChangedBase+SW(remaining), fmt.Sprintf("%d retries remaining", remaining))
}
