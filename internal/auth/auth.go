// Package auth implements PIN/PW verification, change, and reset
// against the persistent reference data in internal/store, following
// the reference implementation's decrement-before-compare-before-
// commit ordering so that a crash between steps never leaves a
// retry counter un-decremented for an attempt that was already made.
package auth

import (
	"crypto/subtle"

	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
)

// AuthLevel identifies one of the three independent authentication
// bits a session tracks. PW1_SIGN and PW1_DECRYPT both verify the same
// PW1 secret but grant distinct bits (spec §3.1, §4.5 step 1): a VERIFY
// with the decrypt qualifier must never authorize PSO:COMPUTE DIGITAL
// SIGNATURE, and vice versa.
type AuthLevel int

const (
	// LevelPW1Sign gates PSO:COMPUTE DIGITAL SIGNATURE (VERIFY P2 0x81),
	// single-use unless multi-signature mode is enabled.
	LevelPW1Sign AuthLevel = iota
	// LevelPW1Decrypt gates PSO:DECIPHER and INTERNAL AUTHENTICATE
	// (VERIFY P2 0x82); it persists until logout or a card reset.
	LevelPW1Decrypt
	// LevelPW3 gates administrative commands (VERIFY P2 0x83).
	LevelPW3
	// LevelNone marks a verification that grants no persistent
	// authentication bit — the Resetting Code is checked and consumed
	// within a single RESET RETRY COUNTER exchange, never tracked
	// across commands.
	LevelNone
)

// Session tracks which levels are currently authenticated on one
// logical channel (card readers process one command at a time, but a
// verify at PW1_DECRYPT/PW3 persists across commands until logout or
// card reset, unlike a single-use PW1_SIGN verify).
type Session struct {
	authenticated map[AuthLevel]bool
	// multiSign tracks whether a PW1 verify for signing remains valid
	// for more than one PSO:CDS, controlled by the PasswordStatus flag.
	multiSign bool
}

// NewSession starts a fresh, fully unauthenticated session.
func NewSession() *Session {
	return &Session{authenticated: make(map[AuthLevel]bool)}
}

// IsAuthenticated reports whether level is currently verified on this session.
func (s *Session) IsAuthenticated(level AuthLevel) bool {
	return s.authenticated[level]
}

// SetMultiSignAllowed configures whether a PW1_SIGN verify survives a
// signature (PasswordStatus's is_pw1_valid_for_multiple_signatures bit).
func (s *Session) SetMultiSignAllowed(allowed bool) {
	s.multiSign = allowed
}

// ConsumeSignAuthentication clears the PW1_SIGN authentication bit
// after one PSO:CDS, unless multi-signature mode is enabled.
func (s *Session) ConsumeSignAuthentication() {
	if !s.multiSign {
		s.authenticated[LevelPW1Sign] = false
	}
}

// Logout clears authentication at level.
func (s *Session) Logout(level AuthLevel) {
	s.authenticated[level] = false
}

// Require returns cardio.ErrSecurityNotSatisfied unless level is
// currently authenticated on this session.
func (s *Session) Require(level AuthLevel) error {
	if !s.authenticated[level] {
		return cardio.ErrSecurityNotSatisfied()
	}
	return nil
}

// Verify checks candidate against the secret stored at ref and
// updates both the retry counter and the session's authentication bit.
//
// The counter is decremented and committed in its own transaction
// before the comparison runs, and restored to the reference's reset
// value in a second, separate transaction only after a successful
// comparison — so a process crash between "decrement" and "compare"
// never leaves an attempt uncounted, and the decrement is never
// silently undone by a comparison that hasn't actually happened yet.
func Verify(s store.Store, session *Session, ref store.ReferenceIndex, level AuthLevel, candidate []byte) error {
	var secret []byte
	var counter int
	err := s.Update(func(txn store.Txn) error {
		var err error
		counter, err = txn.GetRetryCounter(ref)
		if err != nil {
			return err
		}
		if counter == 0 {
			return nil // AuthMethodBlocked, reported after the transaction below
		}
		secret, err = txn.GetSecret(ref)
		if err != nil {
			return err
		}
		if len(secret) == 0 {
			return nil // ReferenceDataNotUsable, reported after the transaction below
		}
		return txn.SetRetryCounter(ref, counter-1)
	})
	if err != nil {
		return err
	}
	if counter == 0 {
		return cardio.ErrAuthMethodBlocked()
	}
	if len(secret) == 0 {
		return cardio.ErrReferenceDataNotUsable()
	}

	if !constantTimeEqual(secret, candidate) {
		if level != LevelNone {
			session.Logout(level)
		}
		return cardio.ErrSecurityNotSatisfied()
	}

	if err := s.Update(func(txn store.Txn) error {
		return txn.SetRetryCounter(ref, store.DefaultRetryCount)
	}); err != nil {
		return err
	}
	if level != LevelNone {
		session.authenticated[level] = true
	}
	return nil
}

// constantTimeEqual reports whether a and b hold the same bytes without
// letting a length mismatch short-circuit the comparison:
// subtle.ConstantTimeCompare alone returns 0 immediately when the
// operands differ in length, leaking the stored secret's length
// through timing. Both operands are padded to their combined longer
// length before the byte compare, and the length check itself is also
// constant-time.
func constantTimeEqual(a, b []byte) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	paddedA := make([]byte, n)
	paddedB := make([]byte, n)
	copy(paddedA, a)
	copy(paddedB, b)

	lengthsEqual := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	bytesEqual := subtle.ConstantTimeCompare(paddedA, paddedB)
	return lengthsEqual&bytesEqual == 1
}

// VerifyStatus reports whether level is already authenticated without
// consuming an attempt, for the "empty command data" VERIFY form
// (spec §4.5): succeeds silently if already authenticated, otherwise
// raises a WarnPersistentChanged warning carrying the remaining tries.
func VerifyStatus(s store.Store, session *Session, ref store.ReferenceIndex, level AuthLevel) error {
	if session.IsAuthenticated(level) {
		return nil
	}
	var counter int
	err := s.View(func(txn store.Txn) error {
		var err error
		counter, err = txn.GetRetryCounter(ref)
		return err
	})
	if err != nil {
		return err
	}
	return cardio.ErrWarnPersistentChanged(counter)
}

// ChangeReferenceData validates and stores a new secret for ref,
// resetting its retry counter to the default (or to zero if the new
// secret is empty — only legal for the Resetting Code reference).
func ChangeReferenceData(s store.Store, ref store.ReferenceIndex, newSecret []byte) error {
	if len(newSecret) > 0 && len(newSecret) < store.MinSecretLength(ref) {
		return cardio.ErrWrongParameterInCommandData("new reference data too short")
	}
	if len(newSecret) > store.MaxSecretLength {
		return cardio.ErrWrongParameterInCommandData("new reference data too long")
	}
	if len(newSecret) == 0 && ref != store.RefRC {
		return cardio.ErrWrongParameterInCommandData("empty reference data only allowed for the resetting code")
	}
	return s.Update(func(txn store.Txn) error {
		return txn.SetSecret(ref, newSecret)
	})
}
