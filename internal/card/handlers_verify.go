package card

import (
	"github.com/marmos91/openpgpcard/internal/auth"
	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
)

// VERIFY/CHANGE REFERENCE DATA/RESET RETRY COUNTER P2 reference selectors.
const (
	p2PW1Sign  = 0x81 // PW1, verified for PSO:CDS (single use unless multi-sign is enabled)
	p2PW1Other = 0x82 // PW1, verified for DECIPHER/INTERNAL AUTHENTICATE
	p2PW3      = 0x83 // PW3, the Admin PIN
)

// referenceForP2 maps a VERIFY/CHANGE REFERENCE DATA P2 qualifier to
// its stored reference data and the authentication bit it grants.
// PW1_SIGN and PW1_DECRYPT both verify the PW1 secret but grant
// distinct bits (spec §3.1, §4.5 step 1).
func referenceForP2(p2 byte) (store.ReferenceIndex, auth.AuthLevel, bool) {
	switch p2 {
	case p2PW1Sign:
		return store.RefPW1, auth.LevelPW1Sign, true
	case p2PW1Other:
		return store.RefPW1, auth.LevelPW1Decrypt, true
	case p2PW3:
		return store.RefPW3, auth.LevelPW3, true
	default:
		return 0, 0, false
	}
}

// handleVerify implements VERIFY (INS 0x20). An empty command body
// queries authentication status without consuming an attempt; a
// non-empty body compares it against the stored secret.
func (c *Card) handleVerify(apdu *CommandAPDU) ResponseAPDU {
	ref, level, ok := referenceForP2(apdu.P2)
	if !ok {
		return statusResponse(cardio.ErrWrongParametersP1P2("unknown VERIFY reference"))
	}

	if len(apdu.Data) == 0 {
		return statusResponse(auth.VerifyStatus(c.Store, c.Session, ref, level))
	}

	err := auth.Verify(c.Store, c.Session, ref, level, apdu.Data)
	if err != nil {
		if c.Metrics != nil {
			c.Metrics.RecordVerifyFailure(ref.String())
		}
		return statusResponse(err)
	}
	return statusResponse(nil)
}

// handleChangeReferenceData implements CHANGE REFERENCE DATA (INS
// 0x24): the command body is [old secret][new secret], split at the
// reference's configured secret length boundary the way the reference
// implementation does (it cannot rely on a delimiter since both
// secrets are raw bytes).
func (c *Card) handleChangeReferenceData(apdu *CommandAPDU) ResponseAPDU {
	ref, _, ok := referenceForP2(apdu.P2)
	if !ok || ref == store.RefRC {
		return statusResponse(cardio.ErrWrongParametersP1P2("unknown CHANGE REFERENCE DATA reference"))
	}

	oldSecret, newSecret, err := splitOldNew(c.Store, ref, apdu.Data)
	if err != nil {
		return statusResponse(err)
	}
	// The old-secret check here is a standalone verification, not a
	// VERIFY command — it never grants the PW1_SIGN/PW1_DECRYPT
	// session bit, only gates whether the new secret may be stored.
	if err := auth.Verify(c.Store, c.Session, ref, auth.LevelNone, oldSecret); err != nil {
		return statusResponse(err)
	}
	if err := auth.ChangeReferenceData(c.Store, ref, newSecret); err != nil {
		return statusResponse(err)
	}
	return statusResponse(nil)
}

// handleResetRetryCounter implements RESET RETRY COUNTER (INS 0x2C),
// which only ever targets PW1. P1=0x00 authorizes the reset with the
// Resetting Code (body is [RC][new PW1]); P1=0x02 relies on an
// already-verified PW3 session and expects only the new PW1 in the body.
func (c *Card) handleResetRetryCounter(apdu *CommandAPDU) ResponseAPDU {
	if apdu.P2 != p2PW1Sign && apdu.P2 != p2PW1Other {
		return statusResponse(cardio.ErrWrongParametersP1P2("RESET RETRY COUNTER only targets PW1"))
	}

	switch apdu.P1 {
	case 0x00:
		rc, newPW1, err := splitOldNew(c.Store, store.RefRC, apdu.Data)
		if err != nil {
			return statusResponse(err)
		}
		if err := auth.Verify(c.Store, c.Session, store.RefRC, auth.LevelNone, rc); err != nil {
			return statusResponse(err)
		}
		if err := auth.ChangeReferenceData(c.Store, store.RefPW1, newPW1); err != nil {
			return statusResponse(err)
		}
	case 0x02:
		if err := c.Session.Require(auth.LevelPW3); err != nil {
			return statusResponse(err)
		}
		if err := auth.ChangeReferenceData(c.Store, store.RefPW1, apdu.Data); err != nil {
			return statusResponse(err)
		}
	default:
		return statusResponse(cardio.ErrWrongParametersP1P2("unknown RESET RETRY COUNTER mode"))
	}
	return statusResponse(nil)
}

// splitOldNew divides a CHANGE REFERENCE DATA / RESET RETRY COUNTER
// body into its old and new secrets at the length of oldRef's currently
// stored secret (the GnuPG OpenPGP card convention), falling back to
// oldRef's minimum length when no secret is stored.
func splitOldNew(s store.Store, oldRef store.ReferenceIndex, data []byte) (oldSecret, newSecret []byte, err error) {
	var stored []byte
	viewErr := s.View(func(txn store.Txn) error {
		var err error
		stored, err = txn.GetSecret(oldRef)
		return err
	})
	if viewErr != nil {
		return nil, nil, viewErr
	}
	oldLen := len(stored)
	if oldLen == 0 {
		oldLen = store.MinSecretLength(oldRef)
	}
	if len(data) < oldLen {
		return nil, nil, cardio.ErrWrongParameterInCommandData("command data shorter than the old reference data")
	}
	return data[:oldLen], data[oldLen:], nil
}

func statusResponse(err error) ResponseAPDU {
	if err == nil {
		return ResponseAPDU{SW: cardio.SWSuccess}
	}
	if statusErr, ok := err.(*cardio.StatusError); ok {
		return ResponseAPDU{SW: statusErr.SW}
	}
	return ResponseAPDU{SW: cardio.SWConditionsNotSatisfied}
}
