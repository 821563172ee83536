package card

import (
	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/auth"
	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/internal/tag"
)

// handleSelect implements SELECT (INS 0xA4): selecting the
// application by AID or name always succeeds as long as the
// application has been activated; logs out every reference so a newly
// selected channel starts unauthenticated.
func (c *Card) handleSelect(apdu *CommandAPDU) ResponseAPDU {
	var lifecycle store.Lifecycle
	err := c.Store.View(func(txn store.Txn) error {
		var err error
		lifecycle, err = txn.GetLifecycle()
		return err
	})
	if err != nil {
		return statusResponse(err)
	}
	if lifecycle != store.LifecycleActivated {
		return statusResponse(cardio.ErrConditionsNotSatisfied())
	}

	c.Session.Logout(auth.LevelPW1Sign)
	c.Session.Logout(auth.LevelPW1Decrypt)
	c.Session.Logout(auth.LevelPW3)
	c.decryptSlot = store.SlotDecrypt
	c.authSlot = store.SlotAuth
	return statusResponse(nil)
}

// isTerminated reports whether the application is in the Terminated
// lifecycle state, in which only SELECT and ACTIVATE FILE are accepted.
func (c *Card) isTerminated() (bool, error) {
	var lifecycle store.Lifecycle
	err := c.Store.View(func(txn store.Txn) error {
		var err error
		lifecycle, err = txn.GetLifecycle()
		return err
	})
	if err != nil {
		return false, err
	}
	return lifecycle == store.LifecycleTerminated, nil
}

// handleActivateFile implements ACTIVATE FILE (INS 0x44), moving the
// application into the Activated lifecycle state. It accepts both
// Initialisation (the normal personalise-then-activate path) and
// Terminated (a blanked card reactivating after TERMINATE DF, which
// re-initialises state before leaving it ready to activate again).
// Activating an already-activated card, or one still in Creation, is
// rejected: the card must pass through Initialisation first.
func (c *Card) handleActivateFile(apdu *CommandAPDU) ResponseAPDU {
	return statusResponse(c.Store.Update(func(txn store.Txn) error {
		current, err := txn.GetLifecycle()
		if err != nil {
			return err
		}
		if current != store.LifecycleInitialisation && current != store.LifecycleTerminated {
			return cardio.ErrConditionsNotSatisfied()
		}
		return txn.SetLifecycle(store.LifecycleActivated)
	}))
}

// handleDeactivateFile implements the table entry for DEACTIVATE FILE
// (INS 0x04). deactivateSelf has no reachable path in this
// application: unlike TERMINATE DF, there is no supported way to
// suspend the application short of terminating it outright, so the
// entry exists only to trap rather than silently no-op or
// misrepresent a deactivation that never happens.
func (c *Card) handleDeactivateFile(apdu *CommandAPDU) ResponseAPDU {
	panic("card: DEACTIVATE FILE is not reachable")
}

// defaultPW1 and defaultPW3 are the factory reference data secrets
// blank() restores, matching the Default contents every fresh
// application and every terminated-then-reinitialised one starts with.
var (
	defaultPW1 = []byte("123456")
	defaultPW3 = []byte("12345678")
)

// handleTerminateDF implements TERMINATE DF (INS 0xE6), requiring PW3
// (or PW3 already blocked, since a card whose admin PIN is unusable
// must still be recoverable) and moving the application into the
// Terminated lifecycle state. terminateSelf invokes blank() first, so
// a terminated card's reference data, key material and algorithm
// attributes are already back at their factory defaults by the time a
// later ACTIVATE FILE brings it back into service.
func (c *Card) handleTerminateDF(apdu *CommandAPDU) ResponseAPDU {
	if err := c.requireTerminateAuthorization(); err != nil {
		return statusResponse(err)
	}
	if err := c.blank(); err != nil {
		return statusResponse(err)
	}
	c.Session.Logout(auth.LevelPW1Sign)
	c.Session.Logout(auth.LevelPW1Decrypt)
	c.Session.Logout(auth.LevelPW3)
	return statusResponse(c.Store.Update(func(txn store.Txn) error {
		return txn.SetLifecycle(store.LifecycleTerminated)
	}))
}

// requireTerminateAuthorization permits TERMINATE DF when PW3 is
// verified or when PW3's retry counter is already exhausted: an
// unrecoverable admin PIN must not strand the card past a factory
// reset.
func (c *Card) requireTerminateAuthorization() error {
	if err := c.Session.Require(auth.LevelPW3); err == nil {
		return nil
	}
	var blocked bool
	err := c.Store.View(func(txn store.Txn) error {
		n, err := txn.GetRetryCounter(store.RefPW3)
		if err != nil {
			return err
		}
		blocked = n == 0
		return nil
	})
	if err != nil {
		return err
	}
	if blocked {
		return nil
	}
	return cardio.ErrSecurityNotSatisfied()
}

// blank resets reference data, key slots and algorithm attributes to
// their factory defaults, per terminateSelf's blank() call.
func (c *Card) blank() error {
	return c.Store.Update(func(txn store.Txn) error {
		if err := txn.SetSecret(store.RefPW1, defaultPW1); err != nil {
			return err
		}
		if err := txn.SetSecret(store.RefPW3, defaultPW3); err != nil {
			return err
		}
		if err := txn.SetSecret(store.RefRC, nil); err != nil {
			return err
		}
		if err := txn.SetMultiSigFlag(false); err != nil {
			return err
		}
		if err := txn.SetSignatureCounter(0); err != nil {
			return err
		}
		for slot, attrs := range map[store.SlotIndex]algo.Algorithm{
			store.SlotSign:    algo.DefaultSignatureAttributes(),
			store.SlotDecrypt: algo.DefaultDecryptionAttributes(),
			store.SlotAuth:    algo.DefaultAuthenticationAttributes(),
		} {
			if err := txn.SetAlgorithmAttributes(slot, attrs.EncodeAttributes()); err != nil {
				return err
			}
			if err := txn.EraseKey(slot); err != nil {
				return err
			}
		}
		for _, number := range []uint32{
			tag.CardholderName.Number,
			tag.LanguagePreference.Number,
			tag.Sex.Number,
			tag.LoginData.Number,
			tag.URL.Number,
		} {
			if err := txn.DeleteDO(number); err != nil {
				return err
			}
		}
		return nil
	})
}
