package card

import (
	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/auth"
	"github.com/marmos91/openpgpcard/internal/keygen"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/pkg/metrics/prometheus"
)

// Card holds the application's live, per-connection state: its
// persistent store, the authorization session for the currently
// selected logical channel, the current key-role remapping set by
// MANAGE SECURITY ENVIRONMENT, and the background key-generation pump.
//
// A Card is not safe for concurrent use by multiple goroutines; the
// transports in internal/cardio serialize command processing the way
// a physical card would.
type Card struct {
	Store   store.Store
	Session *auth.Session
	Pump    *keygen.Pump
	Metrics *prometheus.CardMetrics

	// decryptSlot and authSlot record which physical key slot answers
	// PERFORM SECURITY OPERATION/DECIPHER and INTERNAL AUTHENTICATE,
	// respectively. MANAGE SECURITY ENVIRONMENT can point either role at
	// the DECRYPT or the AUTH slot (P2 0xB8 for DECIPHER, 0xA4 for
	// INTERNAL AUTHENTICATE); SELECT resets both to their natural slots.
	decryptSlot store.SlotIndex
	authSlot    store.SlotIndex
}

// New constructs a Card bound to s, ready to dispatch commands. The
// pump may be nil, in which case GENERATE ASYMMETRIC KEY PAIR always
// generates synchronously.
//
// A store still at its construction-time LifecycleCreation state gets
// the default PW1/PW3 reference data and is advanced to
// LifecycleInitialisation: the application instance itself
// is the manufacturing step this core never separately models, so
// bringing a fresh store under management is what makes it eligible
// for personalisation and, later, ACTIVATE FILE.
func New(s store.Store, pump *keygen.Pump, m *prometheus.CardMetrics) (*Card, error) {
	err := s.Update(func(txn store.Txn) error {
		lifecycle, err := txn.GetLifecycle()
		if err != nil {
			return err
		}
		if lifecycle != store.LifecycleCreation {
			return nil
		}
		if err := txn.SetSecret(store.RefPW1, defaultPW1); err != nil {
			return err
		}
		if err := txn.SetSecret(store.RefPW3, defaultPW3); err != nil {
			return err
		}
		return txn.SetLifecycle(store.LifecycleInitialisation)
	})
	if err != nil {
		return nil, err
	}
	return &Card{
		Store:       s,
		Session:     auth.NewSession(),
		Pump:        pump,
		Metrics:     m,
		decryptSlot: store.SlotDecrypt,
		authSlot:    store.SlotAuth,
	}, nil
}

// slotAlgorithm loads and decodes slot's current Algorithm Attributes,
// falling back to the factory default if none has been stored yet.
func (c *Card) slotAlgorithm(slot store.SlotIndex) (algo.Algorithm, error) {
	var raw []byte
	err := c.Store.View(func(txn store.Txn) error {
		var err error
		raw, err = txn.GetAlgorithmAttributes(slot)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return defaultAttributes(slot), nil
	}
	return algo.DecodeAttributes(raw)
}

func defaultAttributes(slot store.SlotIndex) algo.Algorithm {
	switch slot {
	case store.SlotSign:
		return algo.DefaultSignatureAttributes()
	case store.SlotDecrypt:
		return algo.DefaultDecryptionAttributes()
	default:
		return algo.DefaultAuthenticationAttributes()
	}
}

// loadPrivateKey reads slot's stored private key material and
// reconstructs it against its current algorithm attributes.
func (c *Card) loadPrivateKey(slot store.SlotIndex) (algo.PrivateKey, error) {
	alg, err := c.slotAlgorithm(slot)
	if err != nil {
		return nil, err
	}
	var der []byte
	var info store.KeyInfo
	err = c.Store.View(func(txn store.Txn) error {
		var err error
		der, info, err = txn.GetKeyMaterial(slot)
		return err
	})
	if err != nil {
		return nil, err
	}
	if info == store.KeyInfoNotPresent || len(der) == 0 {
		return nil, errNoKey
	}
	return alg.LoadDER(der)
}
