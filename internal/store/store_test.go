package store_test

import (
	"testing"

	"github.com/marmos91/openpgpcard/internal/store"
)

// storeFactories returns a constructor per backend so every test below
// runs against both the BadgerDB store and the in-memory double.
func storeFactories(t *testing.T) map[string]func() store.Store {
	return map[string]func() store.Store{
		"badger": func() store.Store {
			s, err := store.Open(t.TempDir())
			if err != nil {
				t.Fatalf("open badger store: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
		"memory": func() store.Store {
			return store.NewMemoryStore()
		},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s store.Store)) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore())
		})
	}
}

func TestDefaultSecretAndCounterAreEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		err := s.View(func(txn store.Txn) error {
			secret, err := txn.GetSecret(store.RefPW1)
			if err != nil {
				return err
			}
			if len(secret) != 0 {
				t.Fatalf("expected no default secret, got %q", secret)
			}
			counter, err := txn.GetRetryCounter(store.RefPW1)
			if err != nil {
				return err
			}
			if counter != 0 {
				t.Fatalf("expected default counter 0, got %d", counter)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestSetSecretResetsCounter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		err := s.Update(func(txn store.Txn) error {
			return txn.SetSecret(store.RefPW1, []byte("123456"))
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.View(func(txn store.Txn) error {
			counter, err := txn.GetRetryCounter(store.RefPW1)
			if err != nil {
				return err
			}
			if counter != store.DefaultRetryCount {
				t.Fatalf("expected counter reset to %d, got %d", store.DefaultRetryCount, counter)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		// Clearing the secret resets the counter to 0, not the default.
		err = s.Update(func(txn store.Txn) error {
			return txn.SetSecret(store.RefPW1, nil)
		})
		if err != nil {
			t.Fatal(err)
		}
		err = s.View(func(txn store.Txn) error {
			counter, err := txn.GetRetryCounter(store.RefPW1)
			if err != nil {
				return err
			}
			if counter != 0 {
				t.Fatalf("expected counter 0 after clearing secret, got %d", counter)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestRetryCounterDecrementCommitsIndependently(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		if err := s.Update(func(txn store.Txn) error {
			return txn.SetSecret(store.RefPW1, []byte("123456"))
		}); err != nil {
			t.Fatal(err)
		}

		// Simulate a failed verify: decrement and commit before any
		// comparison happens in a later, separate transaction.
		if err := s.Update(func(txn store.Txn) error {
			counter, err := txn.GetRetryCounter(store.RefPW1)
			if err != nil {
				return err
			}
			return txn.SetRetryCounter(store.RefPW1, counter-1)
		}); err != nil {
			t.Fatal(err)
		}

		err := s.View(func(txn store.Txn) error {
			counter, err := txn.GetRetryCounter(store.RefPW1)
			if err != nil {
				return err
			}
			if counter != store.DefaultRetryCount-1 {
				t.Fatalf("expected decremented counter %d, got %d", store.DefaultRetryCount-1, counter)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestEraseKeyClearsAllFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		var fp, cafp [20]byte
		for i := range fp {
			fp[i] = byte(i)
			cafp[i] = byte(0xFF - i)
		}

		err := s.Update(func(txn store.Txn) error {
			if err := txn.SetKeyMaterial(store.SlotSign, []byte("der-bytes"), store.KeyInfoGeneratedOnCard); err != nil {
				return err
			}
			if err := txn.SetFingerprint(store.SlotSign, fp); err != nil {
				return err
			}
			if err := txn.SetCAFingerprint(store.SlotSign, cafp); err != nil {
				return err
			}
			return txn.SetKeyTimestamp(store.SlotSign, 0x61000000)
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.Update(func(txn store.Txn) error {
			return txn.EraseKey(store.SlotSign)
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.View(func(txn store.Txn) error {
			der, info, err := txn.GetKeyMaterial(store.SlotSign)
			if err != nil {
				return err
			}
			if der != nil || info != store.KeyInfoNotPresent {
				t.Fatalf("expected key material cleared, got der=%v info=%v", der, info)
			}
			gotFP, err := txn.GetFingerprint(store.SlotSign)
			if err != nil {
				return err
			}
			if gotFP != ([20]byte{}) {
				t.Fatalf("expected fingerprint cleared, got %x", gotFP)
			}
			gotCAFP, err := txn.GetCAFingerprint(store.SlotSign)
			if err != nil {
				return err
			}
			if gotCAFP != ([20]byte{}) {
				t.Fatalf("expected CA fingerprint cleared, got %x", gotCAFP)
			}
			ts, err := txn.GetKeyTimestamp(store.SlotSign)
			if err != nil {
				return err
			}
			if ts != 0 {
				t.Fatalf("expected timestamp cleared, got %d", ts)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestSignatureCounterHoldsMaximum(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		err := s.Update(func(txn store.Txn) error {
			return txn.SetSignatureCounter(store.SignatureCounterMax)
		})
		if err != nil {
			t.Fatal(err)
		}
		err = s.View(func(txn store.Txn) error {
			counter, err := txn.GetSignatureCounter()
			if err != nil {
				return err
			}
			if counter != store.SignatureCounterMax {
				t.Fatalf("expected %d, got %d", store.SignatureCounterMax, counter)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestDataObjectRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		const tag = 0x5E // Login Data

		err := s.View(func(txn store.Txn) error {
			_, present, err := txn.GetDO(tag)
			if err != nil {
				return err
			}
			if present {
				t.Fatal("expected DO absent before being set")
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.Update(func(txn store.Txn) error {
			return txn.SetDO(tag, []byte("alice"))
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.View(func(txn store.Txn) error {
			value, present, err := txn.GetDO(tag)
			if err != nil {
				return err
			}
			if !present || string(value) != "alice" {
				t.Fatalf("expected alice, got present=%v value=%q", present, value)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.Update(func(txn store.Txn) error {
			return txn.DeleteDO(tag)
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.View(func(txn store.Txn) error {
			_, present, err := txn.GetDO(tag)
			if err != nil {
				return err
			}
			if present {
				t.Fatal("expected DO absent after delete")
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestLifecyclePersists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		err := s.View(func(txn store.Txn) error {
			lc, err := txn.GetLifecycle()
			if err != nil {
				return err
			}
			if lc != store.LifecycleCreation {
				t.Fatalf("expected default LifecycleCreation, got %v", lc)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.Update(func(txn store.Txn) error {
			return txn.SetLifecycle(store.LifecycleActivated)
		})
		if err != nil {
			t.Fatal(err)
		}

		err = s.View(func(txn store.Txn) error {
			lc, err := txn.GetLifecycle()
			if err != nil {
				return err
			}
			if lc != store.LifecycleActivated {
				t.Fatalf("expected LifecycleActivated, got %v", lc)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}
