package card

import (
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/internal/tag"
)

// aidRID is the registered application provider identifier for the
// OpenPGP card application (FSFE), fixed per spec §3.1.
var aidRID = [5]byte{0xD2, 0x76, 0x00, 0x01, 0x24}

// aidAppID and aidVersion are the one-byte application identifier and
// two-byte version this implementation reports; both are immutable
// once an AID has been written. Version is BCD: major nibble pair,
// then minor/patch nibble pair, so spec 3.4.1 is 0x03, 0x41.
const aidAppID = 0x01

var aidVersion = [2]byte{0x03, 0x41}

// BuildAID assembles the 16-byte Application Identifier from a
// manufacturer ID and serial number: RID ∥ app-id ∥ version ∥
// manufacturer ∥ serial ∥ two zero bytes (spec §3.1). Callers are
// responsible for generating manufacturer/serial once, at blank-card
// initialization; BuildAID itself is a pure assembly step.
func BuildAID(manufacturer [2]byte, serial [4]byte) []byte {
	aid := make([]byte, 0, 16)
	aid = append(aid, aidRID[:]...)
	aid = append(aid, aidAppID)
	aid = append(aid, aidVersion[:]...)
	aid = append(aid, manufacturer[:]...)
	aid = append(aid, serial[:]...)
	aid = append(aid, 0x00, 0x00)
	return aid
}

// InitializeAID writes the AID data object if and only if none is
// present yet, matching "once created, the AID is immutable."
func (c *Card) InitializeAID(manufacturer [2]byte, serial [4]byte) error {
	return c.Store.Update(func(txn store.Txn) error {
		_, present, err := txn.GetDO(tag.AID.Number)
		if err != nil {
			return err
		}
		if present {
			return nil
		}
		return txn.SetDO(tag.AID.Number, BuildAID(manufacturer, serial))
	})
}
