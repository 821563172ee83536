package card

import (
	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/internal/tag"
	"github.com/marmos91/openpgpcard/internal/tlv"
)

// extendedHeaderListTag wraps a PUT DATA key import body: a control
// reference template naming the target slot, nested around a
// Cardholder Private Key Template carrying the raw key components.
var extendedHeaderListTag = tlv.Tag{Number: 0x4D, Class: tlv.ClassApplication, Constructed: true}

var controlReferenceToSlot = map[uint32]store.SlotIndex{
	tag.ControlReferenceSignature.Number:     store.SlotSign,
	tag.ControlReferenceDecryption.Number:    store.SlotDecrypt,
	tag.ControlReferenceAuthentication.Number: store.SlotAuth,
}

// importKey parses an Extended Header List PUT DATA body and installs
// the imported private key into its target slot, the way the
// reference implementation's key-import PUT DATA handler does: the
// card never generates d itself here, the algorithm re-derives it from
// the transmitted prime factors.
func (c *Card) importKey(body []byte) error {
	var slot store.SlotIndex
	var found bool
	var templateValue []byte

	for _, obj := range decodeTopLevel(body) {
		s, ok := controlReferenceToSlot[obj.Tag.Number]
		if !ok {
			continue
		}
		slot, found = s, true
		for _, inner := range decodeTopLevel(obj.Value) {
			if inner.Tag.Number == tag.CardholderPrivateKeyTemplate.Number {
				templateValue = inner.Value
			}
		}
	}
	if !found {
		return cardio.ErrWrongParameterInCommandData("missing control reference template")
	}

	components := algo.KeyComponents{}
	for _, obj := range decodeTopLevel(templateValue) {
		switch obj.Tag.Number {
		case tag.PublicExponent.Number:
			components.PublicExponent = obj.Value
		case tag.Prime1.Number:
			components.Prime1 = obj.Value
		case tag.Prime2.Number:
			components.Prime2 = obj.Value
		case tag.PQ.Number:
			components.PQ = obj.Value
		case tag.DP1.Number:
			components.DP1 = obj.Value
		case tag.DQ1.Number:
			components.DQ1 = obj.Value
		case tag.Modulus.Number:
			components.Modulus = obj.Value
		case tag.CurvePublicKey.Number:
			components.CurvePublicKey = obj.Value
		}
	}

	alg, err := c.slotAlgorithm(slot)
	if err != nil {
		return err
	}
	key, err := alg.ImportKey(components)
	if err != nil {
		return cardio.ErrWrongParameterInCommandData("could not import key: " + err.Error())
	}
	return c.installKey(slot, key, store.KeyInfoImported)
}

// installKey persists key's private material into slot, matching
// _storePrivateKey's reset of the signature counter when the SIGN
// slot's key changes. The fingerprint and generation timestamp DOs are
// not derived here: the host computes the OpenPGP v4 fingerprint from
// the public key packet it assembles and writes both via PUT DATA to
// their own tags, same as upstream GnuPG card tooling does after key
// generation or import.
func (c *Card) installKey(slot store.SlotIndex, key algo.PrivateKey, info store.KeyInfo) error {
	der, err := key.PrivateDER()
	if err != nil {
		return err
	}

	return c.Store.Update(func(txn store.Txn) error {
		if err := txn.SetKeyMaterial(slot, der, info); err != nil {
			return err
		}
		if slot == store.SlotSign {
			return txn.SetSignatureCounter(0)
		}
		return nil
	})
}
