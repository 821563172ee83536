package card

import (
	"crypto"
	"crypto/rand"

	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/auth"
	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/internal/tag"
)

// PERFORM SECURITY OPERATION P1/P2 pairs (ISO 7816-8): P1 names the
// destination representation, P2 the source.
const (
	psoP1Signature = 0x9E
	psoP2Condensate = 0x9A
	psoP1Cleartext  = 0x80
	psoP2Ciphertext = 0x86
)

// handlePerformSecurityOperation implements PSO:COMPUTE DIGITAL
// SIGNATURE (P1/P2 9E9A) and PSO:DECIPHER (P1/P2 8086).
func (c *Card) handlePerformSecurityOperation(apdu *CommandAPDU) ResponseAPDU {
	switch {
	case apdu.P1 == psoP1Signature && apdu.P2 == psoP2Condensate:
		return c.performSign(apdu.Data)
	case apdu.P1 == psoP1Cleartext && apdu.P2 == psoP2Ciphertext:
		return c.performDecipher(apdu.Data)
	default:
		return statusResponse(cardio.ErrWrongParametersP1P2("unsupported PSO operation"))
	}
}

func (c *Card) performSign(condensate []byte) ResponseAPDU {
	if err := c.Session.Require(auth.LevelPW1Sign); err != nil {
		return statusResponse(err)
	}
	result, err := c.sign(store.SlotSign, condensate)
	if err != nil {
		return statusResponse(translateKeyError(err))
	}

	if err := c.Store.Update(func(txn store.Txn) error {
		n, err := txn.GetSignatureCounter()
		if err != nil {
			return err
		}
		if n >= store.SignatureCounterMax {
			return nil
		}
		return txn.SetSignatureCounter(n + 1)
	}); err != nil {
		return statusResponse(err)
	}
	c.Session.ConsumeSignAuthentication()
	return ResponseAPDU{Data: result, SW: cardio.SWSuccess}
}

func (c *Card) performDecipher(ciphertext []byte) ResponseAPDU {
	if err := c.Session.Require(auth.LevelPW1Decrypt); err != nil {
		return statusResponse(err)
	}
	key, err := c.loadPrivateKey(c.decryptSlot)
	if err != nil {
		return statusResponse(translateKeyError(err))
	}
	decrypter, ok := key.(algo.Decrypter)
	if !ok {
		return statusResponse(cardio.ErrConditionsNotSatisfied())
	}

	alg, err := c.slotAlgorithm(c.decryptSlot)
	if err != nil {
		return statusResponse(err)
	}
	input, err := decipherInput(alg, ciphertext)
	if err != nil {
		return statusResponse(err)
	}

	plaintext, err := decrypter.Decrypt(input)
	if err != nil {
		return statusResponse(cardio.ErrConditionsNotSatisfied())
	}
	return ResponseAPDU{Data: plaintext, SW: cardio.SWSuccess}
}

// decipherInput extracts what the underlying family's Decrypt expects
// from the PSO:DECIPHER command data: for RSA, the cryptogram after its
// leading zero padding-indicator byte; for ECDH/X25519, the peer's raw
// public key unwrapped from its Cipher { PublicKeyComponents { ECPublic } }
// envelope.
func decipherInput(alg algo.Algorithm, ciphertext []byte) ([]byte, error) {
	if alg.Family() == algo.FamilyRSA {
		if len(ciphertext) == 0 || ciphertext[0] != 0x00 {
			return nil, cardio.ErrWrongParameterInCommandData("expected leading 0x00 padding indicator")
		}
		return ciphertext[1:], nil
	}
	return decodeECPeerPublicKey(ciphertext)
}

func decodeECPeerPublicKey(ciphertext []byte) ([]byte, error) {
	objs := decodeTopLevel(ciphertext)
	if len(objs) != 1 || objs[0].Tag != tag.Cipher {
		return nil, cardio.ErrWrongParameterInCommandData("expected Cipher envelope")
	}
	inner := decodeTopLevel(objs[0].Value)
	if len(inner) != 1 || inner[0].Tag != tag.PublicKeyComponents {
		return nil, cardio.ErrWrongParameterInCommandData("expected PublicKeyComponents")
	}
	peer := decodeTopLevel(inner[0].Value)
	if len(peer) != 1 || peer[0].Tag != tag.ECPublic {
		return nil, cardio.ErrWrongParameterInCommandData("expected ECPublic")
	}
	return peer[0].Value, nil
}

// handleInternalAuthenticate implements INTERNAL AUTHENTICATE (INS
// 0x82): sign command_data with the AUTH slot's key, gated by the same
// PW1 verification level as DECIPHER.
func (c *Card) handleInternalAuthenticate(apdu *CommandAPDU) ResponseAPDU {
	if apdu.P1 != 0x00 || apdu.P2 != 0x00 {
		return statusResponse(cardio.ErrWrongParametersP1P2("unhandled P1/P2"))
	}
	if len(apdu.Data) == 0 {
		return statusResponse(cardio.ErrWrongParameterInCommandData("no command data"))
	}
	if err := c.Session.Require(auth.LevelPW1Decrypt); err != nil {
		return statusResponse(err)
	}
	result, err := c.sign(c.authSlot, apdu.Data)
	if err != nil {
		return statusResponse(translateKeyError(err))
	}
	return ResponseAPDU{Data: result, SW: cardio.SWSuccess}
}

// sign loads slot's private key and signs data directly: the host is
// responsible for any hashing and, for RSA, for the DigestInfo prefix
// — the card performs the raw signature primitive only, so every
// family is invoked with crypto.Hash(0) ("data is already prepared").
func (c *Card) sign(slot store.SlotIndex, data []byte) ([]byte, error) {
	key, err := c.loadPrivateKey(slot)
	if err != nil {
		return nil, err
	}
	signer, ok := key.(algo.Signer)
	if !ok {
		return nil, cardio.ErrConditionsNotSatisfied()
	}
	return signer.Sign(rand.Reader, data, crypto.Hash(0))
}

func translateKeyError(err error) error {
	if err == errNoKey {
		return cardio.ErrReferenceDataNotFound()
	}
	return err
}

// handleManageSecurityEnvironment implements SELECT SECURITY
// ENVIRONMENT / MSE:SET (INS 0x22), which points the DECIPHER role
// (P2 0xB8) or the INTERNAL AUTHENTICATE role (P2 0xA4) at the slot
// named by the key reference inside the control reference template:
// 1 for the DECRYPT slot, 2 for the AUTH slot, per spec §7.2.1. Only
// P1 0x41 is accepted.
func (c *Card) handleManageSecurityEnvironment(apdu *CommandAPDU) ResponseAPDU {
	if apdu.P1 != 0x41 {
		return statusResponse(cardio.ErrWrongParametersP1P2("unhandled P1"))
	}

	var keyIndex byte
	found := false
	for _, obj := range decodeTopLevel(apdu.Data) {
		if obj.Tag.Number != tag.ControlReferenceAuthentication.Number && obj.Tag.Number != tag.ControlReferenceDecryption.Number {
			continue
		}
		for _, inner := range decodeTopLevel(obj.Value) {
			if inner.Tag == fileIdentifierTag && len(inner.Value) == 1 {
				keyIndex, found = inner.Value[0], true
			}
		}
	}
	if !found {
		return statusResponse(cardio.ErrWrongParameterInCommandData("missing key reference"))
	}

	// keyIndex selects which physical slot answers the remapped role:
	// 1=DECRYPT_SLOT, 2=AUTH_SLOT.
	var slot store.SlotIndex
	switch keyIndex {
	case 1:
		slot = store.SlotDecrypt
	case 2:
		slot = store.SlotAuth
	default:
		return statusResponse(cardio.ErrWrongParameterInCommandData("unknown key index"))
	}

	switch apdu.P2 {
	case 0xB8:
		c.decryptSlot = slot
	case 0xA4:
		c.authSlot = slot
	default:
		return statusResponse(cardio.ErrWrongParametersP1P2("unhandled P2"))
	}

	return statusResponse(nil)
}
