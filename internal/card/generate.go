package card

import (
	"crypto/rand"

	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/auth"
	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/internal/tag"
	"github.com/marmos91/openpgpcard/internal/tlv"
)

// handleGenerateAsymmetricKeyPair implements GENERATE ASYMMETRIC KEY
// PAIR (INS 0x47). P1=0x80 generates (or takes a pending pump
// candidate for) a fresh key and stores it; P1=0x81 reports the
// existing key's public components without generating anything.
func (c *Card) handleGenerateAsymmetricKeyPair(apdu *CommandAPDU) ResponseAPDU {
	if apdu.P2 != 0x00 {
		return statusResponse(cardio.ErrWrongParametersP1P2("p2 must be 0"))
	}
	slot, err := decodeControlReferenceSlot(apdu.Data)
	if err != nil {
		return statusResponse(err)
	}

	var key algo.PrivateKey
	switch apdu.P1 {
	case 0x80:
		if err := c.Session.Require(auth.LevelPW3); err != nil {
			return statusResponse(err)
		}
		key, err = c.generateKey(slot)
		if err != nil {
			return statusResponse(err)
		}
	case 0x81:
		key, err = c.loadPrivateKey(slot)
		if err != nil {
			return statusResponse(translateKeyError(err))
		}
	default:
		return statusResponse(cardio.ErrWrongParametersP1P2("unhandled p1"))
	}

	return ResponseAPDU{Data: encodePublicKeyComponents(key.PublicKeyComponents()), SW: cardio.SWSuccess}
}

// generateKey takes a ready candidate from the background pump if one
// matches slot's current algorithm, else falls back to generating
// synchronously so the command still completes (just more slowly).
func (c *Card) generateKey(slot store.SlotIndex) (algo.PrivateKey, error) {
	alg, err := c.slotAlgorithm(slot)
	if err != nil {
		return nil, err
	}

	var key algo.PrivateKey
	if c.Pump != nil {
		if candidate, ok := c.Pump.Take(slot, alg); ok {
			key = candidate
		}
	}
	if key == nil {
		key, err = alg.GenerateKey(rand.Reader)
		if err != nil {
			return nil, cardio.ErrConditionsNotSatisfied()
		}
	}
	if err := c.installKey(slot, key, store.KeyInfoGeneratedOnCard); err != nil {
		return nil, err
	}
	return key, nil
}

// decodeControlReferenceSlot reads the single control reference
// template tag (0xB6/0xB8/0xA4) GENERATE ASYMMETRIC KEY PAIR's command
// data carries and maps it to a key slot.
func decodeControlReferenceSlot(data []byte) (store.SlotIndex, error) {
	objs := decodeTopLevel(data)
	if len(objs) != 1 {
		return 0, cardio.ErrWrongParameterInCommandData("expected exactly one control reference template")
	}
	slot, ok := controlReferenceToSlot[objs[0].Tag.Number]
	if !ok {
		return 0, cardio.ErrWrongParameterInCommandData("unknown control reference template")
	}
	return slot, nil
}

func encodePublicKeyComponents(pub algo.PublicComponents) []byte {
	var body []byte
	switch {
	case len(pub.RSAModulus) > 0:
		body = append(body, tlv.Encode(tag.RSAModulus, pub.RSAModulus)...)
		body = append(body, tlv.Encode(tag.RSAPublicExponent, pub.RSAPublicExponent)...)
	default:
		body = append(body, tlv.Encode(tag.ECPublic, pub.ECPublic)...)
	}
	return tlv.Encode(tag.PublicKeyComponents, body)
}
