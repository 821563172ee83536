package card

import (
	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/auth"
	"github.com/marmos91/openpgpcard/internal/cardio"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/internal/tag"
	"github.com/marmos91/openpgpcard/internal/tlv"
)

// fileIdentifierTag is the "key reference" simple DO nested inside a
// control reference template (Cardholder Private Key Template
// Authentication/Decryption tags 0xA4/0xB8), naming which of the
// three fixed key slots the template addresses.
var fileIdentifierTag = tlv.Tag{Number: 0x83, Class: tlv.ClassContext}

// decodeTopLevel decodes data's top-level TLV objects, returning nil
// on malformed input rather than propagating an error: callers treat a
// decode failure the same as "nothing found" and report WrongParameterInCommandData.
func decodeTopLevel(data []byte) []tlv.Object {
	objs, err := tlv.Decode(data)
	if err != nil {
		return nil
	}
	return objs
}

// handleGetData implements GET DATA (INS 0xCA/0xCB): P1/P2 form the
// 16-bit tag number of the requested DO.
func (c *Card) handleGetData(apdu *CommandAPDU) ResponseAPDU {
	number := uint32(apdu.P1)<<8 | uint32(apdu.P2)
	value, err := c.readDO(number)
	if err != nil {
		return statusResponse(err)
	}
	return ResponseAPDU{Data: value, SW: cardio.SWSuccess}
}

// handlePutData implements PUT DATA (INS 0xDA/0xDB). Every DO,
// including the Resetting Code, requires PW3.
func (c *Card) handlePutData(apdu *CommandAPDU) ResponseAPDU {
	number := uint32(apdu.P1)<<8 | uint32(apdu.P2)
	if err := c.Session.Require(auth.LevelPW3); err != nil {
		return statusResponse(err)
	}
	if err := c.writeDO(number, apdu.Data); err != nil {
		return statusResponse(err)
	}
	return statusResponse(nil)
}

// readDO answers GET DATA for both the composite DOs this package
// assembles on demand and the simple DOs passed straight through to
// the store.
func (c *Card) readDO(number uint32) ([]byte, error) {
	switch number {
	case tag.ApplicationRelatedData.Number:
		return c.buildApplicationRelatedData()
	case tag.PasswordStatusBytes.Number:
		return c.buildPasswordStatus()
	case tag.AlgorithmAttributesSig.Number:
		return c.readAlgorithmAttributes(store.SlotSign)
	case tag.AlgorithmAttributesDec.Number:
		return c.readAlgorithmAttributes(store.SlotDecrypt)
	case tag.AlgorithmAttributesAuth.Number:
		return c.readAlgorithmAttributes(store.SlotAuth)
	case tag.Fingerprints.Number:
		return c.buildFingerprintList()
	case tag.CAFingerprints.Number:
		return c.buildCAFingerprintList()
	case tag.KeyTimestamps.Number:
		return c.buildTimestampList()
	case tag.KeyInformation.Number:
		return c.buildKeyInformation()
	case tag.SecuritySupportTemplate.Number:
		return c.buildSecuritySupportTemplate()
	case tag.SignatureKeyFingerprint.Number:
		return c.readFingerprint(store.SlotSign)
	case tag.DecryptionKeyFingerprint.Number:
		return c.readFingerprint(store.SlotDecrypt)
	case tag.AuthenticationKeyFingerprint.Number:
		return c.readFingerprint(store.SlotAuth)
	case tag.SignatureKeyTimestamp.Number:
		return c.readTimestamp(store.SlotSign)
	case tag.DecryptionKeyTimestamp.Number:
		return c.readTimestamp(store.SlotDecrypt)
	case tag.AuthenticationKeyTimestamp.Number:
		return c.readTimestamp(store.SlotAuth)
	default:
		var value []byte
		var present bool
		err := c.Store.View(func(txn store.Txn) error {
			var err error
			value, present, err = txn.GetDO(number)
			return err
		})
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, cardio.ErrReferenceDataNotFound()
		}
		return value, nil
	}
}

// writeDO accepts PUT DATA for the DOs the application allows the host
// to set directly: algorithm attributes (re-keying a slot resets its
// key material) and arbitrary simple DOs passed through to the store.
func (c *Card) writeDO(number uint32, value []byte) error {
	switch number {
	case tag.AlgorithmAttributesSig.Number:
		return c.writeAlgorithmAttributes(store.SlotSign, value)
	case tag.AlgorithmAttributesDec.Number:
		return c.writeAlgorithmAttributes(store.SlotDecrypt, value)
	case tag.AlgorithmAttributesAuth.Number:
		return c.writeAlgorithmAttributes(store.SlotAuth, value)
	case tag.SignatureKeyFingerprint.Number:
		return c.writeFingerprint(store.SlotSign, value)
	case tag.DecryptionKeyFingerprint.Number:
		return c.writeFingerprint(store.SlotDecrypt, value)
	case tag.AuthenticationKeyFingerprint.Number:
		return c.writeFingerprint(store.SlotAuth, value)
	case tag.Fingerprints.Number:
		return c.writeFingerprintList(value)
	case tag.SignatureKeyTimestamp.Number:
		return c.writeTimestamp(store.SlotSign, value)
	case tag.DecryptionKeyTimestamp.Number:
		return c.writeTimestamp(store.SlotDecrypt, value)
	case tag.AuthenticationKeyTimestamp.Number:
		return c.writeTimestamp(store.SlotAuth, value)
	case tag.KeyTimestamps.Number:
		return c.writeTimestampList(value)
	case extendedHeaderListTag.Number:
		return c.importKey(value)
	case tag.PasswordStatusBytes.Number:
		return c.writePasswordStatus(value)
	default:
		return c.Store.Update(func(txn store.Txn) error {
			return txn.SetDO(number, value)
		})
	}
}

func (c *Card) writeFingerprint(slot store.SlotIndex, value []byte) error {
	if len(value) != 0 && len(value) != 20 {
		return cardio.ErrWrongParameterInCommandData("fingerprint must be 20 bytes or empty")
	}
	var fp [20]byte
	copy(fp[:], value)
	return c.Store.Update(func(txn store.Txn) error {
		return txn.SetFingerprint(slot, fp)
	})
}

func (c *Card) writeTimestamp(slot store.SlotIndex, value []byte) error {
	if len(value) != 0 && len(value) != 4 {
		return cardio.ErrWrongParameterInCommandData("timestamp must be 4 bytes or empty")
	}
	var ts uint32
	if len(value) == 4 {
		ts = uint32(value[0])<<24 | uint32(value[1])<<16 | uint32(value[2])<<8 | uint32(value[3])
	}
	return c.Store.Update(func(txn store.Txn) error {
		return txn.SetKeyTimestamp(slot, ts)
	})
}

// writeFingerprintList decomposes a 60-byte Fingerprints PUT DATA into
// its three per-slot fingerprints. tag.DecodeFingerprintList rejects a
// value that is not exactly 60 bytes before any write happens, so a
// malformed list leaves state untouched.
func (c *Card) writeFingerprintList(value []byte) error {
	fps, err := tag.DecodeFingerprintList(value)
	if err != nil {
		return cardio.ErrWrongParameterInCommandData("malformed fingerprint list")
	}
	return c.Store.Update(func(txn store.Txn) error {
		for _, slot := range []store.SlotIndex{store.SlotAuth, store.SlotDecrypt, store.SlotSign} {
			if err := txn.SetFingerprint(slot, fps[slot]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Card) writeTimestampList(value []byte) error {
	ts, err := tag.DecodeTimestampList(value)
	if err != nil {
		return cardio.ErrWrongParameterInCommandData("malformed timestamp list")
	}
	return c.Store.Update(func(txn store.Txn) error {
		for _, slot := range []store.SlotIndex{store.SlotAuth, store.SlotDecrypt, store.SlotSign} {
			if err := txn.SetKeyTimestamp(slot, ts[slot]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Card) writePasswordStatus(value []byte) error {
	if len(value) != 1 {
		return cardio.ErrWrongParameterInCommandData("password status PUT DATA accepts only the multi-signature flag byte")
	}
	return c.Store.Update(func(txn store.Txn) error {
		return txn.SetMultiSigFlag(value[0] == 1)
	})
}

func (c *Card) readFingerprint(slot store.SlotIndex) ([]byte, error) {
	var fp [20]byte
	err := c.Store.View(func(txn store.Txn) error {
		var err error
		fp, err = txn.GetFingerprint(slot)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fp[:], nil
}

func (c *Card) readTimestamp(slot store.SlotIndex) ([]byte, error) {
	var ts uint32
	err := c.Store.View(func(txn store.Txn) error {
		var err error
		ts, err = txn.GetKeyTimestamp(slot)
		return err
	})
	if err != nil {
		return nil, err
	}
	return []byte{byte(ts >> 24), byte(ts >> 16), byte(ts >> 8), byte(ts)}, nil
}

func (c *Card) readAlgorithmAttributes(slot store.SlotIndex) ([]byte, error) {
	alg, err := c.slotAlgorithm(slot)
	if err != nil {
		return nil, err
	}
	return alg.EncodeAttributes(), nil
}

// writeAlgorithmAttributes stores new Algorithm Attributes for slot
// and erases its current key material, since a key generated or
// imported under the old parameters is no longer valid under the new
// ones (spec §7.2.2).
func (c *Card) writeAlgorithmAttributes(slot store.SlotIndex, value []byte) error {
	if _, err := algo.DecodeAttributes(value); err != nil {
		return cardio.ErrWrongParameterInCommandData("malformed algorithm attributes")
	}
	return c.Store.Update(func(txn store.Txn) error {
		if err := txn.SetAlgorithmAttributes(slot, value); err != nil {
			return err
		}
		return txn.EraseKey(slot)
	})
}

func (c *Card) buildApplicationRelatedData() ([]byte, error) {
	var discretionary []byte
	var err error
	for _, number := range []uint32{
		tag.ExtendedCapabilitiesDO.Number,
		tag.AlgorithmAttributesSig.Number,
		tag.AlgorithmAttributesDec.Number,
		tag.AlgorithmAttributesAuth.Number,
		tag.PasswordStatusBytes.Number,
		tag.Fingerprints.Number,
		tag.CAFingerprints.Number,
		tag.KeyTimestamps.Number,
	} {
		var value []byte
		value, err = c.readDO(number)
		if err != nil {
			if _, ok := err.(*cardio.StatusError); ok {
				continue // not yet configured; omit rather than fail the whole template
			}
			return nil, err
		}
		discretionary = append(discretionary, tlv.Encode(tlv.Tag{Number: number, Class: tlv.ClassPrivate}, value)...)
	}

	var aid []byte
	aid, present, err := c.lookupDO(tag.AID.Number)
	if err != nil {
		return nil, err
	}
	body := discretionary
	if present {
		body = append(tlv.Encode(tag.AID, aid), body...)
	}
	return body, nil
}

func (c *Card) lookupDO(number uint32) (value []byte, present bool, err error) {
	err = c.Store.View(func(txn store.Txn) error {
		var err error
		value, present, err = txn.GetDO(number)
		return err
	})
	return value, present, err
}

func (c *Card) buildPasswordStatus() ([]byte, error) {
	var multi bool
	var counters [3]int
	refs := [3]store.ReferenceIndex{store.RefPW1, store.RefRC, store.RefPW3}
	err := c.Store.View(func(txn store.Txn) error {
		var err error
		multi, err = txn.GetMultiSigFlag()
		if err != nil {
			return err
		}
		for i, ref := range refs {
			counters[i], err = txn.GetRetryCounter(ref)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	status := tag.PasswordStatus{
		PW1ValidForMultipleSignatures: multi,
		PW1MaxLength:                  store.MaxSecretLength,
		RCMaxLength:                   store.MaxSecretLength,
		PW3MaxLength:                  store.MaxSecretLength,
		PW1RemainingTries:             byte(counters[0]),
		RCRemainingTries:              byte(counters[1]),
		PW3RemainingTries:             byte(counters[2]),
	}
	return status.Encode(), nil
}

func (c *Card) buildFingerprintList() ([]byte, error) {
	var fps [3][20]byte
	err := c.Store.View(func(txn store.Txn) error {
		for _, slot := range []store.SlotIndex{store.SlotSign, store.SlotDecrypt, store.SlotAuth} {
			fp, err := txn.GetFingerprint(slot)
			if err != nil {
				return err
			}
			fps[slot] = fp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag.EncodeFingerprintList(fps), nil
}

func (c *Card) buildCAFingerprintList() ([]byte, error) {
	var fps [3][20]byte
	err := c.Store.View(func(txn store.Txn) error {
		for _, slot := range []store.SlotIndex{store.SlotSign, store.SlotDecrypt, store.SlotAuth} {
			fp, err := txn.GetCAFingerprint(slot)
			if err != nil {
				return err
			}
			fps[slot] = fp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag.EncodeFingerprintList(fps), nil
}

func (c *Card) buildTimestampList() ([]byte, error) {
	var ts [3]uint32
	err := c.Store.View(func(txn store.Txn) error {
		for _, slot := range []store.SlotIndex{store.SlotSign, store.SlotDecrypt, store.SlotAuth} {
			t, err := txn.GetKeyTimestamp(slot)
			if err != nil {
				return err
			}
			ts[slot] = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag.EncodeTimestampList(ts), nil
}

func (c *Card) buildKeyInformation() ([]byte, error) {
	status := make(map[byte]byte, 3)
	err := c.Store.View(func(txn store.Txn) error {
		for _, slot := range []store.SlotIndex{store.SlotSign, store.SlotDecrypt, store.SlotAuth} {
			_, info, err := txn.GetKeyMaterial(slot)
			if err != nil {
				return err
			}
			status[byte(slot)] = byte(info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag.EncodeKeyInformation(status), nil
}

func (c *Card) buildSecuritySupportTemplate() ([]byte, error) {
	var counter uint32
	err := c.Store.View(func(txn store.Txn) error {
		var err error
		counter, err = txn.GetSignatureCounter()
		return err
	})
	if err != nil {
		return nil, err
	}
	return tlv.Encode(tag.SignatureCounter, tag.EncodeSignatureCounter(counter)), nil
}
