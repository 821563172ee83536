package tag

import (
	"encoding/binary"
	"errors"
)

// ErrMalformed is returned when a fixed-layout DO's value has the wrong length.
var ErrMalformed = errors.New("tag: malformed data object")

// PasswordStatus is the decoded form of the Password Status Bytes DO (0x04, private class).
type PasswordStatus struct {
	PW1ValidForMultipleSignatures bool
	PW1MaxLength                  byte
	RCMaxLength                   byte
	PW3MaxLength                  byte
	PW1RemainingTries             byte
	RCRemainingTries              byte
	PW3RemainingTries             byte
}

// Encode serializes a PasswordStatus into the 7-byte wire form.
func (s PasswordStatus) Encode() []byte {
	valid := byte(0)
	if s.PW1ValidForMultipleSignatures {
		valid = 1
	}
	return []byte{
		valid,
		s.PW1MaxLength,
		s.RCMaxLength,
		s.PW3MaxLength,
		s.PW1RemainingTries,
		s.RCRemainingTries,
		s.PW3RemainingTries,
	}
}

// DecodePasswordStatus parses the 7-byte Password Status Bytes DO.
func DecodePasswordStatus(value []byte) (PasswordStatus, error) {
	if len(value) != 7 {
		return PasswordStatus{}, ErrMalformed
	}
	return PasswordStatus{
		PW1ValidForMultipleSignatures: value[0] != 0,
		PW1MaxLength:                  value[1],
		RCMaxLength:                   value[2],
		PW3MaxLength:                  value[3],
		PW1RemainingTries:             value[4],
		RCRemainingTries:              value[5],
		PW3RemainingTries:             value[6],
	}, nil
}

// ExtendedCapabilities is the decoded form of the Extended Capabilities DO (0x00, private class).
type ExtendedCapabilities struct {
	HasKeyImport                  bool
	HasEditablePasswordStatus     bool
	HasPrivateDataObjects         bool
	HasEditableAlgorithmAttributes bool
	HasAES                        bool
	HasKeyDerivedFunction         bool
	SecureMessagingAlgorithm      byte // 0=none, 1=AES128, 2=AES256, 3=SCP11b
	ChallengeMaxLength            uint16
	CertificateMaxLength          uint16
	SpecialDOMaxLength            uint16
	HasPINBlock2Format            bool
	CanSwapAuthDecKeyRole         bool
}

const (
	capSecureMessaging        = 0x80
	capGetChallenge           = 0x40
	capKeyImport              = 0x20
	capModifyPasswordStatus   = 0x10
	capPrivateDataObjects     = 0x08
	capChangeAlgoAttributes   = 0x04
	capAES                    = 0x02
	capKeyDerivedFunction     = 0x01
)

// Encode serializes ExtendedCapabilities into its 10-byte wire form.
func (c ExtendedCapabilities) Encode() []byte {
	head := byte(0)
	if c.SecureMessagingAlgorithm != 0 {
		head |= capSecureMessaging
	}
	if c.ChallengeMaxLength > 0 {
		head |= capGetChallenge
	}
	if c.HasKeyImport {
		head |= capKeyImport
	}
	if c.HasEditablePasswordStatus {
		head |= capModifyPasswordStatus
	}
	if c.HasPrivateDataObjects {
		head |= capPrivateDataObjects
	}
	if c.HasEditableAlgorithmAttributes {
		head |= capChangeAlgoAttributes
	}
	if c.HasAES {
		head |= capAES
	}
	if c.HasKeyDerivedFunction {
		head |= capKeyDerivedFunction
	}

	buf := make([]byte, 10)
	buf[0] = head
	buf[1] = c.SecureMessagingAlgorithm
	binary.BigEndian.PutUint16(buf[2:4], c.ChallengeMaxLength)
	binary.BigEndian.PutUint16(buf[4:6], c.CertificateMaxLength)
	binary.BigEndian.PutUint16(buf[6:8], c.SpecialDOMaxLength)
	if c.HasPINBlock2Format {
		buf[8] = 1
	}
	if c.CanSwapAuthDecKeyRole {
		buf[9] = 1
	}
	return buf
}

// DecodeExtendedCapabilities parses the 10-byte Extended Capabilities DO.
func DecodeExtendedCapabilities(value []byte) (ExtendedCapabilities, error) {
	if len(value) != 10 {
		return ExtendedCapabilities{}, ErrMalformed
	}
	head := value[0]
	return ExtendedCapabilities{
		HasKeyImport:                   head&capKeyImport != 0,
		HasEditablePasswordStatus:      head&capModifyPasswordStatus != 0,
		HasPrivateDataObjects:          head&capPrivateDataObjects != 0,
		HasEditableAlgorithmAttributes: head&capChangeAlgoAttributes != 0,
		HasAES:                         head&capAES != 0,
		HasKeyDerivedFunction:          head&capKeyDerivedFunction != 0,
		SecureMessagingAlgorithm:       value[1],
		ChallengeMaxLength:             binary.BigEndian.Uint16(value[2:4]),
		CertificateMaxLength:           binary.BigEndian.Uint16(value[4:6]),
		SpecialDOMaxLength:             binary.BigEndian.Uint16(value[6:8]),
		HasPINBlock2Format:             value[8] != 0,
		CanSwapAuthDecKeyRole:          value[9] != 0,
	}, nil
}

// KeyInformation reports, per slot index, how each slot's key was established.
// EncodeKeyInformation/DecodeKeyInformation operate on the pairs (index, status)
// the wire form lists for the three fixed slots.
func EncodeKeyInformation(status map[byte]byte) []byte {
	buf := make([]byte, 0, len(status)*2)
	for index := byte(0); index < 3; index++ {
		if s, ok := status[index]; ok {
			buf = append(buf, index, s)
		}
	}
	return buf
}

// DecodeKeyInformation parses the Key Information DO's repeating (index, status) pairs.
func DecodeKeyInformation(value []byte) (map[byte]byte, error) {
	if len(value)%2 != 0 {
		return nil, ErrMalformed
	}
	result := make(map[byte]byte, len(value)/2)
	for i := 0; i < len(value); i += 2 {
		result[value[i]] = value[i+1]
	}
	return result, nil
}
