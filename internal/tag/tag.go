// Package tag holds the data object tag schema of the OpenPGP card
// application: the tag number, class, and constructed bit for every
// DO the card exposes, plus the composite DOs assembled from them.
package tag

import "github.com/marmos91/openpgpcard/internal/tlv"

// Application-class simple and composite DOs.
var (
	LoginData           = tlv.Tag{Number: 0x5E, Class: tlv.ClassApplication, Constructed: false}
	URL                 = tlv.Tag{Number: 0x5F50, Class: tlv.ClassApplication, Constructed: false}
	HistoricalBytes      = tlv.Tag{Number: 0x5F52, Class: tlv.ClassApplication, Constructed: false}
	CardholderName      = tlv.Tag{Number: 0x5B, Class: tlv.ClassApplication, Constructed: false}
	LanguagePreference  = tlv.Tag{Number: 0x5F2D, Class: tlv.ClassApplication, Constructed: false}
	Sex                 = tlv.Tag{Number: 0x5F35, Class: tlv.ClassApplication, Constructed: false}
	AID                 = tlv.Tag{Number: 0x4F, Class: tlv.ClassApplication, Constructed: false}
	CardholderPrivateKey = tlv.Tag{Number: 0x48, Class: tlv.ClassApplication, Constructed: false}

	ApplicationRelatedData     = tlv.Tag{Number: 0x6E, Class: tlv.ClassApplication, Constructed: true}
	CardholderData             = tlv.Tag{Number: 0x65, Class: tlv.ClassApplication, Constructed: true}
	SecuritySupportTemplate    = tlv.Tag{Number: 0x7A, Class: tlv.ClassApplication, Constructed: true}
	CardholderCertificate      = tlv.Tag{Number: 0x21, Class: tlv.ClassApplication, Constructed: true}
	CardholderPrivateKeyTemplate = tlv.Tag{Number: 0x48, Class: tlv.ClassApplication, Constructed: true}
	PublicKeyComponents        = tlv.Tag{Number: 0x49, Class: tlv.ClassApplication, Constructed: true}
	ExtendedLengthInformation  = tlv.Tag{Number: 0x66, Class: tlv.ClassApplication, Constructed: true}
	GeneralFeatureManagement   = tlv.Tag{Number: 0x74, Class: tlv.ClassApplication, Constructed: true}
)

// Private-class simple DOs (vendor-specific numbering per OpenPGP card spec's private tag range).
var (
	ExtendedCapabilitiesDO      = tlv.Tag{Number: 0x00, Class: tlv.ClassPrivate}
	AlgorithmAttributesSig      = tlv.Tag{Number: 0x01, Class: tlv.ClassPrivate}
	AlgorithmAttributesDec      = tlv.Tag{Number: 0x02, Class: tlv.ClassPrivate}
	AlgorithmAttributesAuth     = tlv.Tag{Number: 0x03, Class: tlv.ClassPrivate}
	PasswordStatusBytes         = tlv.Tag{Number: 0x04, Class: tlv.ClassPrivate}
	Fingerprints                = tlv.Tag{Number: 0x05, Class: tlv.ClassPrivate}
	CAFingerprints              = tlv.Tag{Number: 0x06, Class: tlv.ClassPrivate}
	SignatureKeyFingerprint     = tlv.Tag{Number: 0x07, Class: tlv.ClassPrivate}
	DecryptionKeyFingerprint    = tlv.Tag{Number: 0x08, Class: tlv.ClassPrivate}
	AuthenticationKeyFingerprint = tlv.Tag{Number: 0x09, Class: tlv.ClassPrivate}
	CAFingerprint1              = tlv.Tag{Number: 0x0A, Class: tlv.ClassPrivate}
	CAFingerprint2              = tlv.Tag{Number: 0x0B, Class: tlv.ClassPrivate}
	CAFingerprint3              = tlv.Tag{Number: 0x0C, Class: tlv.ClassPrivate}
	KeyTimestamps               = tlv.Tag{Number: 0x0D, Class: tlv.ClassPrivate}
	SignatureKeyTimestamp       = tlv.Tag{Number: 0x0E, Class: tlv.ClassPrivate}
	DecryptionKeyTimestamp      = tlv.Tag{Number: 0x0F, Class: tlv.ClassPrivate}
	AuthenticationKeyTimestamp  = tlv.Tag{Number: 0x10, Class: tlv.ClassPrivate}
	ResettingCode               = tlv.Tag{Number: 0x13, Class: tlv.ClassPrivate}
	AESKey                      = tlv.Tag{Number: 0x15, Class: tlv.ClassPrivate}
	KeyInformation              = tlv.Tag{Number: 0x1E, Class: tlv.ClassPrivate}
	KeyDerivedFunction          = tlv.Tag{Number: 0x19, Class: tlv.ClassPrivate, Constructed: true}
	AlgorithmInformation        = tlv.Tag{Number: 0x1A, Class: tlv.ClassPrivate, Constructed: true}
)

// SignatureCounter is a three-octet context DO nested in the security
// support template.
var SignatureCounter = tlv.Tag{Number: 0x93, Class: tlv.ClassContext}

// Context-class tags used inside the Cardholder Private Key Template
// (application 0x48), addressing RSA/EC private-key components.
var (
	PublicExponent  = tlv.Tag{Number: 0x91, Class: tlv.ClassContext}
	Prime1          = tlv.Tag{Number: 0x92, Class: tlv.ClassContext}
	CurvePrivateKey = Prime1
	Prime2          = tlv.Tag{Number: 0x93, Class: tlv.ClassContext}
	PQ              = tlv.Tag{Number: 0x94, Class: tlv.ClassContext}
	DP1             = tlv.Tag{Number: 0x95, Class: tlv.ClassContext}
	DQ1             = tlv.Tag{Number: 0x96, Class: tlv.ClassContext}
	Modulus         = tlv.Tag{Number: 0x97, Class: tlv.ClassContext}
	CurvePublicKey  = tlv.Tag{Number: 0x99, Class: tlv.ClassContext}
)

// Context-class tags inside Public Key Components (application 0x49).
var (
	RSAModulus        = tlv.Tag{Number: 0x81, Class: tlv.ClassContext}
	RSAPublicExponent = tlv.Tag{Number: 0x82, Class: tlv.ClassContext}
	ECPublic          = tlv.Tag{Number: 0x86, Class: tlv.ClassContext}
)

// ControlReferenceTemplate identifies which key role a SELECT SECURITY
// ENVIRONMENT or Extended Header List operation addresses.
type ControlReferenceTemplate tlv.Tag

var (
	ControlReferenceAuthentication = tlv.Tag{Number: 0xA4, Class: tlv.ClassContext, Constructed: true}
	ControlReferenceSignature      = tlv.Tag{Number: 0xB6, Class: tlv.ClassContext, Constructed: true}
	ControlReferenceDecryption     = tlv.Tag{Number: 0xB8, Class: tlv.ClassContext, Constructed: true}
)

// Cipher wraps a PublicKeyComponents template inside PSO:DECIPHER
// command data for ECDH and X25519 (ISO 7816-8 Cryptographic Checksum
// / Cipher DO).
var Cipher = tlv.Tag{Number: 0xA6, Class: tlv.ClassContext, Constructed: true}
