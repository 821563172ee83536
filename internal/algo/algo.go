// Package algo abstracts the RSA, ECDSA, ECDH, and EdDSA key families
// the card supports behind a single Algorithm interface, each built on
// the matching crypto/* stdlib package.
package algo

import (
	"crypto"
	"errors"
	"io"
)

// Family identifies an algorithm family by its OpenPGP card algorithm ID.
type Family byte

const (
	FamilyRSA   Family = 0x01
	FamilyECDH  Family = 0x12
	FamilyECDSA Family = 0x13
	FamilyEDDSA Family = 0x16
)

// ErrNotImplemented is returned for algorithm combinations the card
// declares support for in the spec's lineage but does not implement
// here (Ed25519ph, Brainpool curves).
var ErrNotImplemented = errors.New("algo: not implemented")

// PrivateKey wraps the operations a card key slot performs: signing,
// decryption (only one of which applies depending on family/slot),
// and exposing the public components the card reports back to the host.
type PrivateKey interface {
	// PublicKeyComponents returns the raw bytes the Public Key
	// Components DO (0x49) expects for this family: RSA modulus +
	// exponent, or an EC public point / Curve25519 public value.
	PublicKeyComponents() PublicComponents

	// PrivateDER marshals the private key for storage.
	PrivateDER() ([]byte, error)
}

// Signer is implemented by private keys usable for PERFORM SECURITY
// OPERATION / COMPUTE DIGITAL SIGNATURE and INTERNAL AUTHENTICATE.
type Signer interface {
	PrivateKey
	Sign(rand io.Reader, digest []byte, hash crypto.Hash) ([]byte, error)
}

// Decrypter is implemented by private keys usable for PERFORM SECURITY
// OPERATION / DECIPHER.
type Decrypter interface {
	PrivateKey
	Decrypt(ciphertext []byte) ([]byte, error)
}

// PublicComponents is the family-tagged union of public key material
// reported via the Public Key Components DO.
type PublicComponents struct {
	RSAModulus        []byte
	RSAPublicExponent []byte
	ECPublic          []byte // uncompressed EC point, or raw Curve25519/Ed25519 public value
}

// Algorithm is one configured (family, parameters) combination, as
// described by one slot's Algorithm Attributes DO.
type Algorithm interface {
	Family() Family
	EncodeAttributes() []byte
	GenerateKey(rand io.Reader) (PrivateKey, error)
	ImportKey(components KeyComponents) (PrivateKey, error)
	LoadDER(der []byte) (PrivateKey, error)
}

// KeyComponents carries the raw private-key components extracted from
// a Cardholder Private Key Template (application 0x48) PUT DATA body,
// keyed by the same context tags the template uses.
type KeyComponents struct {
	PublicExponent  []byte
	Prime1          []byte // also CurvePrivateKey for EC/EdDSA/X25519
	Prime2          []byte
	PQ              []byte
	DP1             []byte
	DQ1             []byte
	Modulus         []byte
	CurvePublicKey  []byte
}

// DecodeAttributes parses an Algorithm Attributes DO value into its
// concrete Algorithm, dispatching on the leading family-ID byte.
func DecodeAttributes(value []byte) (Algorithm, error) {
	if len(value) < 1 {
		return nil, errors.New("algo: empty attributes")
	}
	switch Family(value[0]) {
	case FamilyRSA:
		return decodeRSAAttributes(value[1:])
	case FamilyECDH:
		return decodeECDHAttributes(value[1:])
	case FamilyECDSA:
		return decodeECDSAAttributes(value[1:])
	case FamilyEDDSA:
		return decodeEDDSAAttributes(value[1:])
	default:
		return nil, errors.New("algo: unknown algorithm family")
	}
}
