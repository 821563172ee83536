package algo

import (
	"crypto"
	"crypto/ed25519"
	"crypto/x509"
	"errors"
	"io"
)

// EDDSAAttributes is the decoded EdDSA Algorithm Attributes parameter
// set. Only Ed25519 is supported; Ed25519ph (the prehash variant) is
// explicitly not implemented.
type EDDSAAttributes struct {
	Curve Curve // always CurveEd25519 today
}

func (a EDDSAAttributes) Family() Family { return FamilyEDDSA }

func (a EDDSAAttributes) EncodeAttributes() []byte {
	oid, err := encodeCurve(a.Curve, false)
	if err != nil {
		return nil
	}
	return append([]byte{byte(FamilyEDDSA)}, oid...)
}

func decodeEDDSAAttributes(value []byte) (Algorithm, error) {
	curve, _, err := decodeCurve(value)
	if err != nil {
		return nil, err
	}
	if curve != CurveEd25519 {
		return nil, errors.New("algo: EdDSA only supports Ed25519")
	}
	return EDDSAAttributes{Curve: curve}, nil
}

func (a EDDSAAttributes) GenerateKey(rnd io.Reader) (PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rnd)
	if err != nil {
		return nil, err
	}
	return &eddsaPrivateKey{key: priv}, nil
}

// ImportKey rebuilds an Ed25519 private key from its raw 32-byte seed
// (CurvePrivateKey, context tag 0x92).
func (a EDDSAAttributes) ImportKey(c KeyComponents) (PrivateKey, error) {
	if len(c.Prime1) != ed25519.SeedSize {
		return nil, errors.New("algo: Ed25519 import requires a 32-byte seed")
	}
	return &eddsaPrivateKey{key: ed25519.NewKeyFromSeed(c.Prime1)}, nil
}

func (a EDDSAAttributes) LoadDER(der []byte) (PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("algo: stored key is not an Ed25519 private key")
	}
	return &eddsaPrivateKey{key: priv}, nil
}

type eddsaPrivateKey struct {
	key ed25519.PrivateKey
}

func (k *eddsaPrivateKey) PrivateDER() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.key)
}

func (k *eddsaPrivateKey) PublicKeyComponents() PublicComponents {
	pub := k.key.Public().(ed25519.PublicKey)
	return PublicComponents{ECPublic: []byte(pub)}
}

// Sign computes a pure Ed25519 signature over message (not a
// pre-hashed digest: Ed25519 hashes internally). Ed25519ph, which
// signs a caller-supplied digest, is not implemented.
func (k *eddsaPrivateKey) Sign(_ io.Reader, message []byte, hash crypto.Hash) ([]byte, error) {
	if hash != crypto.Hash(0) {
		return nil, ErrNotImplemented
	}
	return ed25519.Sign(k.key, message), nil
}
