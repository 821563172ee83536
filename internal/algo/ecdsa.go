package algo

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"errors"
	"io"
	"math/big"
)

// ECDSAAttributes is the decoded ECDSA Algorithm Attributes parameter set.
type ECDSAAttributes struct {
	Curve         Curve
	WithPublicKey bool
}

func (a ECDSAAttributes) Family() Family { return FamilyECDSA }

func (a ECDSAAttributes) EncodeAttributes() []byte {
	oid, err := encodeCurve(a.Curve, a.WithPublicKey)
	if err != nil {
		return nil
	}
	return append([]byte{byte(FamilyECDSA)}, oid...)
}

func decodeECDSAAttributes(value []byte) (Algorithm, error) {
	curve, withPub, err := decodeCurve(value)
	if err != nil {
		return nil, err
	}
	return ECDSAAttributes{Curve: curve, WithPublicKey: withPub}, nil
}

func (a ECDSAAttributes) ellipticCurve() (elliptic.Curve, error) {
	switch a.Curve {
	case CurveSECP256R1:
		return elliptic.P256(), nil
	case CurveSECP384R1:
		return elliptic.P384(), nil
	case CurveSECP521R1:
		return elliptic.P521(), nil
	case CurveBrainpoolP256R1, CurveBrainpoolP384R1, CurveBrainpoolP512R1:
		return nil, ErrNotImplemented
	default:
		return nil, errors.New("algo: ECDSA curve not usable")
	}
}

func (a ECDSAAttributes) GenerateKey(rnd io.Reader) (PrivateKey, error) {
	curve, err := a.ellipticCurve()
	if err != nil {
		return nil, err
	}
	key, err := ecdsa.GenerateKey(curve, rnd)
	if err != nil {
		return nil, err
	}
	return &ecdsaPrivateKey{key: key}, nil
}

// ImportKey rebuilds an ECDSA private key from its raw scalar
// (CurvePrivateKey, context tag 0x92).
func (a ECDSAAttributes) ImportKey(c KeyComponents) (PrivateKey, error) {
	curve, err := a.ellipticCurve()
	if err != nil {
		return nil, err
	}
	if len(c.Prime1) == 0 {
		return nil, errors.New("algo: ECDSA import requires CurvePrivateKey")
	}
	d := new(big.Int).SetBytes(c.Prime1)
	x, y := curve.ScalarBaseMult(c.Prime1)
	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}
	return &ecdsaPrivateKey{key: key}, nil
}

func (a ECDSAAttributes) LoadDER(der []byte) (PrivateKey, error) {
	key, err := x509.ParseECPrivateKey(der)
	if err != nil {
		return nil, err
	}
	return &ecdsaPrivateKey{key: key}, nil
}

type ecdsaPrivateKey struct {
	key *ecdsa.PrivateKey
}

func (k *ecdsaPrivateKey) PrivateDER() ([]byte, error) {
	return x509.MarshalECPrivateKey(k.key)
}

func (k *ecdsaPrivateKey) PublicKeyComponents() PublicComponents {
	return PublicComponents{
		ECPublic: elliptic.Marshal(k.key.Curve, k.key.X, k.key.Y),
	}
}

// Sign computes an ECDSA signature (ASN.1 DER) over digest.
func (k *ecdsaPrivateKey) Sign(rnd io.Reader, digest []byte, _ crypto.Hash) ([]byte, error) {
	return ecdsa.SignASN1(rnd, k.key, digest)
}
