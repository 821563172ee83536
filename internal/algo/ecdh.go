package algo

import (
	"crypto/ecdh"
	"crypto/x509"
	"errors"
	"io"
)

// ECDHAttributes is the decoded ECDH Algorithm Attributes parameter
// set. X25519 is represented here, under the ECDH family, per the
// card protocol's OID 1.3.6.1.4.1.3029.1.5.1 (CurveX25519).
type ECDHAttributes struct {
	Curve         Curve
	WithPublicKey bool
}

func (a ECDHAttributes) Family() Family { return FamilyECDH }

func (a ECDHAttributes) EncodeAttributes() []byte {
	oid, err := encodeCurve(a.Curve, a.WithPublicKey)
	if err != nil {
		return nil
	}
	return append([]byte{byte(FamilyECDH)}, oid...)
}

func decodeECDHAttributes(value []byte) (Algorithm, error) {
	curve, withPub, err := decodeCurve(value)
	if err != nil {
		return nil, err
	}
	return ECDHAttributes{Curve: curve, WithPublicKey: withPub}, nil
}

func (a ECDHAttributes) ecdhCurve() (ecdh.Curve, error) {
	switch a.Curve {
	case CurveSECP256R1:
		return ecdh.P256(), nil
	case CurveSECP384R1:
		return ecdh.P384(), nil
	case CurveSECP521R1:
		return ecdh.P521(), nil
	case CurveX25519:
		return ecdh.X25519(), nil
	case CurveBrainpoolP256R1, CurveBrainpoolP384R1, CurveBrainpoolP512R1:
		return nil, ErrNotImplemented
	default:
		return nil, errors.New("algo: ECDH curve not usable")
	}
}

func (a ECDHAttributes) GenerateKey(rnd io.Reader) (PrivateKey, error) {
	curve, err := a.ecdhCurve()
	if err != nil {
		return nil, err
	}
	key, err := curve.GenerateKey(rnd)
	if err != nil {
		return nil, err
	}
	return &ecdhPrivateKey{key: key}, nil
}

// ImportKey rebuilds an ECDH private key from its raw scalar
// (CurvePrivateKey, context tag 0x92 — the same field X25519 private
// keys and NIST curve scalars both arrive in).
func (a ECDHAttributes) ImportKey(c KeyComponents) (PrivateKey, error) {
	curve, err := a.ecdhCurve()
	if err != nil {
		return nil, err
	}
	if len(c.Prime1) == 0 {
		return nil, errors.New("algo: ECDH import requires CurvePrivateKey")
	}
	key, err := curve.NewPrivateKey(c.Prime1)
	if err != nil {
		return nil, err
	}
	return &ecdhPrivateKey{key: key}, nil
}

func (a ECDHAttributes) LoadDER(der []byte) (PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	ecdhKey, ok := key.(*ecdh.PrivateKey)
	if !ok {
		return nil, errors.New("algo: stored key is not an ECDH private key")
	}
	return &ecdhPrivateKey{key: ecdhKey}, nil
}

type ecdhPrivateKey struct {
	key *ecdh.PrivateKey
}

func (k *ecdhPrivateKey) PrivateDER() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(k.key)
}

func (k *ecdhPrivateKey) PublicKeyComponents() PublicComponents {
	return PublicComponents{ECPublic: k.key.PublicKey().Bytes()}
}

// Decrypt treats ciphertext as the host-supplied ephemeral public key
// and returns the raw ECDH shared secret. The session-key unwrap step
// (key derivation plus AES key unwrap) that spec §7.2.11 describes on
// top of this shared secret is the caller's responsibility, not this
// package's: it varies with the host's chosen KDF/hash and does not
// belong to "what the curve computes".
func (k *ecdhPrivateKey) Decrypt(ciphertext []byte) ([]byte, error) {
	peer, err := k.key.Curve().NewPublicKey(ciphertext)
	if err != nil {
		return nil, err
	}
	return k.key.ECDH(peer)
}
