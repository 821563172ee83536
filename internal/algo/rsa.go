package algo

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"errors"
	"io"
	"math/big"
)

// ImportFormat selects which private-key components a PUT DATA /
// Cardholder Private Key Template body carries for an RSA key.
type ImportFormat byte

const (
	ImportFormatStandard           ImportFormat = 0x00 // e, p, q
	ImportFormatStandardWithModulus ImportFormat = 0x01 // e, p, q, n
	ImportFormatCRT                ImportFormat = 0x02 // e, p, q, dp1, dq1, pq
	ImportFormatCRTWithModulus     ImportFormat = 0x03 // e, p, q, dp1, dq1, pq, n
)

// RSAAttributes is the decoded RSA Algorithm Attributes parameter set.
type RSAAttributes struct {
	ModulusBits        uint16
	PublicExponentBits uint16
	Format             ImportFormat
}

func (a RSAAttributes) Family() Family { return FamilyRSA }

func (a RSAAttributes) EncodeAttributes() []byte {
	buf := make([]byte, 6)
	buf[0] = byte(FamilyRSA)
	binary.BigEndian.PutUint16(buf[1:3], a.ModulusBits)
	binary.BigEndian.PutUint16(buf[3:5], a.PublicExponentBits)
	buf[5] = byte(a.Format)
	return buf
}

func decodeRSAAttributes(value []byte) (Algorithm, error) {
	if len(value) != 5 {
		return nil, errors.New("algo: malformed RSA attributes")
	}
	return RSAAttributes{
		ModulusBits:        binary.BigEndian.Uint16(value[0:2]),
		PublicExponentBits: binary.BigEndian.Uint16(value[2:4]),
		Format:             ImportFormat(value[4]),
	}, nil
}

// GenerateKey creates a fresh key of the configured modulus size with
// the standard public exponent 65537, the only exponent crypto/rsa
// supports generating.
func (a RSAAttributes) GenerateKey(rnd io.Reader) (PrivateKey, error) {
	key, err := rsa.GenerateKey(rnd, int(a.ModulusBits))
	if err != nil {
		return nil, err
	}
	return &rsaPrivateKey{key: key}, nil
}

// ImportKey rebuilds an RSA private key from the components a PUT DATA
// / Cardholder Private Key Template body provides. Every format sends
// e, p, and q; d is always re-derived as the modular inverse of e
// modulo (p-1)(q-1), matching the reference implementation (the OpenPGP
// card protocol never transmits d directly).
func (a RSAAttributes) ImportKey(c KeyComponents) (PrivateKey, error) {
	if len(c.PublicExponent) == 0 || len(c.Prime1) == 0 || len(c.Prime2) == 0 {
		return nil, errors.New("algo: RSA import requires public exponent, prime1, prime2")
	}
	e := new(big.Int).SetBytes(c.PublicExponent)
	p := new(big.Int).SetBytes(c.Prime1)
	q := new(big.Int).SetBytes(c.Prime2)

	var n *big.Int
	if len(c.Modulus) > 0 {
		n = new(big.Int).SetBytes(c.Modulus)
	} else {
		n = new(big.Int).Mul(p, q)
	}
	if n.BitLen() < int(a.ModulusBits)-10 {
		return nil, errors.New("algo: imported modulus shorter than declared attributes")
	}

	phi := new(big.Int).Mul(
		new(big.Int).Sub(p, big.NewInt(1)),
		new(big.Int).Sub(q, big.NewInt(1)),
	)
	d := new(big.Int).ModInverse(e, phi)
	if d == nil {
		return nil, errors.New("algo: public exponent not invertible mod (p-1)(q-1)")
	}

	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: int(e.Int64())},
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	priv.Precompute()
	return &rsaPrivateKey{key: priv}, nil
}

func (a RSAAttributes) LoadDER(der []byte) (PrivateKey, error) {
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, err
	}
	return &rsaPrivateKey{key: key}, nil
}

type rsaPrivateKey struct {
	key *rsa.PrivateKey
}

func (k *rsaPrivateKey) PrivateDER() ([]byte, error) {
	return x509.MarshalPKCS1PrivateKey(k.key), nil
}

func (k *rsaPrivateKey) PublicKeyComponents() PublicComponents {
	return PublicComponents{
		RSAModulus:        k.key.N.Bytes(),
		RSAPublicExponent: big.NewInt(int64(k.key.E)).Bytes(),
	}
}

// Sign computes a PKCS#1 v1.5 signature over digest, which must
// already be the raw hash output for hash.
func (k *rsaPrivateKey) Sign(rnd io.Reader, digest []byte, hash crypto.Hash) ([]byte, error) {
	return rsa.SignPKCS1v15(rnd, k.key, hash, digest)
}

// Decrypt performs raw RSA decryption (PKCS#1 v1.5 padding, as used by
// PERFORM SECURITY OPERATION / DECIPHER for RSA slots).
func (k *rsaPrivateKey) Decrypt(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, k.key, ciphertext)
}
