package card_test

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/card"
	"github.com/marmos91/openpgpcard/internal/store"
	"github.com/marmos91/openpgpcard/internal/tag"
	"github.com/marmos91/openpgpcard/internal/tlv"
)

func newActivatedCard(t *testing.T) *card.Card {
	t.Helper()
	s := store.NewMemoryStore()
	if err := s.Update(func(txn store.Txn) error {
		if err := txn.SetSecret(store.RefPW1, []byte("123456")); err != nil {
			return err
		}
		return txn.SetSecret(store.RefPW3, []byte("12345678"))
	}); err != nil {
		t.Fatal(err)
	}
	c, err := card.New(s, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sw := swOf(t, c.Dispatch([]byte{0x00, card.InsActivateFile, 0x00, 0x00})); sw != 0x9000 {
		t.Fatalf("ACTIVATE FILE failed: SW=%04X", sw)
	}
	return c
}

func swOf(t *testing.T, rapdu []byte) uint16 {
	t.Helper()
	if len(rapdu) < 2 {
		t.Fatalf("response APDU too short: % X", rapdu)
	}
	return binary.BigEndian.Uint16(rapdu[len(rapdu)-2:])
}

func verifyPW3(t *testing.T, c *card.Card) {
	t.Helper()
	capdu := append([]byte{0x00, card.InsVerify, 0x00, 0x83, byte(len("12345678"))}, []byte("12345678")...)
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x9000 {
		t.Fatalf("VERIFY PW3 failed: SW=%04X", sw)
	}
}

func verifyPW1(t *testing.T, c *card.Card, p2 byte) {
	t.Helper()
	capdu := append([]byte{0x00, card.InsVerify, 0x00, p2, byte(len("123456"))}, []byte("123456")...)
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x9000 {
		t.Fatalf("VERIFY PW1 failed: SW=%04X", sw)
	}
}

func TestSelectRequiresActivation(t *testing.T) {
	s := store.NewMemoryStore()
	c, err := card.New(s, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sw := swOf(t, c.Dispatch([]byte{0x00, card.InsSelect, 0x04, 0x00})); sw != 0x6985 {
		t.Fatalf("expected ConditionsNotSatisfied before activation, got SW=%04X", sw)
	}
}

func TestGenerateSignAndInternalAuthenticate(t *testing.T) {
	c := newActivatedCard(t)
	verifyPW3(t, c)

	sigControlRef := tlv.Encode(tlv.Tag{Number: 0xB6, Class: tlv.ClassContext, Constructed: true}, nil)
	capdu := append([]byte{0x00, card.InsGenerateAsymmetricKeyPair, 0x80, 0x00, byte(len(sigControlRef))}, sigControlRef...)
	rapdu := c.Dispatch(capdu)
	if sw := swOf(t, rapdu); sw != 0x9000 {
		t.Fatalf("GENERATE ASYMMETRIC KEY PAIR failed: SW=%04X", sw)
	}
	if len(rapdu) <= 2 {
		t.Fatal("expected public key components in the response")
	}

	authControlRef := tlv.Encode(tlv.Tag{Number: 0xA4, Class: tlv.ClassContext, Constructed: true}, nil)
	capdu = append([]byte{0x00, card.InsGenerateAsymmetricKeyPair, 0x80, 0x00, byte(len(authControlRef))}, authControlRef...)
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x9000 {
		t.Fatalf("GENERATE ASYMMETRIC KEY PAIR (auth) failed: SW=%04X", sw)
	}

	verifyPW1(t, c, 0x82)
	capdu = append([]byte{0x00, card.InsInternalAuthenticate, 0x00, 0x00, 0x04}, []byte("test")...)
	rapdu = c.Dispatch(capdu)
	if sw := swOf(t, rapdu); sw != 0x9000 {
		t.Fatalf("INTERNAL AUTHENTICATE failed: SW=%04X", sw)
	}
	if len(rapdu) <= 2 {
		t.Fatal("expected a signature in the response")
	}
}

func TestSignAndDecryptAuthenticationAreIndependent(t *testing.T) {
	c := newActivatedCard(t)
	verifyPW3(t, c)

	sigControlRef := tlv.Encode(tlv.Tag{Number: 0xB6, Class: tlv.ClassContext, Constructed: true}, nil)
	capdu := append([]byte{0x00, card.InsGenerateAsymmetricKeyPair, 0x80, 0x00, byte(len(sigControlRef))}, sigControlRef...)
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x9000 {
		t.Fatalf("GENERATE ASYMMETRIC KEY PAIR (sign) failed: SW=%04X", sw)
	}

	// Verifying PW1 for DECIPHER/INTERNAL AUTHENTICATE must not also
	// authorize PSO:COMPUTE DIGITAL SIGNATURE.
	verifyPW1(t, c, 0x82)
	signCapdu := append([]byte{0x00, card.InsPerformSecurityOperation, 0x9E, 0x9A, 0x04}, []byte("test")...)
	if sw := swOf(t, c.Dispatch(signCapdu)); sw != 0x6982 {
		t.Fatalf("expected SecurityNotSatisfied for PSO:CDS after a decrypt-only VERIFY, got SW=%04X", sw)
	}

	verifyPW1(t, c, 0x81)
	if sw := swOf(t, c.Dispatch(signCapdu)); sw != 0x9000 {
		t.Fatalf("PSO:CDS failed after a sign VERIFY: SW=%04X", sw)
	}
}

func TestVerifyFailureBlocksAfterThreeAttempts(t *testing.T) {
	c := newActivatedCard(t)
	capdu := append([]byte{0x00, card.InsVerify, 0x00, 0x82, 0x06}, []byte("000000")...)
	for i := 0; i < 3; i++ {
		if sw := swOf(t, c.Dispatch(capdu)); sw != 0x6982 {
			t.Fatalf("attempt %d: expected SecurityNotSatisfied, got SW=%04X", i+1, sw)
		}
	}
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x6983 {
		t.Fatalf("expected AuthMethodBlocked after three failures, got SW=%04X", sw)
	}
}

func TestGetDataApplicationRelatedData(t *testing.T) {
	c := newActivatedCard(t)
	capdu := []byte{0x00, card.InsGetData, 0x00, 0x6E}
	rapdu := c.Dispatch(capdu)
	if sw := swOf(t, rapdu); sw != 0x9000 {
		t.Fatalf("GET DATA (Application Related Data) failed: SW=%04X", sw)
	}
}

func TestPutDataAlgorithmAttributesRequiresPW3(t *testing.T) {
	c := newActivatedCard(t)
	rsaAttrs := []byte{0x01, 0x08, 0x00, 0x00, 0x20, 0x00}
	capdu := append([]byte{0x00, card.InsPutData, 0x00, 0x01, byte(len(rsaAttrs))}, rsaAttrs...)
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x6982 {
		t.Fatalf("expected SecurityNotSatisfied without PW3, got SW=%04X", sw)
	}

	verifyPW3(t, c)
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x9000 {
		t.Fatalf("PUT DATA algorithm attributes failed after PW3: SW=%04X", sw)
	}
}

func TestDecipherX25519(t *testing.T) {
	c := newActivatedCard(t)
	verifyPW3(t, c)

	decControlRef := tlv.Encode(tag.ControlReferenceDecryption, nil)
	capdu := append([]byte{0x00, card.InsGenerateAsymmetricKeyPair, 0x80, 0x00, byte(len(decControlRef))}, decControlRef...)
	rapdu := c.Dispatch(capdu)
	if sw := swOf(t, rapdu); sw != 0x9000 {
		t.Fatalf("GENERATE ASYMMETRIC KEY PAIR (decrypt) failed: SW=%04X", sw)
	}
	pub, err := tlv.Decode(rapdu[:len(rapdu)-2])
	if err != nil || len(pub) != 1 {
		t.Fatalf("malformed PublicKeyComponents response: % X", rapdu)
	}
	inner, err := tlv.Decode(pub[0].Value)
	if err != nil || len(inner) != 1 || inner[0].Tag != tag.ECPublic {
		t.Fatalf("expected ECPublic in response: % X", rapdu)
	}
	cardPublic := inner[0].Value

	curve := ecdh.X25519()
	peer, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	cardPub, err := curve.NewPublicKey(cardPublic)
	if err != nil {
		t.Fatal(err)
	}
	want, err := peer.ECDH(cardPub)
	if err != nil {
		t.Fatal(err)
	}

	envelope := tlv.Encode(tag.Cipher, tlv.Encode(tag.PublicKeyComponents, tlv.Encode(tag.ECPublic, peer.PublicKey().Bytes())))
	capdu = append([]byte{0x00, card.InsPerformSecurityOperation, 0x80, 0x86, byte(len(envelope))}, envelope...)
	verifyPW1(t, c, 0x82)
	rapdu = c.Dispatch(capdu)
	if sw := swOf(t, rapdu); sw != 0x9000 {
		t.Fatalf("PSO:DECIPHER failed: SW=%04X", sw)
	}
	got := rapdu[:len(rapdu)-2]
	if !bytes.Equal(got, want) {
		t.Fatalf("shared secret mismatch: got % X want % X", got, want)
	}
}

func TestTerminateBlanksAndReactivates(t *testing.T) {
	c := newActivatedCard(t)
	verifyPW3(t, c)

	eddsaAttrs := algo.EDDSAAttributes{Curve: algo.CurveEd25519}.EncodeAttributes()
	capdu := append([]byte{0x00, card.InsPutData, 0x00, 0x01, byte(len(eddsaAttrs))}, eddsaAttrs...)
	if sw := swOf(t, c.Dispatch(capdu)); sw != 0x9000 {
		t.Fatalf("PUT DATA algorithm attributes failed: SW=%04X", sw)
	}

	if sw := swOf(t, c.Dispatch([]byte{0x00, card.InsTerminateDF, 0x00, 0x00})); sw != 0x9000 {
		t.Fatalf("TERMINATE DF failed: SW=%04X", sw)
	}

	if sw := swOf(t, c.Dispatch([]byte{0x00, card.InsActivateFile, 0x00, 0x00})); sw != 0x9000 {
		t.Fatalf("ACTIVATE FILE after TERMINATE failed: SW=%04X", sw)
	}

	capdu = []byte{0x00, card.InsGetData, 0x00, 0x01}
	rapdu := c.Dispatch(capdu)
	if sw := swOf(t, rapdu); sw != 0x9000 {
		t.Fatalf("GET DATA algorithm attributes failed: SW=%04X", sw)
	}
	if got := rapdu[:len(rapdu)-2]; !bytes.Equal(got, []byte{0x01, 0x08, 0x00, 0x00, 0x20, 0x00}) {
		t.Fatalf("expected default signature attributes after blank(), got % X", got)
	}

	verifyPW1(t, c, 0x81)
}

func TestDeactivateFileTraps(t *testing.T) {
	c := newActivatedCard(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected DEACTIVATE FILE to trap")
		}
	}()
	c.Dispatch([]byte{0x00, card.InsDeactivateFile, 0x00, 0x00})
}
