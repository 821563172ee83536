package tag_test

import (
	"testing"

	"github.com/marmos91/openpgpcard/internal/tag"
)

func TestPasswordStatusRoundTrip(t *testing.T) {
	in := tag.PasswordStatus{
		PW1ValidForMultipleSignatures: true,
		PW1MaxLength:                  127,
		RCMaxLength:                   127,
		PW3MaxLength:                  127,
		PW1RemainingTries:             3,
		RCRemainingTries:              0,
		PW3RemainingTries:             3,
	}
	out, err := tag.DecodePasswordStatus(in.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestDecodePasswordStatusRejectsWrongLength(t *testing.T) {
	if _, err := tag.DecodePasswordStatus([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for malformed length")
	}
}

func TestExtendedCapabilitiesRoundTrip(t *testing.T) {
	in := tag.ExtendedCapabilities{
		HasKeyImport:               true,
		HasEditablePasswordStatus:  true,
		SecureMessagingAlgorithm:   0,
		ChallengeMaxLength:         0,
		CertificateMaxLength:       2048,
		SpecialDOMaxLength:         255,
		HasPINBlock2Format:         true,
		CanSwapAuthDecKeyRole:      false,
	}
	out, err := tag.DecodeExtendedCapabilities(in.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestSignatureCounterSaturates(t *testing.T) {
	encoded := tag.EncodeSignatureCounter(0xFFFFFFFF)
	value, err := tag.DecodeSignatureCounter(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if value != 0xFFFFFF {
		t.Fatalf("expected saturation at 0xFFFFFF, got %x", value)
	}
}

func TestKeyInformationRoundTrip(t *testing.T) {
	in := map[byte]byte{0: 1, 1: 2, 2: 0}
	out, err := tag.DecodeKeyInformation(tag.EncodeKeyInformation(in))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range in {
		if out[k] != v {
			t.Fatalf("mismatch for index %d: got %d, want %d", k, out[k], v)
		}
	}
}

func TestFingerprintListRoundTrip(t *testing.T) {
	var fps [3][20]byte
	for i := range fps[0] {
		fps[0][i] = byte(i)
	}
	out, err := tag.DecodeFingerprintList(tag.EncodeFingerprintList(fps))
	if err != nil {
		t.Fatal(err)
	}
	if out != fps {
		t.Fatal("fingerprint list round trip mismatch")
	}
}

func TestTimestampListRoundTrip(t *testing.T) {
	ts := [3]uint32{0x60000000, 0x61000000, 0}
	out, err := tag.DecodeTimestampList(tag.EncodeTimestampList(ts))
	if err != nil {
		t.Fatal(err)
	}
	if out != ts {
		t.Fatal("timestamp list round trip mismatch")
	}
}
