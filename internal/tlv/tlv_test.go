package tlv

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		tag   Tag
		value []byte
	}{
		{"short tag, short length", Tag{Number: 0x06, Class: ClassContext}, []byte{0x01, 0x02, 0x03}},
		{"multi-byte tag", Tag{Number: 0x7F49, Class: ClassContext, Constructed: true}, []byte("hello")},
		{"empty value", Tag{Number: 0x5F48, Class: ClassApplication}, nil},
		{"long value", Tag{Number: 0x01, Class: ClassContext}, bytes.Repeat([]byte{0xAB}, 300)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			encoded := Encode(c.tag, c.value)
			objs, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(objs) != 1 {
				t.Fatalf("got %d objects, want 1", len(objs))
			}
			if objs[0].Tag.Number != c.tag.Number {
				t.Errorf("tag number = %x, want %x", objs[0].Tag.Number, c.tag.Number)
			}
			if !bytes.Equal(objs[0].Value, c.value) {
				t.Errorf("value = %x, want %x", objs[0].Value, c.value)
			}
		})
	}
}

func TestDecodeMultipleObjects(t *testing.T) {
	a := Encode(Tag{Number: 0x01}, []byte{0x01})
	b := Encode(Tag{Number: 0x02}, []byte{0x02, 0x03})
	objs, err := Decode(append(a, b...))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2", len(objs))
	}
}

func TestFind(t *testing.T) {
	data := Encode(Tag{Number: 0x5F52}, []byte("historical"))
	val, ok := Find(data, 0x5F52)
	if !ok {
		t.Fatal("Find() did not locate tag")
	}
	if string(val) != "historical" {
		t.Errorf("value = %q, want historical", val)
	}

	if _, ok := Find(data, 0x99); ok {
		t.Error("Find() unexpectedly located absent tag")
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte{0x06, 0x05, 0x01, 0x02})
	if err != ErrTruncated {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeValueTooLong(t *testing.T) {
	// Long-form length claiming 3 bytes = 0x020000, over maxValueLength.
	data := []byte{0x06, 0x83, 0x02, 0x00, 0x00}
	_, err := Decode(data)
	if err == nil {
		t.Fatal("expected error for oversized length")
	}
}

func TestCompactTLVRoundTrip(t *testing.T) {
	a := EncodeCompact(0x1, []byte{0xAA, 0xBB})
	b := EncodeCompact(0x5, nil)
	objs, err := DecodeCompact(append(a, b...))
	if err != nil {
		t.Fatalf("DecodeCompact() error = %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("got %d objects, want 2", len(objs))
	}
	if objs[0].Tag != 0x1 || !bytes.Equal(objs[0].Value, []byte{0xAA, 0xBB}) {
		t.Errorf("objs[0] = %+v", objs[0])
	}
	if objs[1].Tag != 0x5 || len(objs[1].Value) != 0 {
		t.Errorf("objs[1] = %+v", objs[1])
	}
}

func TestEncodeCompactPanicsOnOversizedValue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for value longer than 15 bytes")
		}
	}()
	EncodeCompact(0x1, bytes.Repeat([]byte{0x00}, 16))
}
