package sockapdu_test

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/marmos91/openpgpcard/internal/cardio/sockapdu"
)

func TestTransmitRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "card.sock")
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sockapdu.Serve(ctx, ln, func(_ context.Context, capdu []byte) []byte {
		echoed := make([]byte, len(capdu))
		copy(echoed, capdu)
		return append(echoed, 0x90, 0x00)
	})

	transport, err := sockapdu.Dial(ctx, socketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer transport.Close()

	capdu := []byte{0x00, 0xA4, 0x04, 0x00}
	rapdu, err := transport.Transmit(ctx, capdu)
	if err != nil {
		t.Fatal(err)
	}
	want := append(append([]byte{}, capdu...), 0x90, 0x00)
	if !bytes.Equal(rapdu, want) {
		t.Fatalf("got % X, want % X", rapdu, want)
	}
}
