package keygen_test

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/openpgpcard/internal/algo"
	"github.com/marmos91/openpgpcard/internal/keygen"
	"github.com/marmos91/openpgpcard/internal/store"
)

func TestTakeReturnsQueuedCandidate(t *testing.T) {
	pump := keygen.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alg := algo.EDDSAAttributes{Curve: algo.CurveEd25519}
	pump.Configure(ctx, store.SlotSign, alg)
	defer pump.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if key, ok := pump.Take(store.SlotSign, alg); ok {
			if key == nil {
				t.Fatal("expected non-nil candidate key")
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("pump never produced a candidate within the deadline")
}

func TestTakeRejectsStaleAlgorithm(t *testing.T) {
	pump := keygen.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pump.Configure(ctx, store.SlotAuth, algo.EDDSAAttributes{Curve: algo.CurveEd25519})
	defer pump.Stop()

	other := algo.RSAAttributes{ModulusBits: 2048, PublicExponentBits: 32, Format: algo.ImportFormatStandard}
	if _, ok := pump.Take(store.SlotAuth, other); ok {
		t.Fatal("expected Take to reject a candidate generated under a different algorithm")
	}
}
