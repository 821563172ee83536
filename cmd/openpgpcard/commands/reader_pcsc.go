//go:build pcsc

package commands

import (
	"context"

	"github.com/marmos91/openpgpcard/internal/card"
	"github.com/marmos91/openpgpcard/internal/cardio/pcsc"
	"github.com/marmos91/openpgpcard/internal/logger"
)

// serveReader drives c against a physical reader over PC/SC until ctx
// is cancelled.
func serveReader(ctx context.Context, readerName string, c *card.Card) error {
	t, err := pcsc.Open(readerName)
	if err != nil {
		return err
	}
	defer t.Close()

	logger.Info("PC/SC reader attached", logger.Reader(readerName))
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		capdu, err := t.Transmit(ctx, nil)
		if err != nil {
			return err
		}
		reqCtx := logger.WithContext(ctx, logger.NewLogContext(readerName))
		c.DispatchCtx(reqCtx, capdu)
	}
}
