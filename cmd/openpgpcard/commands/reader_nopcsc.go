//go:build !pcsc

package commands

import (
	"context"
	"errors"

	"github.com/marmos91/openpgpcard/internal/card"
)

// serveReader is unavailable unless this binary is built with the
// pcsc tag against a real PC/SC binding (none is wired into this
// build; see internal/cardio/pcsc).
func serveReader(ctx context.Context, readerName string, c *card.Card) error {
	return errors.New("reader transport \"pcsc\" requires a binary built with the pcsc tag")
}
