//go:build pcsc

// Package pcsc implements cardio.Transport over a real CCID reader via
// PC/SC. It is a thin wrapper: no example in the reference corpus
// binds PC/SC, so this package only shapes the integration point
// (context-aware Transmit, explicit card/reader lifecycle) without a
// concrete smart-card-reader dependency wired in.
package pcsc

import (
	"context"
	"errors"
)

// Transport would exchange APDUs with a physical card over a PC/SC
// reader session. Card and Context fields are left for a real PC/SC
// binding to populate; none is available in this build.
type Transport struct {
	ReaderName string
}

// Open is a placeholder for establishing a PC/SC card session. It
// always fails until a concrete PC/SC binding is wired in.
func Open(readerName string) (*Transport, error) {
	return nil, errors.New("pcsc: no PC/SC binding is wired into this build")
}

func (t *Transport) Transmit(ctx context.Context, capdu []byte) ([]byte, error) {
	return nil, errors.New("pcsc: not implemented")
}

func (t *Transport) Close() error { return nil }
