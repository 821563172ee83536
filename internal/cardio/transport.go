package cardio

import "context"

// Transport exchanges one command APDU for one response APDU. It does
// not interpret APDU contents; that is the dispatcher's job.
type Transport interface {
	Transmit(ctx context.Context, capdu []byte) (rapdu []byte, err error)
	Close() error
}
