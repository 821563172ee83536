// Package sockapdu implements cardio.Transport over a Unix-domain
// socket, framing each APDU with a 2-byte big-endian length prefix.
// It is the transport used by integration tests and by software
// smartcard emulators that speak a plain APDU-over-socket protocol
// rather than PC/SC.
package sockapdu

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const maxFrameLength = 1<<16 - 1

// Transport is a cardio.Transport backed by a single persistent Unix
// socket connection. A mutex serializes Transmit calls since one
// physical card only ever processes one command at a time.
type Transport struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to a card emulator listening on a Unix-domain socket at path.
func Dial(ctx context.Context, path string) (*Transport, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("sockapdu: dial %s: %w", path, err)
	}
	return &Transport{conn: conn}, nil
}

// Transmit writes capdu as a length-prefixed frame and reads back the
// response frame. The ctx deadline, if any, is applied to the
// underlying connection for the duration of the round trip.
func (t *Transport) Transmit(ctx context.Context, capdu []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(capdu) > maxFrameLength {
		return nil, fmt.Errorf("sockapdu: command APDU too long: %d bytes", len(capdu))
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
		defer t.conn.SetDeadline(time.Time{})
	}

	var header [2]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(capdu)))
	if _, err := t.conn.Write(header[:]); err != nil {
		return nil, fmt.Errorf("sockapdu: write frame header: %w", err)
	}
	if _, err := t.conn.Write(capdu); err != nil {
		return nil, fmt.Errorf("sockapdu: write command APDU: %w", err)
	}

	if _, err := io.ReadFull(t.conn, header[:]); err != nil {
		return nil, fmt.Errorf("sockapdu: read frame header: %w", err)
	}
	rapdu := make([]byte, binary.BigEndian.Uint16(header[:]))
	if _, err := io.ReadFull(t.conn, rapdu); err != nil {
		return nil, fmt.Errorf("sockapdu: read response APDU: %w", err)
	}
	return rapdu, nil
}

// Close releases the underlying socket connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Close()
}
