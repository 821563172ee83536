package sockapdu

import (
	"context"
	"encoding/binary"
	"io"
	"net"
)

// Handler processes one command APDU and returns the response APDU.
type Handler func(ctx context.Context, capdu []byte) (rapdu []byte)

// Serve accepts connections on ln and dispatches every framed APDU it
// reads to handler, one connection at a time (mirroring a physical
// card, which only ever talks to a single reader session). It returns
// when ln is closed.
func Serve(ctx context.Context, ln net.Listener, handler Handler) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		serveConn(ctx, conn, handler)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()
	for {
		var header [2]byte
		if _, err := io.ReadFull(conn, header[:]); err != nil {
			return
		}
		capdu := make([]byte, binary.BigEndian.Uint16(header[:]))
		if _, err := io.ReadFull(conn, capdu); err != nil {
			return
		}

		rapdu := handler(ctx, capdu)

		binary.BigEndian.PutUint16(header[:], uint16(len(rapdu)))
		if _, err := conn.Write(header[:]); err != nil {
			return
		}
		if _, err := conn.Write(rapdu); err != nil {
			return
		}
	}
}
