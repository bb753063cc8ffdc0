// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"io"
	"net"
)

const readChunkSize = 4096

// conn adapts a raw net.Conn to the pull model the framing engine is
// built around. Backpressure falls out of the blocking read: no bytes
// are requested from the transport until the engine has consumed what
// it already buffered and asks for more.
//
// A conn is owned by exactly one connection goroutine and is not safe
// for concurrent use. At most one Read may be outstanding at a time.
type conn struct {
	raw     net.Conn
	scratch []byte

	// terminal conditions are latched so that operations after the
	// peer reset the connection fail immediately instead of blocking.
	err error
	eof bool

	reading bool
}

func newConn(raw net.Conn) *conn {
	return &conn{
		raw:     raw,
		scratch: make([]byte, readChunkSize),
	}
}

// Read blocks until the transport delivers the next chunk of bytes.
// It returns a zero-length chunk once the peer has closed its side of
// the connection. The returned slice is only valid until the next Read.
func (c *conn) Read() ([]byte, error) {
	if c.reading {
		panic("http1: a second Read was issued before the first completed")
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.eof {
		return nil, nil
	}

	c.reading = true
	n, err := c.raw.Read(c.scratch)
	c.reading = false

	if n > 0 {
		return c.scratch[:n], nil
	}
	if err == io.EOF {
		c.eof = true
		return nil, nil
	}
	if err != nil {
		c.err = err
		return nil, err
	}
	return nil, nil
}

// Write blocks until p has been fully accepted by the transport or the
// write fails. It panics if p is empty since a zero-length write is
// always a caller bug with this framing model.
func (c *conn) Write(p []byte) error {
	if len(p) == 0 {
		panic("http1: Write requires a non-empty buffer")
	}
	if c.err != nil {
		return c.err
	}

	// net.Conn.Write already guarantees full writes on success.
	_, err := c.raw.Write(p)
	if err != nil {
		c.err = err
	}
	return err
}

func (c *conn) Close() error {
	return c.raw.Close()
}
