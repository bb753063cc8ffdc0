// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"bytes"
	"io"
	"strconv"

	"github.com/z5labs/chisel/buffer"
)

// requestBody selects the Body implementation for a parsed request
// per its framing headers. The returned Body consumes the connection
// bytes behind req, pulling from buf first and from c once buf runs
// dry.
func requestBody(req *Request, c *conn, buf *buffer.Dynamic) (Body, error) {
	length := LenUnknown
	if v, ok := req.Header("Content-Length"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, badRequest("invalid Content-Length")
		}
		length = n
	}

	chunked := false
	if v, ok := req.Header("Transfer-Encoding"); ok {
		if v != "chunked" {
			return nil, badRequest("unsupported transfer encoding " + v)
		}
		chunked = true
	}

	if !methodAllowsBody(req.Method) {
		if length > 0 || chunked {
			return nil, badRequest("request body not allowed for method " + req.Method)
		}
		length = 0
		chunked = false
	}

	if length >= 0 {
		return &lengthReader{conn: c, buf: buf, remaining: length, total: length}, nil
	}
	if chunked {
		return &chunkedReader{conn: c, buf: buf}, nil
	}
	return nil, &StatusError{Code: 400, Msg: "length required"}
}

func methodAllowsBody(method string) bool {
	switch method {
	case "GET", "HEAD", "TRACE":
		return false
	default:
		return true
	}
}

// fill performs one connection read and appends the result to buf.
// A read that observes end-of-stream is a framing failure here since
// fill is only called while more message bytes are required.
func fill(c *conn, buf *buffer.Dynamic) error {
	p, err := c.Read()
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return unexpectedEOF()
	}
	buf.Append(p)
	return nil
}

// lengthReader yields exactly the declared number of body bytes from
// the connection, leaving any bytes beyond them buffered for the next
// request.
type lengthReader struct {
	conn      *conn
	buf       *buffer.Dynamic
	remaining int64
	total     int64
}

func (r *lengthReader) Len() int64 {
	return r.total
}

func (r *lengthReader) Next() ([]byte, error) {
	if r.remaining == 0 {
		return nil, io.EOF
	}
	for r.buf.Len() == 0 {
		err := fill(r.conn, r.buf)
		if err != nil {
			return nil, err
		}
	}

	n := int64(r.buf.Len())
	if n > r.remaining {
		n = r.remaining
	}
	chunk := append([]byte(nil), r.buf.Bytes()[:n]...)
	r.buf.Consume(int(n))
	r.remaining -= n
	return chunk, nil
}

func (r *lengthReader) Close() error {
	return nil
}

// chunkedReader decodes a chunked transfer encoded body from the
// connection on demand. Trailer fields are not supported; the block
// after the zero-size chunk must be empty.
type chunkedReader struct {
	conn *conn
	buf  *buffer.Dynamic
	done bool
}

func (r *chunkedReader) Len() int64 {
	return LenUnknown
}

func (r *chunkedReader) Next() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}

	size, err := r.readChunkSize()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		err = r.discardCRLF()
		if err != nil {
			return nil, err
		}
		r.done = true
		return nil, io.EOF
	}

	// The declared size is peer-controlled, so the buffer must grow
	// with the bytes that actually arrive rather than be preallocated
	// up front.
	capacity := size
	if capacity > readChunkSize {
		capacity = readChunkSize
	}
	chunk := make([]byte, 0, capacity)
	for int64(len(chunk)) < size {
		if r.buf.Len() == 0 {
			err = fill(r.conn, r.buf)
			if err != nil {
				return nil, err
			}
		}
		n := size - int64(len(chunk))
		if n > int64(r.buf.Len()) {
			n = int64(r.buf.Len())
		}
		chunk = append(chunk, r.buf.Bytes()[:n]...)
		r.buf.Consume(int(n))
	}

	err = r.discardCRLF()
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

func (r *chunkedReader) Close() error {
	return nil
}

func (r *chunkedReader) readChunkSize() (int64, error) {
	var i int
	for {
		i = bytes.Index(r.buf.Bytes(), []byte("\r\n"))
		if i >= 0 {
			break
		}
		err := fill(r.conn, r.buf)
		if err != nil {
			return 0, err
		}
	}

	line := string(r.buf.Bytes()[:i])
	r.buf.Consume(i + 2)

	if len(line) == 0 || !isHex(line) {
		return 0, badRequest("invalid chunk size")
	}
	size, err := strconv.ParseInt(line, 16, 64)
	if err != nil {
		return 0, badRequest("invalid chunk size")
	}
	return size, nil
}

func (r *chunkedReader) discardCRLF() error {
	for r.buf.Len() < 2 {
		err := fill(r.conn, r.buf)
		if err != nil {
			return err
		}
	}
	if !bytes.HasPrefix(r.buf.Bytes(), []byte("\r\n")) {
		return badRequest("malformed chunk terminator")
	}
	r.buf.Consume(2)
	return nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
