// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"errors"
	"io"
	"strconv"
	"strings"
)

// Field is a single header field.
type Field struct {
	Name  string
	Value string
}

// Response is what a Handler produces for one exchange. The framing
// fields, Content-Length or Transfer-Encoding, are appended by the
// response writer based on the body's declared length and must not
// be supplied by the handler.
type Response struct {
	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int

	// Fields are written in order after the status line.
	Fields []Field

	// Body may be nil for a bodyless response.
	Body Body
}

// reasonPhrase maps the status codes this engine emits to their
// advisory reason text. The text carries no protocol meaning for a
// conforming peer.
func reasonPhrase(code int) string {
	switch code {
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 413:
		return "Payload Too Large"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

var errBodyLengthMismatch = errors.New("http1: body length does not match committed Content-Length")

// writeResponse serializes resp onto c. The status line and all
// header fields are written as a single unit, then the body chunks
// are streamed, wrapped in chunked framing when the body length is
// unknown.
//
// Once the header block has been written the framing contract with
// the peer is fixed: a body that yields more or fewer bytes than it
// declared is unrecoverable and fails the write, aborting the
// connection.
func writeResponse(c *conn, resp *Response) error {
	body := resp.Body
	if body == nil {
		body = NoBody
	}
	chunked := body.Len() < 0

	var head strings.Builder
	head.WriteString("HTTP/1.1 ")
	head.WriteString(strconv.Itoa(resp.StatusCode))
	head.WriteString(" ")
	head.WriteString(reasonPhrase(resp.StatusCode))
	head.WriteString("\r\n")
	for _, f := range resp.Fields {
		head.WriteString(f.Name)
		head.WriteString(": ")
		head.WriteString(f.Value)
		head.WriteString("\r\n")
	}
	if chunked {
		head.WriteString("Transfer-Encoding: chunked\r\n")
	} else {
		head.WriteString("Content-Length: ")
		head.WriteString(strconv.FormatInt(body.Len(), 10))
		head.WriteString("\r\n")
	}
	head.WriteString("\r\n")

	err := c.Write([]byte(head.String()))
	if err != nil {
		return err
	}

	var written int64
	for {
		chunk, err := body.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			continue
		}

		written += int64(len(chunk))
		if !chunked && written > body.Len() {
			return errBodyLengthMismatch
		}

		if chunked {
			chunk = frameChunk(chunk)
		}
		err = c.Write(chunk)
		if err != nil {
			return err
		}
	}

	if chunked {
		return c.Write([]byte("0\r\n\r\n"))
	}
	if written != body.Len() {
		return errBodyLengthMismatch
	}
	return nil
}

func frameChunk(data []byte) []byte {
	framed := make([]byte, 0, len(data)+16)
	framed = strconv.AppendInt(framed, int64(len(data)), 16)
	framed = append(framed, '\r', '\n')
	framed = append(framed, data...)
	framed = append(framed, '\r', '\n')
	return framed
}
