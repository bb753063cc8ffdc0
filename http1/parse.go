// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"bytes"
	"strings"

	"github.com/z5labs/chisel/buffer"
)

// MaxHeaderBytes is the hard cap on the size of a request header
// block. Buffering this many bytes without finding the header block
// terminator fails the request with a 413, regardless of whether a
// terminator would eventually arrive.
const MaxHeaderBytes = 8192

var crlfcrlf = []byte("\r\n\r\n")

// ParseRequest extracts one complete request head from the front of b.
// It returns the parsed request along with any bytes remaining after
// the header block terminator, e.g. the front of the request body. A
// nil request with a nil error means b does not yet hold a complete
// header block.
func ParseRequest(b []byte) (*Request, []byte, error) {
	var buf buffer.Dynamic
	buf.Append(b)

	req, err := tryParseRequest(&buf)
	if err == errNeedMore {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return req, buf.Bytes(), nil
}

// tryParseRequest attempts to extract one complete request head from
// the front of buf. On success the head, including its terminating
// blank line, has been consumed from buf and any trailing bytes are
// left in place. It returns errNeedMore if buf does not yet hold a
// complete header block.
func tryParseRequest(buf *buffer.Dynamic) (*Request, error) {
	b := buf.Bytes()
	k := bytes.Index(b, crlfcrlf)
	if k < 0 {
		if buf.Len() >= MaxHeaderBytes {
			return nil, &StatusError{Code: 413, Msg: "request header block exceeds 8192 bytes"}
		}
		return nil, errNeedMore
	}

	head := string(b[:k])
	buf.Consume(k + len(crlfcrlf))

	lines := strings.Split(head, "\r\n")
	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		if len(line) == 0 {
			continue
		}
		if strings.IndexByte(line, ':') < 1 {
			return nil, badRequest("malformed header field")
		}
		req.fields = append(req.fields, line)
	}
	return req, nil
}

func parseRequestLine(line string) (*Request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, badRequest("malformed request line")
	}
	for _, part := range parts {
		if len(part) == 0 {
			return nil, badRequest("malformed request line")
		}
	}
	return &Request{
		Method: parts[0],
		Target: parts[1],
		Proto:  parts[2],
	}, nil
}
