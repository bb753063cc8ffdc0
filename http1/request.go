// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"strings"
)

// Request is a single parsed HTTP/1.x request head. It is immutable
// once produced by the framer and remains valid for the duration of
// one request/response exchange.
type Request struct {
	// Method is the request method token, e.g. "GET".
	Method string

	// Target is the request target exactly as it appeared on the
	// wire. No percent-decoding or path normalization is applied.
	Target string

	// Proto is the HTTP version token, e.g. "HTTP/1.1".
	Proto string

	// fields holds the raw header field lines in wire order. Name
	// and value are only separated on lookup.
	fields []string
}

// Fields returns all header fields in wire order with their values
// trimmed. Collaborators which forward requests elsewhere, e.g. a
// reverse proxy, use this to copy headers wholesale.
func (r *Request) Fields() []Field {
	fields := make([]Field, 0, len(r.fields))
	for _, f := range r.fields {
		i := strings.IndexByte(f, ':')
		if i < 0 {
			continue
		}
		fields = append(fields, Field{
			Name:  f[:i],
			Value: strings.Trim(f[i+1:], " \t"),
		})
	}
	return fields
}

// Header returns the value of the first header field matching name.
// Matching is case-insensitive and the returned value has surrounding
// whitespace trimmed. Duplicate fields after the first are ignored.
func (r *Request) Header(name string) (string, bool) {
	for _, f := range r.fields {
		i := strings.IndexByte(f, ':')
		if i < 0 {
			continue
		}
		if !strings.EqualFold(f[:i], name) {
			continue
		}
		return strings.Trim(f[i+1:], " \t"), true
	}
	return "", false
}
