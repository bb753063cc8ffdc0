// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"io"
)

// LenUnknown is returned by Body.Len when the total body size is not
// known ahead of time. Responses with such bodies are framed with
// chunked transfer encoding.
const LenUnknown int64 = -1

// Body is a pull source of entity bytes for one request or response.
//
// Next returns the next available chunk, or io.EOF once the body is
// exhausted. A zero-length chunk with a nil error carries no data and
// does not terminate the body. Close releases any external resource
// backing the body and must be called on every exit path; it is safe
// to call after Next returned io.EOF.
type Body interface {
	Len() int64
	Next() ([]byte, error)
	Close() error
}

type memoryBody struct {
	b    []byte
	done bool
}

// BytesBody returns a Body which yields b as a single chunk.
func BytesBody(b []byte) Body {
	return &memoryBody{b: b}
}

// StringBody returns a Body which yields s as a single chunk.
func StringBody(s string) Body {
	return &memoryBody{b: []byte(s)}
}

// NoBody is a Body with zero length and no chunks.
var NoBody Body = &memoryBody{done: true}

func (b *memoryBody) Len() int64 {
	return int64(len(b.b))
}

func (b *memoryBody) Next() ([]byte, error) {
	if b.done || len(b.b) == 0 {
		return nil, io.EOF
	}
	b.done = true
	return b.b, nil
}

func (b *memoryBody) Close() error {
	return nil
}

type producerBody struct {
	size  int64
	next  func() ([]byte, error)
	close func() error
}

// ProducerBody returns a Body fed by an injected producer of chunks,
// e.g. file contents or generated content. size declares the total
// body length, or LenUnknown if the producer cannot know it up front.
// next must return io.EOF once the producer is exhausted. close may
// be nil if the producer holds no external resource.
func ProducerBody(size int64, next func() ([]byte, error), close func() error) Body {
	return &producerBody{
		size:  size,
		next:  next,
		close: close,
	}
}

func (b *producerBody) Len() int64 {
	return b.size
}

func (b *producerBody) Next() ([]byte, error) {
	return b.next()
}

func (b *producerBody) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
