// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package buffer provides a growable byte accumulator with cheap prefix consumption.
package buffer

import "fmt"

const minCapacity = 32

// Dynamic accumulates bytes at its tail and releases them from its head.
// The unread bytes always occupy the front of the underlying store, so
// callers may scan Bytes() directly without tracking a read offset.
//
// A Dynamic is not safe for concurrent use. The zero value is ready to use.
type Dynamic struct {
	store []byte
	n     int
}

// Len returns the number of unread bytes.
func (b *Dynamic) Len() int {
	return b.n
}

// Cap returns the current capacity of the underlying store.
func (b *Dynamic) Cap() int {
	return len(b.store)
}

// Bytes returns the unread bytes. The returned slice aliases the
// underlying store and is invalidated by the next Append or Consume.
func (b *Dynamic) Bytes() []byte {
	return b.store[:b.n]
}

// Append copies p after the current unread bytes, growing the store
// by doubling until it fits. Capacity never shrinks.
func (b *Dynamic) Append(p []byte) {
	need := b.n + len(p)
	if need > len(b.store) {
		c := len(b.store)
		if c < minCapacity {
			c = minCapacity
		}
		for c < need {
			c *= 2
		}
		store := make([]byte, c)
		copy(store, b.store[:b.n])
		b.store = store
	}
	copy(b.store[b.n:], p)
	b.n = need
}

// Consume discards the first n unread bytes, shifting the remainder
// to the front of the store. It panics if n exceeds Len.
func (b *Dynamic) Consume(n int) {
	if n < 0 || n > b.n {
		panic(fmt.Sprintf("buffer: consume %d bytes out of %d buffered", n, b.n))
	}
	copy(b.store, b.store[n:b.n])
	b.n -= n
}
