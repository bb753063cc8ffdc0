// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package buffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDynamic_Append(t *testing.T) {
	t.Run("will grow capacity by doubling", func(t *testing.T) {
		t.Run("if an append exceeds the current capacity", func(t *testing.T) {
			var b Dynamic
			b.Append(bytes.Repeat([]byte("a"), 33))

			if !assert.Equal(t, 33, b.Len()) {
				return
			}
			if !assert.Equal(t, 64, b.Cap()) {
				return
			}
		})

		t.Run("if a single append is larger than double the capacity", func(t *testing.T) {
			var b Dynamic
			b.Append(bytes.Repeat([]byte("a"), 200))

			if !assert.Equal(t, 200, b.Len()) {
				return
			}
			if !assert.Equal(t, 256, b.Cap()) {
				return
			}
		})
	})

	t.Run("will match the concatenation model", func(t *testing.T) {
		t.Run("if appends and consumes are interleaved", func(t *testing.T) {
			var b Dynamic
			var model []byte

			steps := []struct {
				append  string
				consume int
			}{
				{append: "hello"},
				{append: " world"},
				{consume: 6},
				{append: "!!"},
				{consume: 3},
				{append: "abcdefghijklmnopqrstuvwxyz0123456789"},
				{consume: 10},
			}
			for _, step := range steps {
				if len(step.append) > 0 {
					b.Append([]byte(step.append))
					model = append(model, step.append...)
				}
				if step.consume > 0 {
					b.Consume(step.consume)
					model = model[step.consume:]
				}
				if !assert.Equal(t, model, append([]byte(nil), b.Bytes()...)) {
					return
				}
			}
		})
	})
}

func TestDynamic_Consume(t *testing.T) {
	t.Run("will panic", func(t *testing.T) {
		t.Run("if more bytes are consumed than are buffered", func(t *testing.T) {
			var b Dynamic
			b.Append([]byte("abc"))

			assert.Panics(t, func() {
				b.Consume(4)
			})
		})
	})

	t.Run("will never shrink capacity", func(t *testing.T) {
		t.Run("if the entire buffer is consumed", func(t *testing.T) {
			var b Dynamic
			b.Append(bytes.Repeat([]byte("x"), 100))
			b.Consume(100)

			if !assert.Equal(t, 0, b.Len()) {
				return
			}
			if !assert.Equal(t, 128, b.Cap()) {
				return
			}
		})
	})
}
