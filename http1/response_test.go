// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http1

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sinkConn returns a conn plus a channel that yields everything the
// peer observed once the conn is closed.
func sinkConn(t *testing.T) (*conn, chan []byte) {
	t.Helper()

	client, server := net.Pipe()
	out := make(chan []byte, 1)
	go func() {
		var b []byte
		tmp := make([]byte, 1024)
		for {
			n, err := client.Read(tmp)
			b = append(b, tmp[:n]...)
			if err != nil {
				break
			}
		}
		out <- b
	}()
	return newConn(server), out
}

func TestWriteResponse(t *testing.T) {
	t.Run("will frame with Content-Length", func(t *testing.T) {
		t.Run("if the body declares its length", func(t *testing.T) {
			c, out := sinkConn(t)

			err := writeResponse(c, &Response{
				StatusCode: 200,
				Fields: []Field{
					{Name: "Content-Type", Value: "text/plain; charset=utf-8"},
				},
				Body: StringBody("hello"),
			})
			if !assert.Nil(t, err) {
				return
			}
			c.Close()

			want := "HTTP/1.1 200 OK\r\n" +
				"Content-Type: text/plain; charset=utf-8\r\n" +
				"Content-Length: 5\r\n" +
				"\r\n" +
				"hello"
			if !assert.Equal(t, want, string(<-out)) {
				return
			}
		})

		t.Run("if the response has no body at all", func(t *testing.T) {
			c, out := sinkConn(t)

			err := writeResponse(c, &Response{StatusCode: 200})
			if !assert.Nil(t, err) {
				return
			}
			c.Close()

			want := "HTTP/1.1 200 OK\r\n" +
				"Content-Length: 0\r\n" +
				"\r\n"
			if !assert.Equal(t, want, string(<-out)) {
				return
			}
		})
	})

	t.Run("will frame with chunked transfer encoding", func(t *testing.T) {
		t.Run("if the body length is unknown", func(t *testing.T) {
			c, out := sinkConn(t)

			chunks := []string{"ab", "", "cde"}
			i := 0
			body := ProducerBody(LenUnknown, func() ([]byte, error) {
				if i == len(chunks) {
					return nil, io.EOF
				}
				chunk := chunks[i]
				i++
				return []byte(chunk), nil
			}, nil)

			err := writeResponse(c, &Response{StatusCode: 200, Body: body})
			if !assert.Nil(t, err) {
				return
			}
			c.Close()

			want := "HTTP/1.1 200 OK\r\n" +
				"Transfer-Encoding: chunked\r\n" +
				"\r\n" +
				"2\r\nab\r\n" +
				"3\r\ncde\r\n" +
				"0\r\n\r\n"
			if !assert.Equal(t, want, string(<-out)) {
				return
			}
		})
	})

	t.Run("will render a generic reason phrase", func(t *testing.T) {
		t.Run("if the status code is not in the reason table", func(t *testing.T) {
			c, out := sinkConn(t)

			err := writeResponse(c, &Response{StatusCode: 599})
			if !assert.Nil(t, err) {
				return
			}
			c.Close()

			want := "HTTP/1.1 599 Unknown\r\n" +
				"Content-Length: 0\r\n" +
				"\r\n"
			if !assert.Equal(t, want, string(<-out)) {
				return
			}
		})
	})

	t.Run("will fail the write", func(t *testing.T) {
		t.Run("if the body yields fewer bytes than it declared", func(t *testing.T) {
			c, out := sinkConn(t)

			body := ProducerBody(5, singleChunkProducer("abc"), nil)

			err := writeResponse(c, &Response{StatusCode: 200, Body: body})
			if !assert.ErrorIs(t, err, errBodyLengthMismatch) {
				return
			}
			c.Close()
			<-out
		})

		t.Run("if the body yields more bytes than it declared", func(t *testing.T) {
			c, out := sinkConn(t)

			body := ProducerBody(2, singleChunkProducer("abc"), nil)

			err := writeResponse(c, &Response{StatusCode: 200, Body: body})
			if !assert.ErrorIs(t, err, errBodyLengthMismatch) {
				return
			}
			c.Close()
			<-out
		})
	})
}

func singleChunkProducer(s string) func() ([]byte, error) {
	done := false
	return func() ([]byte, error) {
		if done {
			return nil, io.EOF
		}
		done = true
		return []byte(s), nil
	}
}
