// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package fileserve provides a static resource collaborator for chisel handlers.
package fileserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/z5labs/chisel/http1"

	"github.com/spf13/afero"
)

// NotFoundError occurs if a request target does not resolve to a
// regular file under the provider's filesystem.
type NotFoundError struct {
	Target string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("fileserve: no regular file for target: %s", e.Target)
}

// Provider resolves request targets to streamable, length known byte
// sources. Escapes above the filesystem root are prevented by the
// afero.Fs itself, e.g. afero.NewBasePathFs.
type Provider struct {
	fs afero.Fs
}

// NewProvider returns a Provider serving files from fsys.
func NewProvider(fsys afero.Fs) *Provider {
	return &Provider{fs: fsys}
}

// Open resolves target to a Resource holding an open file handle.
// The caller owns the Resource and must release it via Close. Targets
// ending in "/" resolve to an index.html underneath them.
func (p *Provider) Open(target string) (*Resource, error) {
	name, _, _ := strings.Cut(target, "?")
	if strings.HasSuffix(name, "/") {
		name += "index.html"
	}
	name = path.Clean("/" + name)

	info, err := p.fs.Stat(name)
	if err != nil || info.IsDir() {
		return nil, NotFoundError{Target: target}
	}

	f, err := p.fs.Open(name)
	if err != nil {
		return nil, NotFoundError{Target: target}
	}

	return &Resource{
		ContentType: contentTypeFor(path.Ext(name)),
		file:        f,
		size:        info.Size(),
		scratch:     make([]byte, 32*1024),
	}, nil
}

// contentTypes pins the types for common extensions so responses do
// not depend on the host's mime tables.
var contentTypes = map[string]string{
	".css":  "text/css; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".json": "application/json",
	".txt":  "text/plain; charset=utf-8",
}

func contentTypeFor(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	ct := mime.TypeByExtension(ext)
	if ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Resource is a length known http1.Body backed by an open file. The
// length is committed when the response header is written, so a file
// that changes size mid transfer fails the transfer rather than
// corrupting the framing with the peer.
type Resource struct {
	// ContentType is derived from the file extension.
	ContentType string

	file    afero.File
	size    int64
	served  int64
	scratch []byte
}

// Len implements the http1.Body interface.
func (r *Resource) Len() int64 {
	return r.size
}

// Next implements the http1.Body interface.
func (r *Resource) Next() ([]byte, error) {
	if r.served == r.size {
		return nil, io.EOF
	}

	max := int64(len(r.scratch))
	if rem := r.size - r.served; rem < max {
		max = rem
	}

	n, err := r.file.Read(r.scratch[:max])
	if n > 0 {
		r.served += int64(n)
		return r.scratch[:n], nil
	}
	if err == io.EOF || err == nil {
		// The file shrank after its size was committed.
		return nil, io.ErrUnexpectedEOF
	}
	return nil, err
}

// Close implements the http1.Body interface.
func (r *Resource) Close() error {
	return r.file.Close()
}

// Handler adapts a Provider into an http1.Handler which serves GET
// requests. Unresolvable targets get a 404 response without closing
// the connection.
func Handler(p *Provider) http1.Handler {
	return http1.HandlerFunc(func(ctx context.Context, req *http1.Request, body http1.Body) (*http1.Response, error) {
		if req.Method != "GET" {
			return nil, &http1.StatusError{Code: 400, Msg: "only GET is supported for static resources"}
		}

		res, err := p.Open(req.Target)
		if err != nil {
			var nfe NotFoundError
			if !errors.As(err, &nfe) {
				return nil, err
			}
			return &http1.Response{
				StatusCode: 404,
				Fields: []http1.Field{
					{Name: "Content-Type", Value: "text/plain; charset=utf-8"},
				},
				Body: http1.StringBody("resource not found"),
			}, nil
		}

		return &http1.Response{
			StatusCode: 200,
			Fields: []http1.Field{
				{Name: "Content-Type", Value: res.ContentType},
			},
			Body: res,
		}, nil
	})
}
