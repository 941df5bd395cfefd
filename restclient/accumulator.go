// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// Accumulator is the request under construction while a derived
// client is navigated.  Each With method returns a new Accumulator and
// leaves its receiver untouched, so sibling branches of a description
// never see each other's values.
type Accumulator struct {
	// Path is the URL so far, base included.
	Path string

	// Headers are request headers by name.
	Headers map[string]string

	// Query holds stringified query parameters by name.
	Query map[string]string

	// Body is the encoded request body, or nil.
	Body []byte

	// ContentType is sent with a non-nil Body if set.
	ContentType string
}

// NewAccumulator starts a request at a base URL, such as
// "https://api.thecatapi.com/v1".
func NewAccumulator(base string) Accumulator {
	return Accumulator{Path: base}
}

func (a Accumulator) clone() Accumulator {
	headers := make(map[string]string, len(a.Headers))
	for k, v := range a.Headers {
		headers[k] = v
	}
	query := make(map[string]string, len(a.Query))
	for k, v := range a.Query {
		query[k] = v
	}
	a.Headers = headers
	a.Query = query
	return a
}

// WithSegment appends "/" and an already escaped segment to the path.
func (a Accumulator) WithSegment(segment string) Accumulator {
	a = a.clone()
	a.Path += "/" + segment
	return a
}

// WithHeader sets a request header.
func (a Accumulator) WithHeader(name, value string) Accumulator {
	a = a.clone()
	a.Headers[name] = value
	return a
}

// WithQuery sets a query parameter.
func (a Accumulator) WithQuery(name, value string) Accumulator {
	a = a.clone()
	a.Query[name] = value
	return a
}

// WithBody sets the request body and its content type.
func (a Accumulator) WithBody(body []byte, contentType string) Accumulator {
	a = a.clone()
	a.Body = body
	a.ContentType = contentType
	return a
}

// Request is one complete request, ready for an Executor.
type Request struct {
	Method string
	Accumulator
}

// URL returns the full request URL with its query string.  Query
// parameters are encoded in name order.
func (r *Request) URL() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	values := url.Values{}
	for name, value := range r.Query {
		values.Set(name, value)
	}
	return r.Path + "?" + values.Encode()
}

// HTTPRequest builds a net/http request bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL(), nil)
	}
	if err != nil {
		return nil, err
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if r.Body != nil && r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	return req, nil
}
