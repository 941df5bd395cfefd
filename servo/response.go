// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package servo

import (
	"net/http"
	"reflect"
)

// Response is a template for one HTTP response a Method may produce.
// It is pure data: the client uses it to decide whether a response is
// expected and how to decode it, and the mock registry uses it to
// decide what canned responses are legal.
type Response struct {
	status    int
	headers   []string
	valueType reflect.Type
	text      bool
}

// Status creates a response template for an arbitrary status code.
// example is any value of the payload type, such as []Cat{}; nil
// means the payload is decoded generically.
func Status(code int, example interface{}) Response {
	return Response{status: code, valueType: typeOf(example)}
}

// OK creates a 200 OK response template.
func OK(example interface{}) Response {
	return Status(http.StatusOK, example)
}

// Created creates a 201 Created response template.
func Created(example interface{}) Response {
	return Status(http.StatusCreated, example)
}

// NoContent creates a 204 No Content response template.
func NoContent() Response {
	return Status(http.StatusNoContent, nil)
}

// BadRequest creates a 400 Bad Request response template.
func BadRequest(example interface{}) Response {
	return Status(http.StatusBadRequest, example)
}

// ServerError creates a 500 Internal Server Error response template.
func ServerError(example interface{}) Response {
	return Status(http.StatusInternalServerError, example)
}

// WithHeaders returns a copy of r that expects the named response
// headers.  Their values are extracted by the client and written by
// the mock registry.
func (r Response) WithHeaders(names ...string) Response {
	r.headers = append(append([]string(nil), r.headers...), names...)
	return r
}

// AsText returns a copy of r whose body is delivered as a string
// rather than decoded as JSON.
func (r Response) AsText() Response {
	r.text = true
	return r
}

// StatusCode returns the HTTP status this template matches.
func (r Response) StatusCode() int { return r.status }

// Headers returns the expected response header names.
func (r Response) Headers() []string {
	return append([]string(nil), r.headers...)
}

// Type returns the payload type, or nil if undeclared.
func (r Response) Type() reflect.Type { return r.valueType }

// Text reports whether the body is delivered as a string.
func (r Response) Text() bool { return r.text }
