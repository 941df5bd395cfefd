// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restdata holds the wire conventions shared by the derived
// client in restclient and the mock registry in restmock.
//
// Bodies
//
// Request and response bodies declared with JSON encoding are sent as
// application/json and encoded with the ugorji codec library.  Struct
// fields are named by their "json" tags, so the same Go types can be
// used with encoding/json elsewhere.  Bodies declared as raw are sent
// as application/octet-stream unless the caller supplies a content
// type.  Response templates marked as text are delivered as strings.
//
// Errors
//
// The mock registry returns its own failures, such as a request for
// which nothing is installed or a panic while serving, as encodings
// of the ErrorResponse type with a failing HTTP status.  Errors that
// carry an HTTP status implement ErrorStatus.
package restdata

// JSONMediaType is the MIME type of JSON bodies.
const JSONMediaType = "application/json"

// TextMediaType is the MIME type of plain text bodies.
const TextMediaType = "text/plain; charset=utf-8"

// OctetStreamMediaType is the MIME type of raw bodies without a
// more specific type.
const OctetStreamMediaType = "application/octet-stream"

// ErrorResponse can be a response to any request the mock registry
// could not serve, generally accompanied by a failing HTTP status code.
type ErrorResponse struct {
	// Error is a short description of the failure.  This is the
	// name of one of the error types in this package, the string
	// "panic", or the string "error" for some other kind of
	// error.
	Error string `json:"error"`

	// Message is a human-readable description of the failure.
	Message string `json:"message"`

	// Value is an extra parameter to the error if applicable,
	// such as the rejected media type.
	Value string `json:"value,omitempty"`

	// Stack holds a formatted backtrace, if the request failed
	// due to a panic.
	Stack string `json:"stack,omitempty"`
}
