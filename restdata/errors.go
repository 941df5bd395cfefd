// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorStatus describes errors that correspond to specific HTTP status
// codes.
type ErrorStatus interface {
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrUnsupportedMediaType is returned from Decode() if the provided
// Content-Type: is unrecognized.  This translates directly into the
// equivalent HTTP 415 error.
type ErrUnsupportedMediaType struct {
	Type string
}

func (e ErrUnsupportedMediaType) Error() string {
	return fmt.Sprintf("Unsupported media type %q", e.Type)
}

// HTTPStatus returns a fixed 415 Unsupported Media Type error code.
func (e ErrUnsupportedMediaType) HTTPStatus() int {
	return http.StatusUnsupportedMediaType
}

// ErrNotFound is a wrapper error that indicates that, due to the
// embedded error, a REST service should return a 404 Not Found error.
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 404 Not Found error code.
func (e ErrNotFound) HTTPStatus() int {
	return http.StatusNotFound
}

// ErrBadRequest is returned as an error when there is an error decoding
// HTTP headers or the request body.
type ErrBadRequest struct {
	Err error
}

func (e ErrBadRequest) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 400 Bad Request HTTP status code.
func (e ErrBadRequest) HTTPStatus() int {
	return http.StatusBadRequest
}

// StatusOf returns the HTTP status for an error: its own if it
// implements ErrorStatus, or 500 Internal Server Error.
func StatusOf(err error) int {
	var status ErrorStatus
	if errors.As(err, &status) {
		return status.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// FromError populates an ErrorResponse to fill in its fields based
// on an error value.  The wrapper errors in this package are named
// in e.Error; anything else is "error".
func (e *ErrorResponse) FromError(err error) {
	e.Message = err.Error()
	switch et := err.(type) {
	case ErrNotFound:
		e.Error = "ErrNotFound"
	case ErrBadRequest:
		e.Error = "ErrBadRequest"
	case ErrUnsupportedMediaType:
		e.Error = "ErrUnsupportedMediaType"
		e.Value = et.Type
	default:
		e.Error = "error"
	}
}

// ToError converts e back to an error.  The wrapper errors in this
// package are reconstructed around a plain error with e.Message text;
// anything else is returned as the plain error.
func (e *ErrorResponse) ToError() error {
	plain := errors.New(e.Message)
	switch e.Error {
	case "ErrNotFound":
		return ErrNotFound{Err: plain}
	case "ErrBadRequest":
		return ErrBadRequest{Err: plain}
	case "ErrUnsupportedMediaType":
		return ErrUnsupportedMediaType{Type: e.Value}
	default:
		return plain
	}
}

// FromPanic populates an error response based on a panic.  Typical use
// is:
//
//     defer func() {
//         if obj := recover(); obj != nil {
//             resp := restdata.ErrorResponse{}
//             resp.FromPanic(obj)
//             // write resp out as makes sense
//         }
//    }
func (e *ErrorResponse) FromPanic(obj interface{}) {
	e.Error = "panic"
	if recoveredError, isError := obj.(error); isError {
		e.Message = recoveredError.Error()
	} else {
		e.Message = fmt.Sprintf("%+v", obj)
	}
	var stack [4096]byte
	len := runtime.Stack(stack[:], false)
	e.Stack = string(stack[:len])
}
