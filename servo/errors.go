// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package servo

import (
	"fmt"
	"reflect"
)

// ErrDuplicateStatus is returned when a Method declares two response
// templates for the same status code.
type ErrDuplicateStatus struct {
	Verb   string
	Status int
}

func (e *ErrDuplicateStatus) Error() string {
	return fmt.Sprintf("%s declares status %d more than once", e.Verb, e.Status)
}

// ErrShape is returned when a derived Tree is used in a way that does
// not match the API description, such as supplying a header where a
// capture is expected or selecting a branch that does not exist.
type ErrShape struct {
	// Op is the operation that was attempted, e.g. "Capture".
	Op string

	// Want describes what the tree actually has at that point.
	Want string

	// Detail optionally explains further.
	Detail string
}

func (e *ErrShape) Error() string {
	msg := fmt.Sprintf("cannot %s here: tree has %s", e.Op, e.Want)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// ErrValue is returned when a value applied to a derived Tree does not
// have the type its parameter declares.
type ErrValue struct {
	// Param is the parameter node the value was applied to.
	Param Node

	// Want is the expected type and Got the supplied one.
	Want, Got reflect.Type
}

func (e *ErrValue) Error() string {
	got := "nil"
	if e.Got != nil {
		got = e.Got.String()
	}
	return fmt.Sprintf("%v %q wants %v, got %s", e.Param.Kind(), ParamName(e.Param), e.Want, got)
}

// CheckValue returns an ErrValue if value is not assignable to want.
// A nil want accepts anything, and a nil value is accepted wherever
// the type has a nil.
func CheckValue(param Node, want reflect.Type, value interface{}) error {
	if want == nil {
		return nil
	}
	got := typeOf(value)
	if got == nil {
		switch want.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
			return nil
		}
		return &ErrValue{Param: param, Want: want}
	}
	if !got.AssignableTo(want) {
		return &ErrValue{Param: param, Want: want, Got: got}
	}
	return nil
}
