// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package servo

import (
	"fmt"
	"reflect"
	"strings"
)

type treeKind int

const (
	leafTree treeKind = iota + 1
	funcTree
	branchTree
)

// Tree is the result of deriving something from a description.  Its
// shape mirrors the description: each Method becomes a leaf holding
// an L, each Or or Any becomes a branch, and each node that needs a
// value from the caller becomes a function that must be applied
// before going further.  Which nodes need values depends on the
// deriver; the path deriver only asks for captures, while the client
// also asks for headers, query parameters and bodies.
//
// Trees are immutable.  Using a tree in a way that does not match its
// shape produces a tree carrying an error, and every later operation
// on it returns that same error, so a chain of calls needs only one
// check at the end:
//
//     call, err := client.Index(1).Index(1).Capture("42").Leaf()
type Tree[L any] struct {
	kind  treeKind
	leaf  L
	param Node
	apply func(interface{}) (Tree[L], error)
	items []Tree[L]
	err   error
}

// NewLeaf creates a leaf tree.
func NewLeaf[L any](leaf L) Tree[L] {
	return Tree[L]{kind: leafTree, leaf: leaf}
}

// NewFunc creates a function tree.  param is the node that asks for
// the value; apply is called with the value supplied by the caller.
func NewFunc[L any](param Node, apply func(interface{}) (Tree[L], error)) Tree[L] {
	return Tree[L]{kind: funcTree, param: param, apply: apply}
}

// NewBranch creates a branch tree with children in order.
func NewBranch[L any](items ...Tree[L]) Tree[L] {
	return Tree[L]{kind: branchTree, items: append([]Tree[L](nil), items...)}
}

// Failed creates a tree that reports err from every operation.
func Failed[L any](err error) Tree[L] {
	return Tree[L]{err: err}
}

// Err returns the error carried by t, if any.
func (t Tree[L]) Err() error {
	if t.err != nil {
		return t.err
	}
	if t.kind == 0 {
		return &ErrShape{Op: "use tree", Want: "nothing"}
	}
	return nil
}

// IsLeaf reports whether t is a leaf.
func (t Tree[L]) IsLeaf() bool { return t.err == nil && t.kind == leafTree }

// IsFunc reports whether t needs a value applied.
func (t Tree[L]) IsFunc() bool { return t.err == nil && t.kind == funcTree }

// IsBranch reports whether t is a branch.
func (t Tree[L]) IsBranch() bool { return t.err == nil && t.kind == branchTree }

// Len returns the number of children of a branch, or 0.
func (t Tree[L]) Len() int {
	if !t.IsBranch() {
		return 0
	}
	return len(t.items)
}

// Param returns the node a function tree asks a value for, or nil.
func (t Tree[L]) Param() Node {
	if !t.IsFunc() {
		return nil
	}
	return t.param
}

func (t Tree[L]) describe() string {
	switch {
	case t.err != nil:
		return "error"
	case t.kind == leafTree:
		return "leaf"
	case t.kind == branchTree:
		return fmt.Sprintf("branch of %d", len(t.items))
	case t.kind == funcTree:
		return fmt.Sprintf("%v %q", t.param.Kind(), ParamName(t.param))
	}
	return "nothing"
}

func (t Tree[L]) fail(op, detail string) Tree[L] {
	return Failed[L](&ErrShape{Op: op, Want: t.describe(), Detail: detail})
}

// Index selects child i of a branch.
func (t Tree[L]) Index(i int) Tree[L] {
	if err := t.Err(); err != nil {
		return Failed[L](err)
	}
	if t.kind != branchTree {
		return t.fail(fmt.Sprintf("select branch %d", i), "")
	}
	if i < 0 || i >= len(t.items) {
		return t.fail(fmt.Sprintf("select branch %d", i), "out of range")
	}
	return t.items[i]
}

// Apply supplies the value for a function tree of any kind.
func (t Tree[L]) Apply(value interface{}) Tree[L] {
	if err := t.Err(); err != nil {
		return Failed[L](err)
	}
	if t.kind != funcTree {
		return t.fail("apply a value", "")
	}
	next, err := t.apply(value)
	if err != nil {
		return Failed[L](err)
	}
	return next
}

func (t Tree[L]) expect(kind Kind, value interface{}) Tree[L] {
	if err := t.Err(); err != nil {
		return Failed[L](err)
	}
	if t.kind != funcTree || t.param.Kind() != kind {
		return t.fail("supply a "+kind.String(), "")
	}
	return t.Apply(value)
}

// Capture supplies a path placeholder value.
func (t Tree[L]) Capture(value string) Tree[L] {
	return t.expect(CaptureKind, value)
}

// Header supplies a request header value.
func (t Tree[L]) Header(value string) Tree[L] {
	return t.expect(HeaderKind, value)
}

// Query supplies a query parameter value.
func (t Tree[L]) Query(value interface{}) Tree[L] {
	return t.expect(QueryKind, value)
}

// Body supplies a request body.
func (t Tree[L]) Body(value interface{}) Tree[L] {
	return t.expect(BodyKind, value)
}

// With applies values to consecutive function trees by parameter name
// (see ParamName), stopping at the first function whose name is not
// in vars, or at a leaf or branch.
func (t Tree[L]) With(vars map[string]interface{}) Tree[L] {
	for t.IsFunc() {
		value, ok := vars[ParamName(t.param)]
		if !ok {
			break
		}
		t = t.Apply(value)
	}
	return t
}

// Select walks from t to a leaf, taking branch positions in order and
// applying named values from vars to every function on the way.
func (t Tree[L]) Select(positions []int, vars map[string]interface{}) Tree[L] {
	for {
		t = t.With(vars)
		switch {
		case t.Err() != nil:
			return t
		case t.IsLeaf():
			if len(positions) > 0 {
				return t.fail("select more branches", fmt.Sprintf("%d positions left", len(positions)))
			}
			return t
		case t.IsFunc():
			return t.fail("select", "no value for "+ParamName(t.param))
		}
		if len(positions) == 0 {
			return t.fail("select", "no position for branch")
		}
		t = t.Index(positions[0])
		positions = positions[1:]
	}
}

// Leaf returns the value of a leaf tree.
func (t Tree[L]) Leaf() (L, error) {
	var zero L
	if err := t.Err(); err != nil {
		return zero, err
	}
	if t.kind != leafTree {
		return zero, &ErrShape{Op: "get a leaf", Want: t.describe()}
	}
	return t.leaf, nil
}

// Signature renders the shape of t: leaves as "leaf", branches as a
// bracketed list, and functions as "kind(name) -> rest".  Functions
// are applied to sample values to discover the rest of the shape.
// Functions whose parameter kind is listed in omit are applied but
// not rendered, which lets trees from derivers that ask for different
// parameters be compared.
func (t Tree[L]) Signature(omit ...Kind) string {
	switch {
	case t.Err() != nil:
		return "error(" + t.Err().Error() + ")"
	case t.kind == leafTree:
		return "leaf"
	case t.kind == branchTree:
		parts := make([]string, len(t.items))
		for i, item := range t.items {
			parts[i] = item.Signature(omit...)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	rest := t.Apply(Sample(t.param)).Signature(omit...)
	for _, kind := range omit {
		if t.param.Kind() == kind {
			return rest
		}
	}
	return fmt.Sprintf("%v(%s) -> %s", t.param.Kind(), ParamName(t.param), rest)
}

// Sample returns a placeholder value acceptable to a parameter node:
// the parameter name for captures and headers, and the zero value of
// the declared type for query parameters and bodies.
func Sample(param Node) interface{} {
	switch param := param.(type) {
	case *CaptureNode:
		return param.name
	case *HeaderNode:
		return param.name
	case *QueryNode:
		if param.valueType != nil {
			return reflect.Zero(param.valueType).Interface()
		}
		return param.name
	case *BodyNode:
		if param.valueType != nil {
			return reflect.Zero(param.valueType).Interface()
		}
		if param.encoding == JSON {
			return map[string]interface{}{}
		}
		return []byte{}
	}
	return nil
}
