// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package servo

// This file provides the fluent builder.  A Builder is an open prefix
// of a description ("everything above the node still to be chosen");
// a Leaf is a closed subtree.  Builders are values and never change:
// every method returns a new one, so a common prefix can be shared.

import "net/http"

// Builder assembles a description one node at a time.
type Builder struct {
	// wrap places a finished subtree beneath this prefix.  nil is
	// the identity.
	wrap func(Node) Node
}

// Leaf is a closed description.  Construction errors are carried
// along and reported by Node.
type Leaf struct {
	node Node
	err  error
}

// Empty returns a Builder with no prefix.
func Empty() Builder {
	return Builder{}
}

func (b Builder) close(n Node) Node {
	if b.wrap == nil {
		return n
	}
	return b.wrap(n)
}

func (b Builder) extend(f func(Node) Node) Builder {
	outer := b
	return Builder{wrap: func(n Node) Node {
		return outer.close(f(n))
	}}
}

// Path appends a fixed path segment.
func (b Builder) Path(segment string) Builder {
	return b.extend(func(n Node) Node { return NewPathNode(segment, n) })
}

// Capture appends a named path placeholder.
func (b Builder) Capture(name string) Builder {
	return b.extend(func(n Node) Node { return NewCaptureNode(name, n) })
}

// Header requires a request header.
func (b Builder) Header(name string) Builder {
	return b.extend(func(n Node) Node { return NewHeaderNode(name, n) })
}

// Query adds a query parameter.  example is a value of the
// parameter's type, or nil.
func (b Builder) Query(name string, example interface{}) Builder {
	return b.extend(func(n Node) Node { return NewQueryNode(name, example, n) })
}

// Body adds a request body.  example is a value of the body's type,
// or nil.
func (b Builder) Body(encoding Encoding, example interface{}) Builder {
	return b.extend(func(n Node) Node { return NewBodyNode(encoding, example, n) })
}

// Method closes the prefix with an arbitrary verb.
func (b Builder) Method(verb string, responses ...Response) Leaf {
	m, err := NewMethodNode(verb, responses...)
	if err != nil {
		return Leaf{err: err}
	}
	return Leaf{node: b.close(m)}
}

// Get closes the prefix with a GET terminal.
func (b Builder) Get(responses ...Response) Leaf {
	return b.Method(http.MethodGet, responses...)
}

// Post closes the prefix with a POST terminal.
func (b Builder) Post(responses ...Response) Leaf {
	return b.Method(http.MethodPost, responses...)
}

// Put closes the prefix with a PUT terminal.
func (b Builder) Put(responses ...Response) Leaf {
	return b.Method(http.MethodPut, responses...)
}

// Patch closes the prefix with a PATCH terminal.
func (b Builder) Patch(responses ...Response) Leaf {
	return b.Method(http.MethodPatch, responses...)
}

// Delete closes the prefix with a DELETE terminal.
func (b Builder) Delete(responses ...Response) Leaf {
	return b.Method(http.MethodDelete, responses...)
}

// Options closes the prefix with an OPTIONS terminal.
func (b Builder) Options(responses ...Response) Leaf {
	return b.Method(http.MethodOptions, responses...)
}

// Or closes the prefix with a choice between two descriptions.
func (b Builder) Or(left, right Leaf) Leaf {
	if err := firstError(left, right); err != nil {
		return Leaf{err: err}
	}
	return Leaf{node: b.close(NewOrNode(left.node, right.node))}
}

// Any closes the prefix with a choice between any number of
// descriptions.
func (b Builder) Any(leaves ...Leaf) Leaf {
	if err := firstError(leaves...); err != nil {
		return Leaf{err: err}
	}
	nodes := make([]Node, len(leaves))
	for i, leaf := range leaves {
		nodes[i] = leaf.node
	}
	return Leaf{node: b.close(NewAnyNode(nodes...))}
}

// Node returns the finished description, or the first error
// encountered while building it.
func (l Leaf) Node() (Node, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.node, nil
}

// MustNode is like Node but panics on error.  It is intended for
// descriptions built once at program start.
func (l Leaf) MustNode() Node {
	n, err := l.Node()
	if err != nil {
		panic(err)
	}
	return n
}

// Err returns the construction error, if any.
func (l Leaf) Err() error {
	return l.err
}

func firstError(leaves ...Leaf) error {
	for _, leaf := range leaves {
		if leaf.err != nil {
			return leaf.err
		}
	}
	return nil
}

// Path starts a description with a fixed path segment.
func Path(segment string) Builder { return Empty().Path(segment) }

// Capture starts a description with a named path placeholder.
func Capture(name string) Builder { return Empty().Capture(name) }

// Header starts a description with a required header.
func Header(name string) Builder { return Empty().Header(name) }

// Query starts a description with a query parameter.
func Query(name string, example interface{}) Builder { return Empty().Query(name, example) }

// Body starts a description with a request body.
func Body(encoding Encoding, example interface{}) Builder {
	return Empty().Body(encoding, example)
}

// Get is a bare GET terminal.
func Get(responses ...Response) Leaf { return Empty().Get(responses...) }

// Post is a bare POST terminal.
func Post(responses ...Response) Leaf { return Empty().Post(responses...) }

// Put is a bare PUT terminal.
func Put(responses ...Response) Leaf { return Empty().Put(responses...) }

// Patch is a bare PATCH terminal.
func Patch(responses ...Response) Leaf { return Empty().Patch(responses...) }

// Delete is a bare DELETE terminal.
func Delete(responses ...Response) Leaf { return Empty().Delete(responses...) }

// Options is a bare OPTIONS terminal.
func Options(responses ...Response) Leaf { return Empty().Options(responses...) }

// Or is a bare choice between two descriptions.
func Or(left, right Leaf) Leaf { return Empty().Or(left, right) }

// Any is a bare choice between any number of descriptions.
func Any(leaves ...Leaf) Leaf { return Empty().Any(leaves...) }
