// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restmock derives mock installers from an API description.
//
// Derive walks the description exactly as restclient.Derive does for
// paths and captures; header, query and body nodes are skipped, since
// the mock answers whatever is sent.  Each terminal becomes an
// *Endpoint whose Respond method installs canned responses in a
// Registry:
//
//     registry := restmock.NewRegistry()
//     mocks := restmock.Derive(api, base, registry)
//     endpoint, err := mocks.Index(0).Leaf()
//     _, err = endpoint.Respond(restmock.OK(cats))
//
// A derived client pointed at the registry, either through an
// httptest.Server or directly as its Executor, then gets those
// responses.
package restmock

import (
	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/servo"
)

// Endpoint is a terminal of a derived mock tree.
type Endpoint struct {
	// Route is the verb and concrete path requests must use.
	Route paths.Route

	// Method is the terminal node of the description.
	Method *servo.MethodNode

	registry *Registry
}

// Respond installs a mock serving canned in order, the last one
// forever.  Every canned status must be declared by the endpoint; if
// one is not, nothing is installed and an *ErrCannotMock is returned.
func (e *Endpoint) Respond(canned ...Canned) (*Mock, error) {
	if len(canned) == 0 {
		return nil, &ErrCannotMock{Route: e.Route}
	}
	for _, c := range canned {
		if _, ok := e.Method.Match(c.Status); !ok {
			return nil, &ErrCannotMock{Route: e.Route, Status: c.Status}
		}
	}
	m := newMock(e.Route, e.Method, e.registry, canned)
	e.registry.Install(m)
	return m, nil
}

// Derive produces the mock tree of a description.  base is prepended
// to every path; it may be a full URL, but only its path is matched.
func Derive(node servo.Node, base string, registry *Registry) servo.Tree[*Endpoint] {
	switch n := node.(type) {
	case *servo.MethodNode:
		return servo.NewLeaf(&Endpoint{
			Route:    paths.Route{Verb: n.Verb(), Path: base},
			Method:   n,
			registry: registry,
		})
	case *servo.PathNode:
		return Derive(n.Next(), base+"/"+n.Segment(), registry)
	case *servo.CaptureNode:
		return servo.NewFunc(n, func(v interface{}) (servo.Tree[*Endpoint], error) {
			value, err := paths.CaptureValue(n, v)
			if err != nil {
				return servo.Tree[*Endpoint]{}, err
			}
			return Derive(n.Next(), base+"/"+paths.Escape(value), registry), nil
		})
	case *servo.HeaderNode, *servo.QueryNode, *servo.BodyNode:
		return Derive(servo.Children(n)[0], base, registry)
	case *servo.OrNode:
		return servo.NewBranch(Derive(n.Left(), base, registry), Derive(n.Right(), base, registry))
	case *servo.AnyNode:
		var items []servo.Tree[*Endpoint]
		for _, alt := range n.Alternatives() {
			items = append(items, Derive(alt, base, registry))
		}
		return servo.NewBranch(items...)
	}
	return servo.Failed[*Endpoint](&servo.ErrShape{Op: "derive a mock", Want: "an unknown node"})
}
