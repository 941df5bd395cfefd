// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package paths derives route strings, cache keys and endpoint tables
// from an API description.
//
// Derive mirrors the description: path segments are appended to the
// accumulated path, captures become functions that must be given the
// segment value, header, query and body nodes are skipped, and every
// Or or Any becomes a branch.  Each terminal yields a Route.
//
//     routes := paths.Derive(api, "")
//     route, err := routes.Index(0).Index(1).Capture("42").Leaf()
//     // route.String() == "DELETE /favourites/42"
package paths

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/diffeo/go-servo/servo"
)

var stringType = reflect.TypeOf("")

// Escape encodes a capture value as a single path segment.  Every
// deriver uses it, so a client request and a mock installed for the
// same capture values agree on the path.
func Escape(value string) string {
	return url.PathEscape(value)
}

// CaptureValue checks that a value applied to a capture is a string
// and returns it.
func CaptureValue(param servo.Node, value interface{}) (string, error) {
	if err := servo.CheckValue(param, stringType, value); err != nil {
		return "", err
	}
	return value.(string), nil
}

// Route is a concrete verb and path.
type Route struct {
	Verb string
	Path string
}

// String returns the route as "VERB path".
func (r Route) String() string {
	return r.Verb + " " + r.Path
}

// Derive produces the route tree of a description.  base is prepended
// to every path; it is usually empty or an API root URL.
func Derive(node servo.Node, base string) servo.Tree[Route] {
	switch n := node.(type) {
	case *servo.MethodNode:
		return servo.NewLeaf(Route{Verb: n.Verb(), Path: base})
	case *servo.PathNode:
		return Derive(n.Next(), base+"/"+n.Segment())
	case *servo.CaptureNode:
		return servo.NewFunc(n, func(v interface{}) (servo.Tree[Route], error) {
			value, err := CaptureValue(n, v)
			if err != nil {
				return servo.Tree[Route]{}, err
			}
			return Derive(n.Next(), base+"/"+Escape(value)), nil
		})
	case *servo.OrNode:
		return servo.NewBranch(Derive(n.Left(), base), Derive(n.Right(), base))
	case *servo.AnyNode:
		alternatives := n.Alternatives()
		items := make([]servo.Tree[Route], len(alternatives))
		for i, alt := range alternatives {
			items[i] = Derive(alt, base)
		}
		return servo.NewBranch(items...)
	case *servo.HeaderNode, *servo.QueryNode, *servo.BodyNode:
		return Derive(servo.Children(n)[0], base)
	}
	return servo.Failed[Route](&servo.ErrShape{Op: "derive a route", Want: "an unknown node"})
}

// Key is a cache key: the path segments leading to an endpoint, with
// capture values in place of their placeholders.
type Key []string

// String joins the key with slashes.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether prefix is a leading part of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, s := range prefix {
		if k[i] != s {
			return false
		}
	}
	return true
}

// Keys produces the cache key tree of a description.  It has the same
// shape as the tree from Derive.
func Keys(node servo.Node) servo.Tree[Key] {
	return keys(node, nil)
}

func keys(node servo.Node, acc Key) servo.Tree[Key] {
	extend := func(s string) Key {
		return append(append(Key(nil), acc...), s)
	}
	switch n := node.(type) {
	case *servo.MethodNode:
		return servo.NewLeaf(append(Key{}, acc...))
	case *servo.PathNode:
		return keys(n.Next(), extend(n.Segment()))
	case *servo.CaptureNode:
		return servo.NewFunc(n, func(v interface{}) (servo.Tree[Key], error) {
			value, err := CaptureValue(n, v)
			if err != nil {
				return servo.Tree[Key]{}, err
			}
			return keys(n.Next(), extend(value)), nil
		})
	case *servo.OrNode:
		return servo.NewBranch(keys(n.Left(), acc), keys(n.Right(), acc))
	case *servo.AnyNode:
		var items []servo.Tree[Key]
		for _, alt := range n.Alternatives() {
			items = append(items, keys(alt, acc))
		}
		return servo.NewBranch(items...)
	case *servo.HeaderNode, *servo.QueryNode, *servo.BodyNode:
		return keys(servo.Children(n)[0], acc)
	}
	return servo.Failed[Key](&servo.ErrShape{Op: "derive a key", Want: "an unknown node"})
}
