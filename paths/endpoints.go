// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package paths

import (
	"fmt"
	"github.com/diffeo/go-servo/servo"
	"github.com/jtacoma/uritemplates"
	"strings"
)

// Endpoint is one terminal of a description, flattened: everything on
// the way from the root to a Method node, collected in one place.
type Endpoint struct {
	// Verb is the HTTP method.
	Verb string

	// Template is the path with each capture written as an RFC
	// 6570 "{name}" expression.
	Template string

	// Params are the capture, header, query and body nodes from
	// the root to the terminal, in order.
	Params []servo.Node

	// Method is the terminal node.
	Method *servo.MethodNode

	// Position lists the branch indexes taken from the root, so
	// that tree.Select(e.Position, vars) reaches this endpoint in
	// any tree derived from the same description.
	Position []int
}

// String returns "VERB template".
func (e Endpoint) String() string {
	return e.Verb + " " + e.Template
}

func (e Endpoint) names(kind servo.Kind) []string {
	var result []string
	for _, p := range e.Params {
		if p.Kind() == kind {
			result = append(result, servo.ParamName(p))
		}
	}
	return result
}

// Captures returns the capture names in path order.
func (e Endpoint) Captures() []string { return e.names(servo.CaptureKind) }

// Headers returns the required request header names.
func (e Endpoint) Headers() []string { return e.names(servo.HeaderKind) }

// Queries returns the query parameter nodes.
func (e Endpoint) Queries() []*servo.QueryNode {
	var result []*servo.QueryNode
	for _, p := range e.Params {
		if q, ok := p.(*servo.QueryNode); ok {
			result = append(result, q)
		}
	}
	return result
}

// Body returns the request body node, or nil.  If a description
// declares more than one, the last wins, as it does in the client.
func (e Endpoint) Body() *servo.BodyNode {
	var body *servo.BodyNode
	for _, p := range e.Params {
		if b, ok := p.(*servo.BodyNode); ok {
			body = b
		}
	}
	return body
}

// Expand fills in the captures of the template.  Every capture must
// have a value in vars; other entries are ignored.
func (e Endpoint) Expand(vars map[string]interface{}) (string, error) {
	tmpl, err := uritemplates.Parse(e.Template)
	if err != nil {
		return "", err
	}
	values := make(map[string]interface{})
	for _, name := range e.Captures() {
		v, present := vars[name]
		if !present {
			return "", fmt.Errorf("%v: no value for capture %q", e, name)
		}
		values[name] = fmt.Sprint(v)
	}
	return tmpl.Expand(values)
}

// Endpoints flattens a description into its terminals, in depth-first
// order.  base is prepended to every template.
func Endpoints(node servo.Node, base string) []Endpoint {
	var result []Endpoint
	collect(node, Endpoint{Template: base}, &result)
	return result
}

func collect(node servo.Node, acc Endpoint, result *[]Endpoint) {
	// Params and Position are copied on every extension so that
	// sibling branches do not share backing arrays.
	withParam := func(p servo.Node) Endpoint {
		next := acc
		next.Params = append(append([]servo.Node(nil), acc.Params...), p)
		return next
	}
	atPosition := func(i int) Endpoint {
		next := acc
		next.Position = append(append([]int(nil), acc.Position...), i)
		return next
	}
	switch n := node.(type) {
	case *servo.MethodNode:
		acc.Verb = n.Verb()
		acc.Method = n
		*result = append(*result, acc)
	case *servo.PathNode:
		acc.Template += "/" + n.Segment()
		collect(n.Next(), acc, result)
	case *servo.CaptureNode:
		next := withParam(n)
		next.Template += "/{" + n.Name() + "}"
		collect(n.Next(), next, result)
	case *servo.HeaderNode, *servo.QueryNode, *servo.BodyNode:
		collect(servo.Children(n)[0], withParam(n), result)
	case *servo.OrNode, *servo.AnyNode:
		for i, child := range servo.Children(n) {
			collect(child, atPosition(i), result)
		}
	}
}

// Find returns the endpoint named "VERB template", as produced by
// Endpoint.String.  Surrounding whitespace and the case of the verb
// are ignored.
func Find(endpoints []Endpoint, name string) (Endpoint, bool) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		name = strings.ToUpper(name[:i]) + " " + strings.TrimSpace(name[i+1:])
	}
	for _, e := range endpoints {
		if e.String() == name {
			return e, true
		}
	}
	return Endpoint{}, false
}
