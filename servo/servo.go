// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package servo describes an HTTP API once, as an immutable tree of
// nodes, so that several independent interpreters can derive things
// from it.  The paths package derives route strings and cache keys,
// restclient derives functions that issue requests, and restmock
// derives functions that install canned responses in a test registry.
//
// A description is usually assembled with the builder:
//
//     api := servo.Header("x-api-key").Any(
//         servo.Path("images").Query("limit", 0).Get(servo.OK([]Cat{})),
//         servo.Path("favourites").Any(
//             servo.Get(servo.OK([]Favourite{})),
//             servo.Capture("favouriteId").Delete(servo.OK(nil)),
//         ),
//     ).MustNode()
//
// Every leaf of the tree is a Method.  Or and Any nodes introduce
// branches; every other node has exactly one child.  Interpreters walk
// the tree depth first and produce a Tree[L] whose nesting mirrors it.
//
// Go cannot infer the argument and return types of the derived
// functions from the builder chain, so the shape of a derived tree is
// checked at run time instead: applying the wrong kind of value, or
// indexing a branch that is not there, yields an ErrShape.
package servo

import (
	"net/http"
	"reflect"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	// MethodKind is a terminal naming an HTTP verb.
	MethodKind Kind = iota

	// PathKind adds a fixed path segment.
	PathKind

	// CaptureKind adds a path segment supplied by the caller.
	CaptureKind

	// HeaderKind requires a request header.
	HeaderKind

	// QueryKind adds a query parameter.
	QueryKind

	// BodyKind adds a request body.
	BodyKind

	// OrKind chooses between two sub-APIs.
	OrKind

	// AnyKind chooses between any number of sub-APIs.
	AnyKind
)

var kindNames = map[Kind]string{
	MethodKind:  "method",
	PathKind:    "path",
	CaptureKind: "capture",
	HeaderKind:  "header",
	QueryKind:   "query",
	BodyKind:    "body",
	OrKind:      "or",
	AnyKind:     "any",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Node is one element of an API description.  The set of node types
// is closed: it is exactly the pointer types in this package.
type Node interface {
	// Kind returns the variant tag of the node.
	Kind() Kind

	node()
}

// Encoding says how a request body value is put on the wire.
type Encoding int

const (
	// None sends the body value unchanged and sets no content
	// type unless the value carries one.
	None Encoding = iota

	// JSON serializes the body value as JSON.
	JSON

	// Raw sends the body value unchanged as
	// application/octet-stream.
	Raw
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "json"
	case Raw:
		return "raw"
	default:
		return "none"
	}
}

// Verbs lists the HTTP methods a Method node may carry.
var Verbs = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// MethodNode is a terminal node: an HTTP verb and the responses it may
// produce.
type MethodNode struct {
	verb      string
	responses []Response
}

// NewMethodNode creates a terminal node.  Declaring two responses with
// the same status code returns ErrDuplicateStatus.
func NewMethodNode(verb string, responses ...Response) (*MethodNode, error) {
	seen := make(map[int]bool)
	for _, r := range responses {
		if seen[r.status] {
			return nil, &ErrDuplicateStatus{Verb: verb, Status: r.status}
		}
		seen[r.status] = true
	}
	return &MethodNode{
		verb:      verb,
		responses: append([]Response(nil), responses...),
	}, nil
}

// Kind returns MethodKind.
func (m *MethodNode) Kind() Kind { return MethodKind }
func (m *MethodNode) node()      {}

// Verb returns the HTTP method, e.g. "GET".
func (m *MethodNode) Verb() string { return m.verb }

// Responses returns a copy of the declared response templates, in
// declaration order.
func (m *MethodNode) Responses() []Response {
	return append([]Response(nil), m.responses...)
}

// Match finds the response template for an HTTP status code.
func (m *MethodNode) Match(status int) (Response, bool) {
	for _, r := range m.responses {
		if r.status == status {
			return r, true
		}
	}
	return Response{}, false
}

// PathNode is a fixed path segment.
type PathNode struct {
	segment string
	next    Node
}

// NewPathNode creates a fixed path segment node.
func NewPathNode(segment string, next Node) *PathNode {
	return &PathNode{segment: segment, next: next}
}

// Kind returns PathKind.
func (p *PathNode) Kind() Kind { return PathKind }
func (p *PathNode) node()      {}

// Segment returns the literal path segment, without slashes.
func (p *PathNode) Segment() string { return p.segment }

// Next returns the child node.
func (p *PathNode) Next() Node { return p.next }

// CaptureNode is a path segment whose value is supplied when a derived
// artifact is used, not when the API is described.
type CaptureNode struct {
	name string
	next Node
}

// NewCaptureNode creates a named path placeholder.
func NewCaptureNode(name string, next Node) *CaptureNode {
	return &CaptureNode{name: name, next: next}
}

// Kind returns CaptureKind.
func (c *CaptureNode) Kind() Kind { return CaptureKind }
func (c *CaptureNode) node()      {}

// Name returns the placeholder name.
func (c *CaptureNode) Name() string { return c.name }

// Next returns the child node.
func (c *CaptureNode) Next() Node { return c.next }

// HeaderNode is a required request header.
type HeaderNode struct {
	name string
	next Node
}

// NewHeaderNode creates a required header node.
func NewHeaderNode(name string, next Node) *HeaderNode {
	return &HeaderNode{name: name, next: next}
}

// Kind returns HeaderKind.
func (h *HeaderNode) Kind() Kind { return HeaderKind }
func (h *HeaderNode) node()      {}

// Name returns the header name.
func (h *HeaderNode) Name() string { return h.name }

// Next returns the child node.
func (h *HeaderNode) Next() Node { return h.next }

// QueryNode is a query string parameter.
type QueryNode struct {
	name      string
	valueType reflect.Type
	next      Node
}

// NewQueryNode creates a query parameter node.  example is any value of
// the parameter's type; nil leaves the type unchecked.
func NewQueryNode(name string, example interface{}, next Node) *QueryNode {
	return &QueryNode{name: name, valueType: typeOf(example), next: next}
}

// Kind returns QueryKind.
func (q *QueryNode) Kind() Kind { return QueryKind }
func (q *QueryNode) node()      {}

// Name returns the parameter name.
func (q *QueryNode) Name() string { return q.name }

// Type returns the declared value type, or nil.
func (q *QueryNode) Type() reflect.Type { return q.valueType }

// Next returns the child node.
func (q *QueryNode) Next() Node { return q.next }

// BodyNode is a request body.
type BodyNode struct {
	encoding  Encoding
	valueType reflect.Type
	next      Node
}

// NewBodyNode creates a request body node.  example is any value of the
// body's type; nil leaves the type unchecked.
func NewBodyNode(encoding Encoding, example interface{}, next Node) *BodyNode {
	return &BodyNode{encoding: encoding, valueType: typeOf(example), next: next}
}

// Kind returns BodyKind.
func (b *BodyNode) Kind() Kind { return BodyKind }
func (b *BodyNode) node()      {}

// Encoding returns the wire encoding of the body.
func (b *BodyNode) Encoding() Encoding { return b.encoding }

// Type returns the declared value type, or nil.
func (b *BodyNode) Type() reflect.Type { return b.valueType }

// Next returns the child node.
func (b *BodyNode) Next() Node { return b.next }

// OrNode addresses exactly one of two sub-APIs.  Which one is decided by
// the user of a derived artifact, not at run time.
type OrNode struct {
	left, right Node
}

// NewOrNode creates a two-way choice.
func NewOrNode(left, right Node) *OrNode {
	return &OrNode{left: left, right: right}
}

// Kind returns OrKind.
func (o *OrNode) Kind() Kind { return OrKind }
func (o *OrNode) node()      {}

// Left returns the first alternative.
func (o *OrNode) Left() Node { return o.left }

// Right returns the second alternative.
func (o *OrNode) Right() Node { return o.right }

// AnyNode is the n-way generalization of Or.
type AnyNode struct {
	alternatives []Node
}

// NewAnyNode creates an n-way choice.  Order is significant.
func NewAnyNode(alternatives ...Node) *AnyNode {
	return &AnyNode{alternatives: append([]Node(nil), alternatives...)}
}

// Kind returns AnyKind.
func (a *AnyNode) Kind() Kind { return AnyKind }
func (a *AnyNode) node()      {}

// Alternatives returns a copy of the alternatives in order.
func (a *AnyNode) Alternatives() []Node {
	return append([]Node(nil), a.alternatives...)
}

// Children returns the nodes directly below n, in traversal order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *PathNode:
		return []Node{n.next}
	case *CaptureNode:
		return []Node{n.next}
	case *HeaderNode:
		return []Node{n.next}
	case *QueryNode:
		return []Node{n.next}
	case *BodyNode:
		return []Node{n.next}
	case *OrNode:
		return []Node{n.left, n.right}
	case *AnyNode:
		return n.Alternatives()
	}
	return nil
}

// Walk visits n and its descendants depth first, children of Or and
// Any in order.  If visit returns an error the walk stops and returns
// it.
func Walk(n Node, visit func(Node) error) error {
	if err := visit(n); err != nil {
		return err
	}
	for _, child := range Children(n) {
		if err := Walk(child, visit); err != nil {
			return err
		}
	}
	return nil
}

// ParamName returns the name a caller uses to supply the value of a
// parameter node: the capture, header or query name, or "body".
func ParamName(n Node) string {
	switch n := n.(type) {
	case *CaptureNode:
		return n.name
	case *HeaderNode:
		return n.name
	case *QueryNode:
		return n.name
	case *BodyNode:
		return "body"
	}
	return ""
}

func typeOf(example interface{}) reflect.Type {
	if example == nil {
		return nil
	}
	return reflect.TypeOf(example)
}
