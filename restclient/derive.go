// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restclient derives an HTTP client from an API description.
//
// Derive walks the description the same way paths.Derive does, but
// every capture, header, query parameter and body becomes a function
// that records its value in an Accumulator, and every terminal becomes
// a *Call that issues the accumulated request:
//
//     client := restclient.Derive(api, restclient.NewAccumulator(base), exec)
//     resp, err := restclient.Do(ctx, client.Header(key).Index(0).Query(100))
//
// Each Call owns its own snapshot of the request, so calls derived
// from the same tree may run concurrently.
package restclient

import (
	"encoding"
	"fmt"
	"io"
	"io/ioutil"
	"reflect"

	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
)

// Payload is a raw body with its own content type, such as one part
// of a multipart upload.
type Payload struct {
	ContentType string
	Data        []byte
}

// Derive produces the client tree of a description.  acc is the
// request every call starts from; exec runs the finished requests.
func Derive(node servo.Node, acc Accumulator, exec Executor) servo.Tree[*Call] {
	switch n := node.(type) {
	case *servo.MethodNode:
		return servo.NewLeaf(&Call{
			Method:   n,
			Request:  Request{Method: n.Verb(), Accumulator: acc.clone()},
			executor: exec,
		})

	case *servo.PathNode:
		return Derive(n.Next(), acc.WithSegment(n.Segment()), exec)

	case *servo.CaptureNode:
		return servo.NewFunc(n, func(v interface{}) (servo.Tree[*Call], error) {
			value, err := paths.CaptureValue(n, v)
			if err != nil {
				return servo.Tree[*Call]{}, err
			}
			return Derive(n.Next(), acc.WithSegment(paths.Escape(value)), exec), nil
		})

	case *servo.HeaderNode:
		return servo.NewFunc(n, func(v interface{}) (servo.Tree[*Call], error) {
			value, err := Stringify(v)
			if err != nil {
				return servo.Tree[*Call]{}, err
			}
			return Derive(n.Next(), acc.WithHeader(n.Name(), value), exec), nil
		})

	case *servo.QueryNode:
		return servo.NewFunc(n, func(v interface{}) (servo.Tree[*Call], error) {
			if err := servo.CheckValue(n, n.Type(), v); err != nil {
				return servo.Tree[*Call]{}, err
			}
			value, err := Stringify(v)
			if err != nil {
				return servo.Tree[*Call]{}, err
			}
			return Derive(n.Next(), acc.WithQuery(n.Name(), value), exec), nil
		})

	case *servo.BodyNode:
		return servo.NewFunc(n, func(v interface{}) (servo.Tree[*Call], error) {
			if err := servo.CheckValue(n, n.Type(), v); err != nil {
				return servo.Tree[*Call]{}, err
			}
			body, contentType, err := EncodeBody(n.Encoding(), v)
			if err != nil {
				return servo.Tree[*Call]{}, err
			}
			return Derive(n.Next(), acc.WithBody(body, contentType), exec), nil
		})

	case *servo.OrNode:
		return servo.NewBranch(Derive(n.Left(), acc, exec), Derive(n.Right(), acc, exec))

	case *servo.AnyNode:
		alternatives := n.Alternatives()
		items := make([]servo.Tree[*Call], len(alternatives))
		for i, alt := range alternatives {
			items[i] = Derive(alt, acc, exec)
		}
		return servo.NewBranch(items...)
	}
	return servo.Failed[*Call](&servo.ErrShape{Op: "derive a client", Want: "an unknown node"})
}

// Stringify converts a header or query value to its string form.
// Strings are used as is; otherwise encoding.TextMarshaler and
// fmt.Stringer are tried in turn before falling back to fmt.Sprint.
func Stringify(v interface{}) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", fmt.Errorf("cannot send a nil parameter value")
	case string:
		return v, nil
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		return string(text), err
	case fmt.Stringer:
		return v.String(), nil
	}
	return fmt.Sprint(v), nil
}

// EncodeBody puts a body value on the wire.  JSON bodies are encoded
// with the codec library.  Raw and unencoded bodies may be a []byte, a
// string, an io.Reader or a Payload; raw bodies default to
// application/octet-stream, and unencoded ones to no content type.
func EncodeBody(enc servo.Encoding, v interface{}) ([]byte, string, error) {
	if enc == servo.JSON {
		body, err := restdata.EncodeJSON(v)
		return body, restdata.JSONMediaType, err
	}
	contentType := ""
	if enc == servo.Raw {
		contentType = restdata.OctetStreamMediaType
	}
	switch v := v.(type) {
	case []byte:
		return v, contentType, nil
	case string:
		return []byte(v), contentType, nil
	case io.Reader:
		body, err := ioutil.ReadAll(v)
		return body, contentType, err
	case Payload:
		if v.ContentType != "" {
			contentType = v.ContentType
		}
		return v.Data, contentType, nil
	case *Payload:
		if v.ContentType != "" {
			contentType = v.ContentType
		}
		return v.Data, contentType, nil
	}
	return nil, "", fmt.Errorf("cannot send %v as a %v body", reflect.TypeOf(v), enc)
}
