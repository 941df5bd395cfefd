// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package openapi exports an API description as an OpenAPI 3
// document.  Each endpoint of the description becomes one operation;
// captures, headers and query parameters become parameters, a body
// becomes the request body, and every response template becomes a
// response with its payload schema and declared headers.
package openapi

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// Version is the OpenAPI version of exported documents.
const Version = "3.0.3"

// Export builds an OpenAPI document for node.  info is required by
// OpenAPI; if nil, a placeholder is used.
//
// OpenAPI allows one operation per verb and path.  If the description
// has several endpoints with the same verb and template, the first one
// is exported and the rest are skipped.
func Export(node servo.Node, info *openapi3.Info) (*openapi3.T, error) {
	if info == nil {
		info = &openapi3.Info{Title: "API", Version: "0.0.0"}
	}
	doc := &openapi3.T{
		OpenAPI: Version,
		Info:    info,
		Paths:   openapi3.NewPaths(),
	}
	for _, e := range paths.Endpoints(node, "") {
		template := e.Template
		if template == "" {
			template = "/"
		}
		item := doc.Paths.Value(template)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(template, item)
		}
		if item.GetOperation(e.Verb) != nil {
			continue
		}
		op, err := operation(e)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", e, err)
		}
		item.SetOperation(e.Verb, op)
	}
	return doc, nil
}

// OperationID names an endpoint, e.g. "deleteFavouritesByFavouriteId"
// for DELETE /favourites/{favouriteId}.
func OperationID(e paths.Endpoint) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(e.Verb))
	for _, segment := range strings.Split(e.Template, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			b.WriteString("By")
			segment = strings.Trim(segment, "{}")
		}
		b.WriteString(title(segment))
	}
	return b.String()
}

func title(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '.':
			upper = true
		case upper:
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func operation(e paths.Endpoint) (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	op.OperationID = OperationID(e)
	for _, p := range e.Params {
		switch p := p.(type) {
		case *servo.CaptureNode:
			op.AddParameter(openapi3.NewPathParameter(p.Name()).WithSchema(openapi3.NewStringSchema()))
		case *servo.HeaderNode:
			op.AddParameter(openapi3.NewHeaderParameter(p.Name()).
				WithRequired(true).
				WithSchema(openapi3.NewStringSchema()))
		case *servo.QueryNode:
			schema, err := schemaFor(p.Type())
			if err != nil {
				return nil, err
			}
			param := openapi3.NewQueryParameter(p.Name()).WithRequired(true)
			param.Schema = schema
			op.AddParameter(param)
		}
	}

	if body := e.Body(); body != nil {
		content, err := requestContent(body)
		if err != nil {
			return nil, err
		}
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithContent(content),
		}
	}

	responses := e.Method.Responses()
	op.Responses = openapi3.NewResponsesWithCapacity(len(responses))
	for _, r := range responses {
		response, err := responseFor(r)
		if err != nil {
			return nil, err
		}
		op.Responses.Set(strconv.Itoa(r.StatusCode()), &openapi3.ResponseRef{Value: response})
	}
	return op, nil
}

func requestContent(body *servo.BodyNode) (openapi3.Content, error) {
	if body.Encoding() != servo.JSON {
		binary := openapi3.NewStringSchema().WithFormat("binary")
		return openapi3.NewContentWithSchema(binary, []string{restdata.OctetStreamMediaType}), nil
	}
	schema, err := schemaFor(body.Type())
	if err != nil {
		return nil, err
	}
	return openapi3.NewContentWithJSONSchemaRef(schema), nil
}

func responseFor(r servo.Response) (*openapi3.Response, error) {
	description := http.StatusText(r.StatusCode())
	if description == "" {
		description = "Status " + strconv.Itoa(r.StatusCode())
	}
	response := openapi3.NewResponse().WithDescription(description)
	switch {
	case r.StatusCode() == http.StatusNoContent:
	case r.Text():
		response.WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{restdata.TextMediaType}))
	default:
		schema, err := schemaFor(r.Type())
		if err != nil {
			return nil, err
		}
		response.WithContent(openapi3.NewContentWithJSONSchemaRef(schema))
	}
	if names := r.Headers(); len(names) > 0 {
		response.Headers = make(openapi3.Headers, len(names))
		for _, name := range names {
			header := &openapi3.Header{Parameter: openapi3.Parameter{
				Schema: openapi3.NewStringSchema().NewRef(),
			}}
			response.Headers[name] = &openapi3.HeaderRef{Value: header}
		}
	}
	return response, nil
}

// schemaFor generates a schema for a payload type.  Undeclared and
// interface types accept anything.
func schemaFor(t reflect.Type) (*openapi3.SchemaRef, error) {
	if t == nil || t.Kind() == reflect.Interface {
		return openapi3.NewSchema().NewRef(), nil
	}
	return openapi3gen.NewGenerator().GenerateSchemaRef(t)
}
