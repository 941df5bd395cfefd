// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
	"github.com/mitchellh/mapstructure"
)

// Call is a terminal of a derived client: one fully described request
// and the responses it may get.
type Call struct {
	// Method is the terminal node of the description.
	Method *servo.MethodNode

	// Request is the request this call will send.
	Request Request

	executor Executor
}

// Response is the result of a Call whose status matched one of the
// declared response templates.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Data is the decoded body: a value of the template's example
	// type, generic JSON data if the template has none, a string
	// for text templates, or nil if the body was empty.
	Data interface{}

	// Headers holds the values of the response headers the
	// template expects, where present.
	Headers map[string]string

	// Raw is the undecoded body.
	Raw []byte
}

// ErrUnexpectedResponse is returned by Call.Do when the response status
// matches none of the declared templates.
type ErrUnexpectedResponse struct {
	Status     int
	StatusText string

	// Body holds the contents of the message body.
	Body []byte

	// Err is the error the mock registry described in the body, if
	// it sent an ErrorResponse.
	Err error
}

func (e *ErrUnexpectedResponse) Error() string {
	return fmt.Sprintf("Unexpected response %d %s", e.Status, e.StatusText)
}

// Unwrap returns the error described by the response body, if any.
func (e *ErrUnexpectedResponse) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the unexpected status.
func (e *ErrUnexpectedResponse) HTTPStatus() int {
	return e.Status
}

// Do issues the request exactly once and interprets the response.
func (c *Call) Do(ctx context.Context) (resp *Response, err error) {
	if c.executor == nil {
		return nil, fmt.Errorf("%s %s: no executor", c.Request.Method, c.Request.Path)
	}
	req := c.Request
	req.Accumulator = req.Accumulator.clone()
	httpResp, err := c.executor.Execute(ctx, &req)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if httpResp.Body != nil {
		defer func() {
			err = firstError(err, httpResp.Body.Close())
		}()
		raw, err = ioutil.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}
	}

	template, ok := c.Method.Match(httpResp.StatusCode)
	if !ok {
		return nil, unexpected(httpResp, raw)
	}

	data, err := decodeData(template, httpResp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, err
	}
	resp = &Response{
		Status: httpResp.StatusCode,
		Data:   data,
		Raw:    raw,
	}
	if names := template.Headers(); len(names) > 0 {
		resp.Headers = make(map[string]string)
		for _, name := range names {
			if values := httpResp.Header.Values(name); len(values) > 0 {
				resp.Headers[name] = values[0]
			}
		}
	}
	return resp, nil
}

func unexpected(resp *http.Response, body []byte) error {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	e := &ErrUnexpectedResponse{
		Status:     resp.StatusCode,
		StatusText: text,
		Body:       body,
	}

	// Take a shot at decoding it as a better error
	var errResp restdata.ErrorResponse
	contentType := resp.Header.Get("Content-Type")
	if restdata.IsJSON(contentType) {
		err := restdata.Decode(contentType, bytes.NewReader(body), &errResp)
		if err == nil && errResp.Error != "" {
			e.Err = errResp.ToError()
		}
	}
	return e
}

func decodeData(template servo.Response, contentType string, raw []byte) (interface{}, error) {
	switch {
	case len(raw) == 0:
		return nil, nil
	case template.Text():
		return string(raw), nil
	case template.Type() != nil:
		out := reflect.New(template.Type())
		if err := restdata.DecodeJSON(raw, out.Interface()); err != nil {
			return nil, fmt.Errorf("decoding %d response: %w", template.StatusCode(), err)
		}
		return out.Elem().Interface(), nil
	case contentType != "" && !restdata.IsJSON(contentType):
		return string(raw), nil
	}
	var data interface{}
	if err := restdata.DecodeJSON(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding %d response: %w", template.StatusCode(), err)
	}
	return data, nil
}

// Decode stores the response data in out, which must be of pointer
// type.  Data of a type assignable to out's target is copied directly;
// anything else, typically generic JSON data, is converted with
// mapstructure using the "json" field tags.
func (r *Response) Decode(out interface{}) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return fmt.Errorf("cannot decode into non-pointer %T", out)
	}
	if r.Data == nil {
		return nil
	}
	data := reflect.ValueOf(r.Data)
	if data.Type().AssignableTo(target.Elem().Type()) {
		target.Elem().Set(data)
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(r.Data)
}

// Do issues the request of a fully applied client tree.
func Do(ctx context.Context, tree servo.Tree[*Call]) (*Response, error) {
	call, err := tree.Leaf()
	if err != nil {
		return nil, err
	}
	return call.Do(ctx)
}

func firstError(e1, e2 error) error {
	if e1 != nil {
		return e1
	}
	return e2
}
