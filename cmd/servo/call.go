// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"reflect"
	"strings"

	"github.com/diffeo/go-servo/catapi"
	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
	"github.com/mitchellh/mapstructure"
	"github.com/urfave/cli"
)

var callCommand = cli.Command{
	Name:      "call",
	Usage:     "issue one request through the derived client",
	ArgsUsage: `"VERB template"`,
	Flags: []cli.Flag{
		cli.StringSliceFlag{
			Name:  "var",
			Usage: "name=value for a capture, header or query parameter (repeatable)",
		},
		cli.StringFlag{
			Name:  "data",
			Usage: "request body",
		},
		cli.StringFlag{
			Name:  "file",
			Usage: "read the request body from this file",
		},
		cli.StringFlag{
			Name:  "content-type",
			Value: restdata.OctetStreamMediaType,
			Usage: "content type of a non-JSON body",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.NewExitError(`call takes one "VERB template" argument`, 2)
		}
		raw, err := parseVars(c.StringSlice("var"))
		if err != nil {
			return err
		}
		body := []byte(c.String("data"))
		if filename := c.String("file"); filename != "" {
			body, err = ioutil.ReadFile(filename)
			if err != nil {
				return err
			}
		}

		exec, err := servoTool.Backend.Executor(servoTool.API)
		if err != nil {
			return err
		}
		if h, ok := exec.(*restclient.HTTPExecutor); ok {
			h.Logger = servoTool.Logger
		}
		resp, err := call(context.Background(), servoTool.API, servoTool.Backend.Base(), exec,
			c.Args().First(), request{
				Vars:        raw,
				APIKey:      servoTool.Config.APIKey,
				Body:        body,
				ContentType: c.String("content-type"),
			})
		if err != nil {
			return err
		}
		fmt.Println(statusLine(resp.Status))
		for name, value := range resp.Headers {
			fmt.Printf("%s: %s\n", name, value)
		}
		if resp.Data != nil {
			text, err := restdata.EncodeJSON(resp.Data)
			if err != nil {
				return err
			}
			fmt.Println(string(text))
		}
		return nil
	},
}

// request holds the command-line parts of a call.
type request struct {
	Vars        map[string]string
	APIKey      string
	Body        []byte
	ContentType string
}

func parseVars(items []string) (map[string]string, error) {
	vars := make(map[string]string, len(items))
	for _, item := range items {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("bad --var %q, want name=value", item)
		}
		vars[parts[0]] = parts[1]
	}
	return vars, nil
}

// call finds the named endpoint, converts the command-line values to
// the types its parameters declare, and issues the request.
func call(ctx context.Context, api servo.Node, base string, exec restclient.Executor, name string, req request) (*restclient.Response, error) {
	e, found := paths.Find(paths.Endpoints(api, ""), name)
	if !found {
		return nil, fmt.Errorf("no endpoint %q; try the routes command", name)
	}
	vars, err := endpointVars(e, req)
	if err != nil {
		return nil, err
	}
	tree := restclient.Derive(api, restclient.NewAccumulator(base), exec)
	return restclient.Do(ctx, tree.Select(e.Position, vars))
}

var payloadType = reflect.TypeOf(restclient.Payload{})

func endpointVars(e paths.Endpoint, req request) (map[string]interface{}, error) {
	vars := make(map[string]interface{})
	for _, p := range e.Params {
		name := servo.ParamName(p)
		value, present := req.Vars[name]
		switch p := p.(type) {
		case *servo.CaptureNode:
			if !present {
				return nil, fmt.Errorf("%v needs --var %s=...", e, name)
			}
			vars[name] = value
		case *servo.HeaderNode:
			if !present && strings.EqualFold(name, catapi.APIKeyHeader) {
				value, present = req.APIKey, true
			}
			if !present {
				return nil, fmt.Errorf("%v needs --var %s=...", e, name)
			}
			vars[name] = value
		case *servo.QueryNode:
			if !present {
				return nil, fmt.Errorf("%v needs --var %s=...", e, name)
			}
			converted, err := convert(value, p.Type())
			if err != nil {
				return nil, fmt.Errorf("query parameter %s: %w", name, err)
			}
			vars[name] = converted
		case *servo.BodyNode:
			body, err := bodyValue(p, req)
			if err != nil {
				return nil, err
			}
			vars[name] = body
		}
	}
	return vars, nil
}

// convert turns a command-line string into a value of type t.
func convert(value string, t reflect.Type) (interface{}, error) {
	if t == nil || t.Kind() == reflect.String {
		return value, nil
	}
	out := reflect.New(t)
	if err := mapstructure.WeakDecode(value, out.Interface()); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

func bodyValue(body *servo.BodyNode, req request) (interface{}, error) {
	if body.Encoding() != servo.JSON {
		if body.Type() == payloadType {
			return restclient.Payload{ContentType: req.ContentType, Data: req.Body}, nil
		}
		return req.Body, nil
	}
	if body.Type() == nil {
		var data interface{}
		err := restdata.DecodeJSON(req.Body, &data)
		return data, err
	}
	out := reflect.New(body.Type())
	if err := restdata.DecodeJSON(req.Body, out.Interface()); err != nil {
		return nil, restdata.ErrBadRequest{Err: err}
	}
	return out.Elem().Interface(), nil
}
