// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/diffeo/go-servo/openapi"
	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/servo"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v2"
)

var routesCommand = cli.Command{
	Name:  "routes",
	Usage: "list every endpoint of the API",
	Action: func(c *cli.Context) error {
		fmt.Println(routeTable(servoTool.API, servoTool.Backend.Base()))
		return nil
	},
}

var keysCommand = cli.Command{
	Name:  "keys",
	Usage: "list the cache key of every endpoint",
	Action: func(c *cli.Context) error {
		keys, err := keyList(servoTool.API)
		if err != nil {
			return err
		}
		for _, line := range keys {
			fmt.Println(line)
		}
		return nil
	},
}

var openapiCommand = cli.Command{
	Name:  "openapi",
	Usage: "export the API as an OpenAPI 3 document",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "format",
			Value: "json",
			Usage: "json or yaml",
		},
		cli.StringFlag{
			Name:  "title",
			Value: "The Cat API",
		},
		cli.StringFlag{
			Name:  "version",
			Value: "1",
		},
	},
	Action: func(c *cli.Context) error {
		info := &openapi3.Info{Title: c.String("title"), Version: c.String("version")}
		text, err := exportDocument(servoTool.API, info, servoTool.Backend.Base(), c.String("format"))
		if err != nil {
			return err
		}
		fmt.Println(string(text))
		return nil
	},
}

// routeTable renders the endpoints as a text table.
func routeTable(api servo.Node, base string) string {
	var rows [][]string
	for _, e := range paths.Endpoints(api, base) {
		var params []string
		for _, p := range e.Params {
			params = append(params, p.Kind().String()+"("+servo.ParamName(p)+")")
		}
		var statuses []string
		for _, r := range e.Method.Responses() {
			statuses = append(statuses, strconv.Itoa(r.StatusCode()))
		}
		if len(params) == 0 {
			params = []string{"-"}
		}
		rows = append(rows, []string{
			e.Verb,
			e.Template,
			strings.Join(params, " "),
			strings.Join(statuses, " "),
		})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Method", "Path", "Parameters", "Responses"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(60)
	return t.Render("grid")
}

// keyList describes the cache key of each endpoint, with captures
// left as "{name}" placeholders.
func keyList(api servo.Node) ([]string, error) {
	keys := paths.Keys(api)
	var result []string
	for _, e := range paths.Endpoints(api, "") {
		vars := make(map[string]interface{})
		for _, name := range e.Captures() {
			vars[name] = "{" + name + "}"
		}
		key, err := keys.Select(e.Position, vars).Leaf()
		if err != nil {
			return nil, fmt.Errorf("%v: %w", e, err)
		}
		result = append(result, e.String()+" -> ["+strings.Join(key, ", ")+"]")
	}
	return result, nil
}

// exportDocument renders the OpenAPI document in the given format.
func exportDocument(api servo.Node, info *openapi3.Info, base, format string) ([]byte, error) {
	doc, err := openapi.Export(api, info)
	if err != nil {
		return nil, err
	}
	if base != "" {
		doc.Servers = openapi3.Servers{{URL: base}}
	}
	switch format {
	case "json":
		return doc.MarshalJSON()
	case "yaml":
		return yaml.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
}

func statusLine(status int) string {
	return strconv.Itoa(status) + " " + http.StatusText(status)
}
