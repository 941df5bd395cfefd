// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restmock

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/servo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Fixture installs canned responses for one endpoint.  In YAML:
//
//     - endpoint: DELETE /favourites/{favouriteId}
//       vars:
//         favouriteId: "42"
//       responses:
//         - status: 200
//           data: {message: SUCCESS}
type Fixture struct {
	// Endpoint names the endpoint as "VERB template", as listed
	// by paths.Endpoints.
	Endpoint string `yaml:"endpoint"`

	// Vars supplies capture values.
	Vars map[string]string `yaml:"vars"`

	// Responses are served in order.  A zero status means 200.
	Responses []Canned `yaml:"responses"`
}

// ParseFixtures reads a YAML list of fixtures.
func ParseFixtures(r io.Reader) ([]Fixture, error) {
	bytes, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var fixtures []Fixture
	err = yaml.Unmarshal(bytes, &fixtures)
	if err != nil {
		return nil, err
	}
	for i := range fixtures {
		for j := range fixtures[i].Responses {
			c := &fixtures[i].Responses[j]
			if c.Status == 0 {
				c.Status = http.StatusOK
			}
			c.Data = normalize(c.Data)
		}
	}
	return fixtures, nil
}

// LoadFixtures reads fixtures and installs them through the mock tree
// derived from node.  base must be the same base the clients use.
func LoadFixtures(r io.Reader, node servo.Node, base string, registry *Registry) ([]*Mock, error) {
	fixtures, err := ParseFixtures(r)
	if err != nil {
		return nil, err
	}
	endpoints := paths.Endpoints(node, "")
	tree := Derive(node, base, registry)
	var mocks []*Mock
	for _, fixture := range fixtures {
		e, found := paths.Find(endpoints, fixture.Endpoint)
		if !found {
			return mocks, fmt.Errorf("fixture for unknown endpoint %q", fixture.Endpoint)
		}
		vars := make(map[string]interface{}, len(fixture.Vars))
		for k, v := range fixture.Vars {
			vars[k] = v
		}
		path, err := fixturePath(e, vars)
		if err != nil {
			return mocks, fmt.Errorf("fixture for %q: %w", fixture.Endpoint, err)
		}
		endpoint, err := tree.Select(e.Position, vars).Leaf()
		if err != nil {
			return mocks, fmt.Errorf("fixture for %q: %w", fixture.Endpoint, err)
		}
		m, err := endpoint.Respond(fixture.Responses...)
		if err != nil {
			return mocks, err
		}
		registry.logger().WithFields(logrus.Fields{
			"endpoint":  fixture.Endpoint,
			"path":      path,
			"responses": len(fixture.Responses),
		}).Debug("loaded fixture")
		mocks = append(mocks, m)
	}
	return mocks, nil
}

// fixturePath expands the endpoint template with the fixture's
// variables.  Every capture needs a value, and every variable must
// name a capture.
func fixturePath(e paths.Endpoint, vars map[string]interface{}) (string, error) {
	captures := make(map[string]bool)
	for _, name := range e.Captures() {
		captures[name] = true
	}
	for name := range vars {
		if !captures[name] {
			return "", fmt.Errorf("%q is not a capture of %v", name, e)
		}
	}
	return e.Expand(vars)
}

// normalize converts the map[interface{}]interface{} values yaml.v2
// produces into map[string]interface{}, so they encode as JSON
// objects.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, item := range v {
			m[fmt.Sprint(k)] = normalize(item)
		}
		return m
	case []interface{}:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	}
	return v
}
