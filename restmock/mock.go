// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restmock

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"
)

// Canned is one response a mock may serve.
type Canned struct {
	// Status is the HTTP status code.  It must be declared by the
	// endpoint's description.
	Status int `yaml:"status"`

	// Data is encoded as the JSON body.  nil is sent as an empty
	// object.
	Data interface{} `yaml:"data"`

	// Headers supplies values for the response headers the
	// matching template expects.  Others are ignored.
	Headers map[string]string `yaml:"headers"`
}

// Reply creates a canned response with an arbitrary status.
func Reply(status int, data interface{}) Canned {
	return Canned{Status: status, Data: data}
}

// OK creates a canned 200 OK response.
func OK(data interface{}) Canned {
	return Reply(http.StatusOK, data)
}

// BadRequest creates a canned 400 Bad Request response.
func BadRequest(data interface{}) Canned {
	return Reply(http.StatusBadRequest, data)
}

// ServerError creates a canned 500 Internal Server Error response.
func ServerError(data interface{}) Canned {
	return Reply(http.StatusInternalServerError, data)
}

// WithHeader returns a copy of c with a response header value.
func (c Canned) WithHeader(name, value string) Canned {
	headers := make(map[string]string, len(c.Headers)+1)
	for k, v := range c.Headers {
		headers[k] = v
	}
	headers[name] = value
	c.Headers = headers
	return c
}

// Recorded is a request a mock intercepted.
type Recorded struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte

	// At is the registry clock's time when the request arrived.
	At time.Time
}

// BindQuery decodes the query string into out, a pointer to a struct
// whose fields are named by "json" tags.  Unknown parameters are
// ignored.
func (r Recorded) BindQuery(out interface{}) error {
	decoder := schema.NewDecoder()
	decoder.SetAliasTag("json")
	decoder.IgnoreUnknownKeys(true)
	return decoder.Decode(out, r.URL.Query())
}

// BindBody decodes the request body into out according to its
// Content-Type: header.
func (r Recorded) BindBody(out interface{}) error {
	return restdata.Decode(r.Header.Get("Content-Type"), bytes.NewReader(r.Body), out)
}

// Mock serves canned responses for one verb and path.  While more than
// one response is queued each request consumes the front one; the last
// one is served to every request after that.
type Mock struct {
	// Route is the verb and path the mock is installed at.
	Route paths.Route

	method   *servo.MethodNode
	registry *Registry
	path     string

	lock     sync.Mutex
	queue    []Canned
	hits     int
	requests []Recorded
}

func newMock(route paths.Route, method *servo.MethodNode, registry *Registry, canned []Canned) *Mock {
	return &Mock{
		Route:    route,
		method:   method,
		registry: registry,
		path:     routePath(route.Path),
		queue:    append([]Canned(nil), canned...),
	}
}

// routePath reduces an absolute URL to its escaped path, so a mock
// installed under a full base URL matches requests to any host.
func routePath(path string) string {
	u, err := url.Parse(path)
	if err != nil || u.EscapedPath() == "" {
		return path
	}
	return u.EscapedPath()
}

// next records a request and picks the response for it.
func (m *Mock) next(rec Recorded) Canned {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.hits++
	m.requests = append(m.requests, rec)
	c := m.queue[0]
	if len(m.queue) > 1 {
		m.queue = m.queue[1:]
	}
	return c
}

// Hits returns the number of requests served.
func (m *Mock) Hits() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.hits
}

// Requests returns the requests served, oldest first.
func (m *Mock) Requests() []Recorded {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]Recorded(nil), m.requests...)
}

// Pending returns the number of responses still queued, including the
// sticky last one.
func (m *Mock) Pending() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.queue)
}

func (m *Mock) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = ioutil.ReadAll(req.Body)
		if err != nil {
			writeError(resp, restdata.ErrBadRequest{Err: err})
			return
		}
	}
	c := m.next(Recorded{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header.Clone(),
		Body:   body,
		At:     m.registry.clock().Now(),
	})
	mockHits.WithLabelValues(m.Route.Verb, m.path).Inc()

	template, ok := m.method.Match(c.Status)
	if !ok {
		// Respond validates statuses, so this is not normally
		// reached.
		writeError(resp, &ErrCannotMock{Route: m.Route, Status: c.Status})
		return
	}
	m.registry.logger().WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
		"status": c.Status,
	}).Debug("serving mock response")

	for _, name := range template.Headers() {
		if value, present := c.Headers[name]; present {
			resp.Header().Set(name, value)
		}
	}
	data := c.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	resp.Header().Set("Content-Type", restdata.JSONMediaType)
	resp.WriteHeader(c.Status)
	if err := restdata.WriteJSON(resp, data); err != nil {
		m.registry.logger().WithError(err).Error("encoding mock response")
	}
}
