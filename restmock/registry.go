// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restmock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/restdata"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var mockHits = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "servo",
		Subsystem: "mock",
		Name:      "hits_total",
		Help:      "Requests served by installed mocks",
	},
	[]string{"method", "path"},
)

var mockMisses = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "servo",
		Subsystem: "mock",
		Name:      "misses_total",
		Help:      "Requests for which no mock was installed",
	},
)

// Collectors returns the metrics of this package, for registration by
// the program.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{mockHits, mockMisses}
}

// ErrCannotMock is returned when a canned response has a status the
// endpoint does not declare, or when no canned response is given.
type ErrCannotMock struct {
	Route  fmt.Stringer
	Status int
}

func (e *ErrCannotMock) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("couldn't mock %v: no responses given", e.Route)
	}
	return fmt.Sprintf("couldn't mock %v: status %d is not declared", e.Route, e.Status)
}

// Registry is an in-process HTTP server that answers only with
// installed mocks.  It is an http.Handler, so it can sit behind an
// httptest.Server, and a restclient.Executor, so a derived client can
// use it directly.  The zero value is not usable; call NewRegistry.
type Registry struct {
	// Logger receives a warning for every request nothing is
	// installed for.  If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger

	// Clock timestamps recorded requests.  If nil, the wall clock
	// is used.
	Clock clock.Clock

	lock   sync.RWMutex
	mocks  []*Mock
	router *mux.Router
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.rebuild()
	return r
}

func (r *Registry) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

func (r *Registry) clock() clock.Clock {
	if r.Clock == nil {
		return clock.New()
	}
	return r.Clock
}

// rebuild makes a new router from r.mocks.  Callers must hold the
// write lock, or own r exclusively.
func (r *Registry) rebuild() {
	// Capture values such as "" or ".." produce paths mux would
	// otherwise redirect to their cleaned form.
	router := mux.NewRouter().SkipClean(true)
	for _, m := range r.mocks {
		path := m.path
		router.NewRoute().
			Methods(m.Route.Verb).
			MatcherFunc(func(req *http.Request, _ *mux.RouteMatch) bool {
				return req.URL.EscapedPath() == path
			}).
			Handler(m)
	}
	router.NotFoundHandler = http.HandlerFunc(r.notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(r.notFound)
	r.router = router
}

// Install adds a mock, replacing any mock previously installed at the
// same verb and path.
func (r *Registry) Install(m *Mock) {
	r.lock.Lock()
	defer r.lock.Unlock()
	mocks := make([]*Mock, 0, len(r.mocks)+1)
	for _, old := range r.mocks {
		if old.Route.Verb != m.Route.Verb || old.path != m.path {
			mocks = append(mocks, old)
		}
	}
	r.mocks = append(mocks, m)
	r.rebuild()
}

// Reset removes every installed mock.
func (r *Registry) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.mocks = nil
	r.rebuild()
}

// Mocks returns the installed mocks in installation order.
func (r *Registry) Mocks() []*Mock {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]*Mock(nil), r.mocks...)
}

func (r *Registry) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	// Recover from panics by sending an HTTP error.
	defer func() {
		if recovered := recover(); recovered != nil {
			response := restdata.ErrorResponse{}
			response.FromPanic(recovered)
			r.logger().WithField("error", response.Message).Error("mock panicked")
			resp.Header().Set("Content-Type", restdata.JSONMediaType)
			resp.WriteHeader(http.StatusInternalServerError)
			_ = restdata.WriteJSON(resp, response)
		}
	}()

	r.lock.RLock()
	router := r.router
	r.lock.RUnlock()
	router.ServeHTTP(resp, req)
}

func (r *Registry) notFound(resp http.ResponseWriter, req *http.Request) {
	mockMisses.Inc()
	r.logger().WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	}).Warn("no mock installed")
	writeError(resp, restdata.ErrNotFound{
		Err: fmt.Errorf("no mock installed for %s %s", req.Method, req.URL.Path),
	})
}

func writeError(resp http.ResponseWriter, err error) {
	response := restdata.ErrorResponse{}
	response.FromError(err)
	resp.Header().Set("Content-Type", restdata.JSONMediaType)
	resp.WriteHeader(restdata.StatusOf(err))
	_ = restdata.WriteJSON(resp, response)
}

// Execute serves a client request in process, without a network.
func (r *Registry) Execute(ctx context.Context, req *restclient.Request) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}
	if httpReq.URL.Host == "" {
		httpReq.URL.Host = "mock"
	}
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httpReq)
	return recorder.Result(), nil
}

// IsNotInstalled reports whether err is a client's report of a request
// the registry had no mock for.
func IsNotInstalled(err error) bool {
	var unexpected *restclient.ErrUnexpectedResponse
	if !errors.As(err, &unexpected) {
		return false
	}
	var notFound restdata.ErrNotFound
	return errors.As(unexpected.Err, &notFound)
}
