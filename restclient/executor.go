// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"context"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// Executor runs a single HTTP request.  It does not interpret the
// response status; that is the caller's job.  Implementations must not
// retry.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*http.Response, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req *Request) (*http.Response, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req *Request) (*http.Response, error) {
	return f(ctx, req)
}

var roundTrips = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "servo",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "HTTP requests issued by derived clients",
	},
	[]string{"code", "method"},
)

// Collectors returns the metrics of this package, for registration by
// the program.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{roundTrips}
}

// InstrumentedClient returns an HTTP client whose round trips are
// counted in the requests_total metric.
func InstrumentedClient() *http.Client {
	return &http.Client{
		Transport: promhttp.InstrumentRoundTripperCounter(roundTrips, http.DefaultTransport),
	}
}

// HTTPExecutor sends requests over the network.
type HTTPExecutor struct {
	// Client sends the requests.  If nil, http.DefaultClient is
	// used.
	Client *http.Client

	// Logger receives a debug entry per request.  If nil, the
	// logrus standard logger is used.
	Logger logrus.FieldLogger

	// Clock times requests.  If nil, the wall clock is used.
	Clock clock.Clock
}

// Execute sends req and returns the response with its body unread.
// Transport errors are returned unchanged.
func (e *HTTPExecutor) Execute(ctx context.Context, req *Request) (*http.Response, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := e.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	clk := e.Clock
	if clk == nil {
		clk = clock.New()
	}

	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.WithFields(logrus.Fields{
		"request": uuid.NewV4().String(),
		"method":  req.Method,
		"url":     httpReq.URL.String(),
	})
	log.Debug("sending request")

	start := clk.Now()
	resp, err := client.Do(httpReq)
	elapsed := clk.Now().Sub(start)
	if err != nil {
		log.WithError(err).WithField("elapsed", elapsed).Debug("request failed")
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": elapsed,
	}).Debug("received response")
	return resp, nil
}
