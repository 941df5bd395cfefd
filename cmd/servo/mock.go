// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"net/http"
	"os"

	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/restmock"
	"github.com/diffeo/go-servo/servo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/urfave/negroni"
)

var mockCommand = cli.Command{
	Name:  "mock",
	Usage: "serve fixture-driven mocks of the API over HTTP",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "listen",
			Value: ":8080",
			Usage: "[ip]:port to serve on",
		},
		cli.StringFlag{
			Name:  "fixtures",
			Usage: "YAML fixture file",
		},
		cli.StringFlag{
			Name:  "base",
			Value: "/v1",
			Usage: "path prefix of mocked endpoints",
		},
	},
	Action: func(c *cli.Context) error {
		listen := c.String("listen")
		if !c.IsSet("listen") && servoTool.Config.Listen != "" {
			listen = servoTool.Config.Listen
		}
		fixtures := c.String("fixtures")
		if fixtures == "" {
			fixtures = servoTool.Config.Fixtures
		}

		registry := restmock.NewRegistry()
		registry.Logger = servoTool.Logger
		if fixtures != "" {
			if err := loadMocks(registry, servoTool.API, c.String("base"), fixtures); err != nil {
				return err
			}
		}

		servoTool.Logger.WithFields(logrus.Fields{
			"listen": listen,
			"mocks":  len(registry.Mocks()),
		}).Info("serving mocks")
		return http.ListenAndServe(listen, mockServer(registry))
	},
}

func loadMocks(registry *restmock.Registry, api servo.Node, base, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	mocks, err := restmock.LoadFixtures(f, api, base, registry)
	if err != nil {
		return err
	}
	for _, m := range mocks {
		servoTool.Logger.WithFields(logrus.Fields{
			"route":     m.Route.String(),
			"responses": m.Pending(),
		}).Debug("installed mock")
	}
	return nil
}

// mockServer puts the registry behind recovery and request logging
// middleware, next to a /metrics endpoint for the mock counters and
// the counters of any derived clients in the same process.
func mockServer(registry *restmock.Registry) http.Handler {
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(restmock.Collectors()...)
	metrics.MustRegister(restclient.Collectors()...)

	r := mux.NewRouter().SkipClean(true)
	r.Handle("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(registry)

	n := negroni.New(negroni.NewRecovery(), negroni.NewLogger())
	n.UseHandler(r)
	return n
}
