// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package servo is a command-line tool over the cat API description.
// It lists the routes and cache keys derived from the description,
// exports it as OpenAPI, issues requests through the derived client,
// and serves fixture-driven mocks over HTTP.
package main

import (
	"os"

	"github.com/diffeo/go-servo/backend"
	"github.com/diffeo/go-servo/catapi"
	"github.com/diffeo/go-servo/servo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// tool holds state shared by the subcommands, set up in app.Before.
type tool struct {
	API     servo.Node
	Backend backend.Backend
	Config  Config
	Logger  *logrus.Logger
}

var servoTool = tool{
	API:     catapi.Describe(),
	Backend: backend.Backend{Implementation: "http", Address: catapi.BaseURL},
	Logger:  logrus.StandardLogger(),
}

// setup merges the configuration file, if any, under the command-line
// flags.
func (t *tool) setup(c *cli.Context) error {
	if filename := c.GlobalString("config"); filename != "" {
		config, err := loadConfig(filename)
		if err != nil {
			return err
		}
		t.Config = config
		if config.Backend != "" && !c.GlobalIsSet("backend") {
			if err := t.Backend.Set(config.Backend); err != nil {
				return err
			}
		}
	}
	if c.GlobalIsSet("api-key") || t.Config.APIKey == "" {
		t.Config.APIKey = c.GlobalString("api-key")
	}
	if c.GlobalIsSet("log-level") || t.Config.LogLevel == "" {
		t.Config.LogLevel = c.GlobalString("log-level")
	}
	level, err := logrus.ParseLevel(t.Config.LogLevel)
	if err != nil {
		return err
	}
	t.Logger.SetLevel(level)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "servo"
	app.Usage = "work with the cat API description"
	app.Flags = []cli.Flag{
		cli.GenericFlag{
			Name:  "backend",
			Value: &servoTool.Backend,
			Usage: "impl:[address] of the API: http:<base URL> or mock[:<fixtures>]",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "YAML configuration file",
		},
		cli.StringFlag{
			Name:   "api-key",
			Value:  "test-api-key",
			Usage:  "value of the x-api-key header",
			EnvVar: "CAT_API_KEY",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "minimum level of log messages",
		},
	}
	app.Commands = []cli.Command{
		routesCommand,
		keysCommand,
		openapiCommand,
		callCommand,
		mockCommand,
	}
	app.Before = servoTool.setup
	if err := app.Run(os.Args); err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("servo failed")
	}
}
