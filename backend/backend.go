// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package backend provides a standard way to choose where a derived
// client sends its requests based on command-line flags.
package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/restmock"
	"github.com/diffeo/go-servo/servo"
)

// Backend describes user-visible parameters to reach an API.  This
// implements the flag.Value interface, and so a typical use is
//
//     func main() {
//         backend := backend.Backend{Implementation: "mock"}
//         flag.Var(&backend, "backend", "impl:address of the API")
//         flag.Parse()
//         exec, err := backend.Executor(api)
//         client := restclient.Derive(api, restclient.NewAccumulator(backend.Base()), exec)
//     }
type Backend struct {
	// Implementation holds the name of the implementation: "http"
	// or "mock".
	Implementation string

	// Address holds some backend-specific address: the API base
	// URL for "http", or an optional YAML fixture file for "mock".
	Address string
}

// Base returns the URL derived clients should start from.  Mocks
// match paths only, so for "mock" this is empty.
func (b *Backend) Base() string {
	if b.Implementation == "http" {
		return strings.TrimSuffix(b.Address, "/")
	}
	return ""
}

// Executor creates the request executor for an API description.  For
// "mock", this creates a new registry each call, loaded from the
// fixture file if one is named; the registry is returned as the
// executor, so callers may type-assert it to *restmock.Registry.
//
// If b.Implementation does not match a known implementation, returns
// an error.  It is assumed that Set() will validate at least the
// implementation.
func (b *Backend) Executor(api servo.Node) (restclient.Executor, error) {
	switch b.Implementation {
	case "http":
		return &restclient.HTTPExecutor{Client: restclient.InstrumentedClient()}, nil
	case "mock":
		registry := restmock.NewRegistry()
		if b.Address == "" {
			return registry, nil
		}
		f, err := os.Open(b.Address)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if _, err := restmock.LoadFixtures(f, api, "", registry); err != nil {
			return nil, err
		}
		return registry, nil
	default:
		return nil, errors.New("unknown backend " + b.Implementation)
	}
}

// String renders a backend description as a string.
func (b *Backend) String() string {
	if b.Address == "" {
		return b.Implementation
	}
	return b.Implementation + ":" + b.Address
}

// Set parses a string into an existing backend description.  The
// string should be of the form "implementation:address", where
// address can be any string.  Set checks to see if the provided
// implementation is any of the known implementations, and returns an
// appropriate error if not.
//
// This is part of the flag.Value interface.  Note that Set does not
// attempt to validate the b.Address part of the string beyond
// requiring one for "http", or to actually make a connection.
func (b *Backend) Set(param string) error {
	parts := strings.SplitN(param, ":", 2)
	impl, address := parts[0], ""
	if len(parts) == 2 {
		address = parts[1]
	}
	switch impl {
	case "":
		return errors.New("must specify a backend type")
	case "http":
		if address == "" {
			return errors.New("http backend needs a base URL")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown backend %q", impl)
	}
	b.Implementation = impl
	b.Address = address
	return nil
}
