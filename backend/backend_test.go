// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package backend

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/restmock"
	"github.com/diffeo/go-servo/servo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	tests := []struct {
		param, impl, address string
		ok                   bool
	}{
		{"mock", "mock", "", true},
		{"mock:fixtures.yaml", "mock", "fixtures.yaml", true},
		{"http:https://api.thecatapi.com/v1", "http", "https://api.thecatapi.com/v1", true},
		{"http", "", "", false},
		{"", "", "", false},
		{"postgres:foo", "", "", false},
	}
	for _, test := range tests {
		var b Backend
		err := b.Set(test.param)
		if !test.ok {
			assert.Error(t, err, test.param)
			continue
		}
		if assert.NoError(t, err, test.param) {
			assert.Equal(t, test.impl, b.Implementation)
			assert.Equal(t, test.address, b.Address)
			assert.Equal(t, test.param, b.String())
		}
	}
}

func TestBase(t *testing.T) {
	b := Backend{Implementation: "http", Address: "http://x/v1/"}
	assert.Equal(t, "http://x/v1", b.Base())
	b = Backend{Implementation: "mock", Address: "f.yaml"}
	assert.Equal(t, "", b.Base())
}

func TestMockExecutor(t *testing.T) {
	api := servo.Path("images").Get(servo.OK(nil)).MustNode()

	dir, err := ioutil.TempDir("", "backend")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	fixtures := filepath.Join(dir, "fixtures.yaml")
	err = ioutil.WriteFile(fixtures, []byte("- endpoint: GET /images\n  responses:\n    - data: [1, 2]\n"), 0644)
	require.NoError(t, err)

	var b Backend
	require.NoError(t, b.Set("mock:"+fixtures))
	exec, err := b.Executor(api)
	require.NoError(t, err)
	registry, isRegistry := exec.(*restmock.Registry)
	if assert.True(t, isRegistry) {
		assert.Len(t, registry.Mocks(), 1)
	}

	client := restclient.Derive(api, restclient.NewAccumulator(b.Base()), exec)
	resp, err := restclient.Do(context.Background(), client)
	if assert.NoError(t, err) {
		assert.Len(t, resp.Data, 2)
	}

	b.Address = filepath.Join(dir, "missing.yaml")
	_, err = b.Executor(api)
	assert.Error(t, err)
}

func TestHTTPExecutor(t *testing.T) {
	b := Backend{Implementation: "http", Address: "http://localhost:1"}
	exec, err := b.Executor(nil)
	if assert.NoError(t, err) {
		assert.IsType(t, &restclient.HTTPExecutor{}, exec)
	}

	b.Implementation = "carrier-pigeon"
	_, err = b.Executor(nil)
	assert.Error(t, err)
}
