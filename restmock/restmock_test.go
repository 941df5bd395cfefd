// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restmock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
	"github.com/diffeo/go-servo/servo/servotest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vote struct {
	ImageID string `json:"image_id"`
	Value   int    `json:"value"`
}

type errorBody struct {
	Message string `json:"message"`
}

func describe() servo.Node {
	return servo.Header("x-api-key").Any(
		servo.Path("images").Query("limit", 0).Get(
			servo.OK(nil),
			servo.BadRequest(errorBody{}),
		),
		servo.Path("favourites").Capture("favouriteId").Delete(servo.OK(nil)),
		servo.Path("votes").Any(
			servo.Get(servo.OK([]vote{}).WithHeaders("pagination-count")),
			servo.Body(servo.JSON, vote{}).Post(servo.OK(nil)),
		),
	).MustNode()
}

// fixture wires a registry, its derived mocks, and a client that
// talks to it in process.
type fixture struct {
	*assert.Assertions
	t        *testing.T
	registry *Registry
	mocks    servo.Tree[*Endpoint]
	client   servo.Tree[*restclient.Call]
}

func newFixture(t *testing.T) *fixture {
	registry := NewRegistry()
	logger, _ := test.NewNullLogger()
	registry.Logger = logger
	return &fixture{
		Assertions: assert.New(t),
		t:          t,
		registry:   registry,
		mocks:      Derive(describe(), "https://api.example.com/v1", registry),
		client: restclient.Derive(describe(),
			restclient.NewAccumulator("https://api.example.com/v1"),
			registry).Header("key"),
	}
}

func (f *fixture) respond(tree servo.Tree[*Endpoint], canned ...Canned) *Mock {
	endpoint, err := tree.Leaf()
	require.NoError(f.t, err)
	m, err := endpoint.Respond(canned...)
	require.NoError(f.t, err)
	return m
}

func TestQueueIsStickyAtEnd(t *testing.T) {
	f := newFixture(t)
	m := f.respond(f.mocks.Index(0),
		OK([]interface{}{"A"}),
		OK([]interface{}{"B"}),
	)
	f.Equal(2, m.Pending())

	var got []interface{}
	var pending []int
	for i := 0; i < 3; i++ {
		resp, err := restclient.Do(context.Background(), f.client.Index(0).Query(10))
		if f.NoError(err) {
			got = append(got, resp.Data.([]interface{})[0])
		}
		pending = append(pending, m.Pending())
	}
	f.Equal([]interface{}{"A", "B", "B"}, got)
	f.Equal([]int{1, 1, 1}, pending)
}

func TestResponseMatching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.respond(f.mocks.Index(0), Reply(http.StatusBadRequest, errorBody{Message: "limit"}))
	resp, err := restclient.Do(ctx, f.client.Index(0).Query(10))
	if f.NoError(err) {
		f.Equal(http.StatusBadRequest, resp.Status)
		f.Equal(errorBody{Message: "limit"}, resp.Data)
	}

	// Nothing is installed at votes, so the registry answers 404
	_, err = restclient.Do(ctx, f.client.Index(2).Index(0))
	var unexpected *restclient.ErrUnexpectedResponse
	if f.True(errors.As(err, &unexpected)) {
		f.Equal(http.StatusNotFound, unexpected.Status)
		f.Contains(err.Error(), "404")
	}
	f.True(IsNotInstalled(err))
}

func TestCannotMock(t *testing.T) {
	f := newFixture(t)
	endpoint, err := f.mocks.Index(0).Leaf()
	require.NoError(t, err)

	_, err = endpoint.Respond(OK(nil), Reply(http.StatusNotFound, nil))
	var cannot *ErrCannotMock
	if f.True(errors.As(err, &cannot)) {
		f.Equal(http.StatusNotFound, cannot.Status)
		f.Contains(err.Error(), "couldn't mock")
	}
	f.Empty(f.registry.Mocks())

	_, err = endpoint.Respond()
	f.Error(err)
}

func TestCaptureRoundTrip(t *testing.T) {
	f := newFixture(t)
	m := f.respond(f.mocks.Index(1).Capture("42"), OK(nil))
	f.Equal("DELETE https://api.example.com/v1/favourites/42", m.Route.String())

	resp, err := restclient.Do(context.Background(), f.client.Index(1).Capture("42"))
	if f.NoError(err) {
		f.Equal(http.StatusOK, resp.Status)
	}
	if f.Len(m.Requests(), 1) {
		req := m.Requests()[0]
		f.Equal(http.MethodDelete, req.Method)
		f.Equal("/v1/favourites/42", req.URL.Path)
		f.Equal("key", req.Header.Get("x-api-key"))
	}

	// A different capture value is a different path
	_, err = restclient.Do(context.Background(), f.client.Index(1).Capture("43"))
	f.True(IsNotInstalled(err))
}

func TestUncleanCaptures(t *testing.T) {
	api := servo.Path("favourites").Capture("id").Path("x").Delete(servo.OK(nil)).MustNode()
	registry := NewRegistry()
	registry.Logger, _ = test.NewNullLogger()
	server := httptest.NewServer(registry)
	defer server.Close()

	for _, value := range []string{"42", "", ".", ".."} {
		registry.Reset()
		endpoint, err := Derive(api, "/v1", registry).Capture(value).Leaf()
		require.NoError(t, err)
		m, err := endpoint.Respond(OK(nil))
		require.NoError(t, err)

		inProcess := restclient.Derive(api, restclient.NewAccumulator("/v1"), registry)
		resp, err := restclient.Do(context.Background(), inProcess.Capture(value))
		if assert.NoError(t, err, "capture %q", value) {
			assert.Equal(t, http.StatusOK, resp.Status, "capture %q", value)
		}

		overHTTP := restclient.Derive(api, restclient.NewAccumulator(server.URL+"/v1"),
			&restclient.HTTPExecutor{Client: server.Client()})
		resp, err = restclient.Do(context.Background(), overHTTP.Capture(value))
		if assert.NoError(t, err, "capture %q", value) {
			assert.Equal(t, http.StatusOK, resp.Status, "capture %q", value)
		}
		assert.Equal(t, 2, m.Hits(), "capture %q", value)
	}
}

func TestExpectedHeaders(t *testing.T) {
	f := newFixture(t)
	f.respond(f.mocks.Index(2).Index(0),
		OK([]vote{{ImageID: "1", Value: 1}}).
			WithHeader("pagination-count", "7").
			WithHeader("x-ignored", "yes"))

	resp, err := restclient.Do(context.Background(), f.client.Index(2).Index(0))
	if f.NoError(err) {
		f.Equal([]vote{{ImageID: "1", Value: 1}}, resp.Data)
		f.Equal(map[string]string{"pagination-count": "7"}, resp.Headers)
	}
}

func TestRecordedRequests(t *testing.T) {
	f := newFixture(t)
	mock := clock.NewMock()
	mock.Add(time.Hour)
	f.registry.Clock = mock

	m := f.respond(f.mocks.Index(2).Index(1), OK(nil))
	_, err := restclient.Do(context.Background(),
		f.client.Index(2).Index(1).Body(vote{ImageID: "abc", Value: 1}))
	f.NoError(err)

	_, err = restclient.Do(context.Background(), f.client.Index(0).Query(25))
	f.True(IsNotInstalled(err))

	f.Equal(1, m.Hits())
	requests := m.Requests()
	if f.Len(requests, 1) {
		f.Equal(mock.Now(), requests[0].At)
		var v vote
		if f.NoError(requests[0].BindBody(&v)) {
			f.Equal(vote{ImageID: "abc", Value: 1}, v)
		}
	}
}

func TestBindQuery(t *testing.T) {
	f := newFixture(t)
	m := f.respond(f.mocks.Index(0), OK(nil))
	_, err := restclient.Do(context.Background(), f.client.Index(0).Query(100))
	f.NoError(err)

	var query struct {
		Limit int `json:"limit"`
	}
	if f.Len(m.Requests(), 1) && f.NoError(m.Requests()[0].BindQuery(&query)) {
		f.Equal(100, query.Limit)
	}
}

func TestInstallReplaces(t *testing.T) {
	f := newFixture(t)
	first := f.respond(f.mocks.Index(0), OK([]interface{}{"first"}))
	second := f.respond(f.mocks.Index(0), OK([]interface{}{"second"}))
	f.respond(f.mocks.Index(1).Capture("1"), OK(nil))

	mocks := f.registry.Mocks()
	if f.Len(mocks, 2) {
		f.Equal(second, mocks[0])
	}

	resp, err := restclient.Do(context.Background(), f.client.Index(0).Query(1))
	if f.NoError(err) {
		f.Equal([]interface{}{"second"}, resp.Data)
	}
	f.Equal(0, first.Hits())

	f.registry.Reset()
	f.Empty(f.registry.Mocks())
	_, err = restclient.Do(context.Background(), f.client.Index(0).Query(1))
	f.True(IsNotInstalled(err))
}

func TestOverHTTP(t *testing.T) {
	registry := NewRegistry()
	logger, hook := test.NewNullLogger()
	registry.Logger = logger
	server := httptest.NewServer(registry)
	defer server.Close()

	mocks := Derive(describe(), "", registry)
	endpoint, err := mocks.Index(1).Capture("42").Leaf()
	require.NoError(t, err)
	_, err = endpoint.Respond(OK(map[string]interface{}{"message": "SUCCESS"}))
	require.NoError(t, err)

	exec := &restclient.HTTPExecutor{Logger: logger}
	client := restclient.Derive(describe(), restclient.NewAccumulator(server.URL), exec)
	resp, err := restclient.Do(context.Background(), client.Header("k").Index(1).Capture("42"))
	if assert.NoError(t, err) {
		assert.Equal(t, map[string]interface{}{"message": "SUCCESS"}, resp.Data)
	}

	httpResp, err := http.Get(server.URL + "/nothing")
	if assert.NoError(t, err) {
		defer httpResp.Body.Close()
		assert.Equal(t, http.StatusNotFound, httpResp.StatusCode)
		var errResp restdata.ErrorResponse
		err = restdata.Decode(httpResp.Header.Get("Content-Type"), httpResp.Body, &errResp)
		if assert.NoError(t, err) {
			assert.Equal(t, "ErrNotFound", errResp.Error)
		}
		if assert.NotNil(t, hook.LastEntry()) {
			assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		}
	}
}

func TestFixtures(t *testing.T) {
	f := newFixture(t)
	yaml := `
- endpoint: GET /images
  responses:
    - data: [{id: "1", url: x.png}]
- endpoint: delete /favourites/{favouriteId}
  vars: {favouriteId: "42"}
  responses:
    - status: 200
      data: {message: SUCCESS}
`
	mocks, err := LoadFixtures(strings.NewReader(yaml), describe(),
		"https://api.example.com/v1", f.registry)
	require.NoError(t, err)
	f.Len(mocks, 2)

	resp, err := restclient.Do(context.Background(), f.client.Index(0).Query(100))
	if f.NoError(err) {
		f.Equal([]interface{}{
			map[string]interface{}{"id": "1", "url": "x.png"},
		}, resp.Data)
	}
	resp, err = restclient.Do(context.Background(), f.client.Index(1).Capture("42"))
	if f.NoError(err) {
		f.Equal(map[string]interface{}{"message": "SUCCESS"}, resp.Data)
	}

	_, err = LoadFixtures(strings.NewReader("- endpoint: PUT /nothing\n"),
		describe(), "", f.registry)
	f.Error(err)
}

func TestFixtureVars(t *testing.T) {
	registry := NewRegistry()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	registry.Logger = logger

	load := func(text string) error {
		_, err := LoadFixtures(strings.NewReader(text), describe(), "/v1", registry)
		return err
	}
	err := load("- endpoint: DELETE /favourites/{favouriteId}\n  vars: {favouriteId: a b}\n  responses: [{}]\n")
	require.NoError(t, err)
	if entry := hook.LastEntry(); assert.NotNil(t, entry) {
		assert.Equal(t, "loaded fixture", entry.Message)
		assert.Equal(t, "/favourites/a%20b", entry.Data["path"])
	}

	err = load("- endpoint: DELETE /favourites/{favouriteId}\n  responses: [{}]\n")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `no value for capture "favouriteId"`)
	}

	err = load("- endpoint: DELETE /favourites/{favouriteId}\n  vars: {favouriteId: \"1\", favoriteId: \"1\"}\n  responses: [{}]\n")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `"favoriteId" is not a capture`)
	}
	assert.Len(t, registry.Mocks(), 1)
}

// The client, mock and path derivations of any description agree on
// shape, and a client call through any endpoint reaches the mock
// installed through the same endpoint.
func TestDerivationsAgree(t *testing.T) {
	omit := []servo.Kind{servo.HeaderKind, servo.QueryKind, servo.BodyKind}
	g := servotest.NewGenerator(42)
	ctx := context.Background()
	for i := 0; i < 40; i++ {
		n := g.Tree(5)
		registry := NewRegistry()
		logger, _ := test.NewNullLogger()
		registry.Logger = logger
		mocks := Derive(n, "", registry)
		client := restclient.Derive(n, restclient.NewAccumulator(""), registry)

		shape := servotest.Shape(n)
		if !assert.Equal(t, shape, mocks.Signature(omit...)) ||
			!assert.Equal(t, shape, client.Signature(omit...)) ||
			!assert.Equal(t, shape, paths.Derive(n, "").Signature(omit...)) {
			continue
		}

		for j, e := range paths.Endpoints(n, "") {
			vars := make(map[string]interface{})
			for _, p := range e.Params {
				vars[servo.ParamName(p)] = servo.Sample(p)
			}
			endpoint, err := mocks.Select(e.Position, vars).Leaf()
			if !assert.NoError(t, err) {
				continue
			}
			m, err := endpoint.Respond(OK(e.String()))
			if !assert.NoError(t, err) {
				continue
			}
			resp, err := restclient.Do(ctx, client.Select(e.Position, vars))
			if assert.NoError(t, err, "endpoint %d %v", j, e) {
				assert.Equal(t, e.String(), resp.Data)
			}
			assert.Equal(t, 1, m.Hits())
		}
	}
}
