// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package servo

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cat struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// kinds lists the node kinds of a description in walk order.
func kinds(n Node) []Kind {
	var result []Kind
	_ = Walk(n, func(n Node) error {
		result = append(result, n.Kind())
		return nil
	})
	return result
}

func TestBuilderShape(t *testing.T) {
	n, err := Header("x-api-key").Any(
		Path("images").Query("limit", 0).Get(OK([]cat{})),
		Path("favourites").Capture("favouriteId").Delete(OK(nil)),
	).Node()
	require.NoError(t, err)

	assert.Equal(t, []Kind{
		HeaderKind, AnyKind,
		PathKind, QueryKind, MethodKind,
		PathKind, CaptureKind, MethodKind,
	}, kinds(n))

	header := n.(*HeaderNode)
	assert.Equal(t, "x-api-key", header.Name())
	alternatives := header.Next().(*AnyNode).Alternatives()
	require.Len(t, alternatives, 2)

	images := alternatives[0].(*PathNode)
	assert.Equal(t, "images", images.Segment())
	limit := images.Next().(*QueryNode)
	assert.Equal(t, "limit", limit.Name())
	assert.Equal(t, reflect.TypeOf(0), limit.Type())
	get := limit.Next().(*MethodNode)
	assert.Equal(t, http.MethodGet, get.Verb())
	if assert.Len(t, get.Responses(), 1) {
		assert.Equal(t, http.StatusOK, get.Responses()[0].StatusCode())
		assert.Equal(t, reflect.TypeOf([]cat{}), get.Responses()[0].Type())
	}
}

func TestBuilderIsImmutable(t *testing.T) {
	prefix := Path("votes")
	up := prefix.Body(JSON, nil).Post(OK(nil)).MustNode()
	all := prefix.Get(OK(nil)).MustNode()

	assert.Equal(t, []Kind{PathKind, BodyKind, MethodKind}, kinds(up))
	assert.Equal(t, []Kind{PathKind, MethodKind}, kinds(all))
}

func TestDuplicateStatus(t *testing.T) {
	_, err := Get(OK(cat{}), OK([]cat{})).Node()
	var dup *ErrDuplicateStatus
	if assert.True(t, errors.As(err, &dup)) {
		assert.Equal(t, http.MethodGet, dup.Verb)
		assert.Equal(t, http.StatusOK, dup.Status)
	}

	_, err = NewMethodNode(http.MethodGet, OK(nil), BadRequest(nil))
	assert.NoError(t, err)
}

func TestDuplicateStatusPropagates(t *testing.T) {
	leaf := Path("a").Any(
		Get(OK(nil)),
		Post(ServerError(nil), ServerError(nil)),
	)
	assert.Error(t, leaf.Err())
	assert.Panics(t, func() { leaf.MustNode() })

	leaf = Or(Get(OK(nil), OK(nil)), Get(OK(nil)))
	_, err := leaf.Node()
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	m, err := NewMethodNode(http.MethodGet, OK(nil), BadRequest(nil).WithHeaders("x-reason"))
	require.NoError(t, err)

	r, ok := m.Match(http.StatusBadRequest)
	if assert.True(t, ok) {
		assert.Equal(t, []string{"x-reason"}, r.Headers())
	}
	_, ok = m.Match(http.StatusNotFound)
	assert.False(t, ok)
}

func TestResponseCopies(t *testing.T) {
	base := OK(nil).WithHeaders("a")
	more := base.WithHeaders("b")
	assert.Equal(t, []string{"a"}, base.Headers())
	assert.Equal(t, []string{"a", "b"}, more.Headers())
	assert.False(t, base.Text())
	assert.True(t, base.AsText().Text())
}

func TestWalkStops(t *testing.T) {
	n := Any(Get(), Post(), Delete()).MustNode()
	stop := errors.New("stop")
	count := 0
	err := Walk(n, func(n Node) error {
		count++
		if n.Kind() == MethodKind {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 2, count)
}
