// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package cache

import (
	"github.com/diffeo/go-servo/paths"
	"github.com/stretchr/testify/assert"
	"strings"
	"testing"
)

func key(s string) paths.Key {
	return paths.Key(strings.Split(s, "/"))
}

func Make(k paths.Key) func() (interface{}, error) {
	return func() (interface{}, error) {
		return k.String(), nil
	}
}

func DoNotMake() (interface{}, error) {
	return nil, assert.AnError
}

type QueriesAssertions struct {
	*assert.Assertions
	Queries *Queries
}

func NewQueriesAssertions(t assert.TestingT, size int) *QueriesAssertions {
	return &QueriesAssertions{
		assert.New(t),
		NewQueries(size),
	}
}

// PutKey adds an item for a key to the cache.
func (a *QueriesAssertions) PutKey(k string) {
	a.Queries.Put(key(k), k)
}

// FetchKey fetches an item from the cache; if not present, it is
// added.
func (a *QueriesAssertions) FetchKey(k string) {
	item, err := a.Queries.Fetch(key(k), Make(key(k)))
	if a.NoError(err) {
		a.Equal(k, item)
	}
}

// FetchPresent fetches an item from the cache; if not present, it
// should produce an assertion error.
func (a *QueriesAssertions) FetchPresent(k string) {
	item, err := a.Queries.Fetch(key(k), DoNotMake)
	if a.NoError(err) {
		a.Equal(k, item)
	}
}

// FetchError tries to fetch an item from the cache, but it should not
// exist, and the resulting error will be caught.
func (a *QueriesAssertions) FetchError(k string) {
	_, err := a.Queries.Fetch(key(k), DoNotMake)
	a.Error(err)
}

// Has asserts that an item for a key is in the cache.
func (a *QueriesAssertions) Has(k string) {
	item, present := a.Queries.Peek(key(k))
	if a.True(present, "missing %v", k) {
		a.Equal(k, item)
	}
}

// DoesNotHave asserts that no item for a key is in the cache.
func (a *QueriesAssertions) DoesNotHave(k string) {
	_, present := a.Queries.Peek(key(k))
	a.False(present, "unexpected %v", k)
}

// TestSimple tests minimal object presence.
func TestSimple(t *testing.T) {
	a := NewQueriesAssertions(t, 2)
	a.PutKey("images")

	a.Has("images")
	a.DoesNotHave("votes")
}

// TestAutoInsert tests Fetch() adding absent items.
func TestAutoInsert(t *testing.T) {
	a := NewQueriesAssertions(t, 2)

	// Fetch (and insert) two keys
	a.FetchKey("images")
	a.FetchKey("votes")

	a.Has("images")
	a.Has("votes")

	// Now add one more; since it is a third one, the oldest
	// (images) should be evicted
	a.FetchKey("favourites")
	a.DoesNotHave("images")
	a.Has("votes")
	a.Has("favourites")
	a.Equal(2, a.Queries.Len())
}

func TestInsertError(t *testing.T) {
	a := NewQueriesAssertions(t, 2)

	a.FetchKey("images")
	a.FetchKey("votes")

	// Now try to add "favourites", but the fetch function will
	// return an error
	a.FetchError("favourites")
	// Since no item was added, nothing will be evicted
	a.Has("images")
	a.Has("votes")
	a.DoesNotHave("favourites")

	// We can call the erroring version of Fetch() but since the
	// item is present it will not fail
	a.FetchPresent("images")
	a.FetchPresent("votes")
}

// TestOrder tests that fetching an item causes it to not get evicted.
func TestOrder(t *testing.T) {
	a := NewQueriesAssertions(t, 2)

	a.FetchKey("images")
	a.FetchKey("votes")

	// Do an *additional* fetch for images, so it is more-recently-used
	a.FetchKey("images")

	// Now when we add favourites, votes gets pushed out
	a.FetchKey("favourites")
	a.Has("images")
	a.DoesNotHave("votes")
	a.Has("favourites")
}

// TestRemoval does simple tests on the Remove call.
func TestRemoval(t *testing.T) {
	a := NewQueriesAssertions(t, 2)

	a.FetchKey("images")
	a.Has("images")
	a.Queries.Remove(key("images"))
	a.DoesNotHave("images")

	a.Queries.Remove(key("votes"))
	a.DoesNotHave("votes")

	// Also if we remove a more-recent thing, the
	// older-but-present thing shouldn't get evicted
	a.FetchKey("images")
	a.FetchKey("votes")
	a.Queries.Remove(key("votes"))
	a.FetchKey("favourites")
	a.Has("images")
	a.DoesNotHave("votes")
	a.Has("favourites")
}

func TestInvalidate(t *testing.T) {
	a := NewQueriesAssertions(t, 10)
	a.FetchKey("favourites")
	a.FetchKey("favourites/1")
	a.FetchKey("favourites/2")
	a.FetchKey("favouritesx")
	a.FetchKey("images")

	a.Equal(3, a.Queries.Invalidate(key("favourites")))
	a.DoesNotHave("favourites")
	a.DoesNotHave("favourites/1")
	a.DoesNotHave("favourites/2")
	a.Has("favouritesx")
	a.Has("images")

	a.Equal(0, a.Queries.Invalidate(key("votes")))
	a.Equal(2, a.Queries.Invalidate(nil))
	a.Equal(0, a.Queries.Len())
}

// A capture value containing a slash is a single segment.
func TestSegmentsAreDistinct(t *testing.T) {
	q := NewQueries(10)
	q.Put(paths.Key{"a/b"}, 1)
	q.Put(paths.Key{"a", "b"}, 2)
	v, _ := q.Peek(paths.Key{"a/b"})
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, q.Invalidate(paths.Key{"a"}))
}
