// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package cache holds responses of derived clients, keyed by the
// cache keys paths.Keys derives from the same description.  Writes
// drop every entry under their key so that the next read goes back to
// the server.
package cache

import (
	"container/list"
	"strings"
	"sync"

	"github.com/diffeo/go-servo/paths"
)

type entry struct {
	key   paths.Key
	value interface{}
}

// Queries is a least-recently-used cache with a fixed capacity.  The
// cache can be safely accessed from multiple goroutines.
type Queries struct {
	size      int
	lock      sync.RWMutex
	evictList *list.List
	index     map[string]*list.Element
}

// NewQueries creates a cache holding at most size entries.
func NewQueries(size int) *Queries {
	return &Queries{
		size:      size,
		evictList: list.New(),
		index:     make(map[string]*list.Element),
	}
}

// indexOf flattens a key.  Segments may contain slashes, so they are
// joined with a byte that cannot appear in a URL.
func indexOf(key paths.Key) string {
	return strings.Join(key, "\x00")
}

// Fetch retrieves an item from the cache.  If it is not present, calls
// the fetch function, and if that succeeds, saves the item and returns
// it.  This should return an error only if the item is not present and
// the fetch function returns an error.
func (q *Queries) Fetch(key paths.Key, fetch func() (interface{}, error)) (interface{}, error) {
	// This sadly happens under a writer lock, since we need to move
	// the item to the front of the list if it is present
	q.lock.Lock()
	defer q.lock.Unlock()

	// Is it there?
	if element, present := q.index[indexOf(key)]; present {
		q.evictList.MoveToBack(element)
		return element.Value.(*entry).value, nil
	}

	// Otherwise call the fetch function
	value, err := fetch()
	if err != nil {
		return value, err
	}
	q.add(key, value)
	return value, nil
}

// Peek looks for an item in the cache.  This runs under a reader
// lock, and so can run concurrently with itself but not calls to Put
// or Fetch.  This does not affect the recency of the item.
func (q *Queries) Peek(key paths.Key) (interface{}, bool) {
	q.lock.RLock()
	defer q.lock.RUnlock()

	if element, present := q.index[indexOf(key)]; present {
		return element.Value.(*entry).value, true
	}
	return nil, false
}

// Put adds an item to the cache, possibly evicting something.
func (q *Queries) Put(key paths.Key, value interface{}) {
	q.lock.Lock()
	defer q.lock.Unlock()

	// Are we just updating an existing item?
	if element, present := q.index[indexOf(key)]; present {
		element.Value.(*entry).value = value
		q.evictList.MoveToBack(element)
		return
	}

	// Otherwise add it
	q.add(key, value)
}

// Remove takes an item out of the cache.  It does nothing if that
// key does not exist.
func (q *Queries) Remove(key paths.Key) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if element, present := q.index[indexOf(key)]; present {
		q.remove(element)
	}
}

// Invalidate removes every item whose key starts with prefix and
// returns how many there were.
func (q *Queries) Invalidate(prefix paths.Key) int {
	q.lock.Lock()
	defer q.lock.Unlock()

	count := 0
	for element := q.evictList.Front(); element != nil; {
		next := element.Next()
		if element.Value.(*entry).key.HasPrefix(prefix) {
			q.remove(element)
			count++
		}
		element = next
	}
	return count
}

// Len returns the number of items in the cache.
func (q *Queries) Len() int {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return len(q.index)
}

// add is an internal helper, running under the write lock, that adds a
// new item to the cache.  The item is known to not already exist.
func (q *Queries) add(key paths.Key, value interface{}) {
	e := &entry{key: append(paths.Key(nil), key...), value: value}
	q.index[indexOf(key)] = q.evictList.PushBack(e)

	// If this caused the cache to go over size, start evicting items
	for len(q.index) > q.size {
		q.remove(q.evictList.Front())
	}
}

func (q *Queries) remove(element *list.Element) {
	delete(q.index, indexOf(element.Value.(*entry).key))
	q.evictList.Remove(element)
}
