// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package catapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/diffeo/go-servo/cache"
	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
)

// Client is a typed client for the cat API.  Reads are kept in an
// optional query cache; every write invalidates the keys under the
// collection it changes.
type Client struct {
	root  servo.Tree[*restclient.Call]
	api   servo.Tree[*restclient.Call]
	key   string
	keys  servo.Tree[paths.Key]
	cache *cache.Queries
}

// NewClient derives a client from the description node, as returned
// by Describe.  Requests go to base through exec and carry apiKey.
// queries may be nil to disable caching.
func NewClient(node servo.Node, base, apiKey string, exec restclient.Executor, queries *cache.Queries) *Client {
	tree := restclient.Derive(node, restclient.NewAccumulator(base), exec)
	return &Client{
		root:  tree,
		api:   tree.Index(keyed).Header(apiKey),
		key:   apiKey,
		keys:  paths.Keys(node).Index(keyed),
		cache: queries,
	}
}

func (c *Client) fetch(key paths.Key, fetch func() (interface{}, error)) (interface{}, error) {
	if c.cache == nil {
		return fetch()
	}
	return c.cache.Fetch(key, fetch)
}

func (c *Client) invalidate(tree servo.Tree[paths.Key]) {
	if c.cache == nil {
		return
	}
	key, err := tree.Leaf()
	if err == nil {
		c.cache.Invalidate(key)
	}
}

func (c *Client) cacheKey(tree servo.Tree[paths.Key], extra ...string) (paths.Key, error) {
	key, err := tree.Leaf()
	if err != nil {
		return nil, err
	}
	return append(key, extra...), nil
}

func list(ctx context.Context, call servo.Tree[*restclient.Call], out interface{}) (*restclient.Response, error) {
	resp, err := restclient.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	return resp, resp.Decode(out)
}

// Images lists up to limit uploaded images.
func (c *Client) Images(ctx context.Context, limit int) ([]Cat, error) {
	key, err := c.cacheKey(c.keys.Index(images), "limit="+strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	cats, err := c.fetch(key, func() (interface{}, error) {
		var cats []Cat
		_, err := list(ctx, c.api.Index(images).Query(limit), &cats)
		return cats, err
	})
	if err != nil {
		return nil, err
	}
	return append([]Cat(nil), cats.([]Cat)...), nil
}

// Favourites lists the favourited images.
func (c *Client) Favourites(ctx context.Context) ([]Favourite, error) {
	key, err := c.cacheKey(c.keys.Index(favourites).Index(listFavourites))
	if err != nil {
		return nil, err
	}
	favs, err := c.fetch(key, func() (interface{}, error) {
		var favs []Favourite
		_, err := list(ctx, c.api.Index(favourites).Index(listFavourites), &favs)
		return favs, err
	})
	if err != nil {
		return nil, err
	}
	return append([]Favourite(nil), favs.([]Favourite)...), nil
}

// DeleteFavourite removes a favourite by its own ID, not the image ID.
func (c *Client) DeleteFavourite(ctx context.Context, favouriteID string) error {
	call := c.api.Index(favourites).Index(deleteFavourite).Capture(favouriteID)
	if _, err := restclient.Do(ctx, call); err != nil {
		return err
	}
	c.invalidate(c.keys.Index(favourites).Index(listFavourites))
	return nil
}

// PostFavourite favourites an image.
func (c *Client) PostFavourite(ctx context.Context, imageID string) error {
	call := c.api.Index(favourites).Index(postFavourite).Body(NewFavourite{ImageID: imageID})
	if _, err := restclient.Do(ctx, call); err != nil {
		return err
	}
	c.invalidate(c.keys.Index(favourites).Index(listFavourites))
	return nil
}

type votePage struct {
	votes []Vote
	total int
}

// Votes lists the votes cast, along with the total the server
// reports in its pagination header.  If the header is missing, the
// total is the number of votes returned.
func (c *Client) Votes(ctx context.Context) ([]Vote, int, error) {
	key, err := c.cacheKey(c.keys.Index(votes).Index(listVotes))
	if err != nil {
		return nil, 0, err
	}
	page, err := c.fetch(key, func() (interface{}, error) {
		var page votePage
		resp, err := list(ctx, c.api.Index(votes).Index(listVotes), &page.votes)
		if err != nil {
			return nil, err
		}
		page.total = len(page.votes)
		if count, present := resp.Headers[PaginationHeader]; present {
			page.total, err = strconv.Atoi(count)
			if err != nil {
				return nil, fmt.Errorf("bad %s header: %w", PaginationHeader, err)
			}
		}
		return page, nil
	})
	if err != nil {
		return nil, 0, err
	}
	cast := append([]Vote(nil), page.(votePage).votes...)
	return cast, page.(votePage).total, nil
}

func (c *Client) vote(ctx context.Context, position int, imageID string, value int) error {
	call := c.api.Index(votes).Index(position).Body(NewVote{ImageID: imageID, Value: value})
	if _, err := restclient.Do(ctx, call); err != nil {
		return err
	}
	c.invalidate(c.keys.Index(votes).Index(listVotes))
	return nil
}

// VoteUp casts an up vote for an image.
func (c *Client) VoteUp(ctx context.Context, imageID string) error {
	return c.vote(ctx, voteUp, imageID, 1)
}

// VoteDown casts a down vote for an image.
func (c *Client) VoteDown(ctx context.Context, imageID string) error {
	return c.vote(ctx, voteDown, imageID, 0)
}

// Upload sends a new image as the "file" part of a multipart form.  A
// rejected upload returns a restdata.ErrBadRequest carrying the
// server's message.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err = part.Write(data); err != nil {
		return err
	}
	if err = form.Close(); err != nil {
		return err
	}
	payload := restclient.Payload{ContentType: form.FormDataContentType(), Data: buf.Bytes()}

	// The upload branch has its own header node.
	call := c.root.Index(uploads).Header(c.key).Body(payload)
	resp, err := restclient.Do(ctx, call)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusBadRequest {
		var reason struct {
			Message string `json:"message"`
		}
		message := "upload rejected"
		if resp.Decode(&reason) == nil && reason.Message != "" {
			message = reason.Message
		}
		return restdata.ErrBadRequest{Err: errors.New(message)}
	}
	c.invalidate(c.keys.Index(images))
	return nil
}
