// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package catapi

import (
	"github.com/diffeo/go-servo/restmock"
	"github.com/diffeo/go-servo/servo"
)

// Mocks installs canned cat API responses in a registry.  Each method
// takes the responses to serve in order, the last one repeating.
type Mocks struct {
	tree servo.Tree[*restmock.Endpoint]
}

// NewMocks derives mocks from the description node, as returned by
// Describe.  base must match the base clients use.
func NewMocks(node servo.Node, base string, registry *restmock.Registry) *Mocks {
	return &Mocks{tree: restmock.Derive(node, base, registry)}
}

func respond(tree servo.Tree[*restmock.Endpoint], canned []restmock.Canned) (*restmock.Mock, error) {
	endpoint, err := tree.Leaf()
	if err != nil {
		return nil, err
	}
	return endpoint.Respond(canned...)
}

func (m *Mocks) keyed() servo.Tree[*restmock.Endpoint] {
	return m.tree.Index(keyed)
}

// AllImages mocks listing images.
func (m *Mocks) AllImages(canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.keyed().Index(images), canned)
}

// AllFavourites mocks listing favourites.
func (m *Mocks) AllFavourites(canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.keyed().Index(favourites).Index(listFavourites), canned)
}

// DeleteFavourite mocks deleting the favourite with a specific ID.
func (m *Mocks) DeleteFavourite(favouriteID string, canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.keyed().Index(favourites).Index(deleteFavourite).Capture(favouriteID), canned)
}

// PostFavourite mocks creating a favourite.
func (m *Mocks) PostFavourite(canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.keyed().Index(favourites).Index(postFavourite), canned)
}

// AllVotes mocks listing votes.  Responses may carry the pagination
// header.
func (m *Mocks) AllVotes(canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.keyed().Index(votes).Index(listVotes), canned)
}

// VoteUp mocks casting an up vote.
//
// Up and down votes are the same request, so VoteUp and VoteDown
// install the same route and the later call replaces the earlier.
func (m *Mocks) VoteUp(canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.keyed().Index(votes).Index(voteUp), canned)
}

// VoteDown mocks casting a down vote.
func (m *Mocks) VoteDown(canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.keyed().Index(votes).Index(voteDown), canned)
}

// UploadCat mocks uploading an image.
func (m *Mocks) UploadCat(canned ...restmock.Canned) (*restmock.Mock, error) {
	return respond(m.tree.Index(uploads), canned)
}
