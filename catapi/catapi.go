// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package catapi describes the cat picture API at
// https://api.thecatapi.com/v1, and wraps the client and mocks
// derived from that description in typed facades.
//
// The description is built once and handed to both sides, so a test
// can serve a client entirely from mocks:
//
//     api := catapi.Describe()
//     registry := restmock.NewRegistry()
//     mocks := catapi.NewMocks(api, catapi.BaseURL, registry)
//     mocks.AllImages(restmock.OK(cats))
//     client := catapi.NewClient(api, catapi.BaseURL, key, registry, nil)
//     cats, err := client.Images(ctx, 100)
package catapi

import (
	"github.com/diffeo/go-servo/restclient"
	"github.com/diffeo/go-servo/servo"
)

// BaseURL is the root of the public API.
const BaseURL = "https://api.thecatapi.com/v1"

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "x-api-key"

// PaginationHeader holds the total number of votes.
const PaginationHeader = "pagination-count"

// Cat is an uploaded image.
type Cat struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Favourite marks an image as a favourite.
type Favourite struct {
	ID      string `json:"id"`
	ImageID string `json:"image_id"`
}

// Vote is an up (1) or down (0) vote on an image.
type Vote struct {
	Value   int    `json:"value"`
	ImageID string `json:"image_id"`
}

// NewFavourite is the body to create a favourite.
type NewFavourite struct {
	ImageID string `json:"image_id"`
}

// NewVote is the body to cast a vote.
type NewVote struct {
	ImageID string `json:"image_id"`
	Value   int    `json:"value"`
}

// Branch positions in the description.  Both facades navigate with
// these, so they must follow Describe.
const (
	keyed   = 0
	uploads = 1

	images     = 0
	favourites = 1
	votes      = 2

	listFavourites  = 0
	deleteFavourite = 1
	postFavourite   = 2

	listVotes = 0
	voteUp    = 1
	voteDown  = 2
)

// Describe returns the description of the API.
func Describe() servo.Node {
	return servo.Or(
		servo.Header(APIKeyHeader).Any(
			servo.Path("images").Query("limit", 0).Get(servo.OK([]Cat{})),
			servo.Path("favourites").Any(
				servo.Get(servo.OK([]Favourite{})),
				servo.Capture("favouriteId").Delete(servo.OK(nil)),
				servo.Body(servo.JSON, NewFavourite{}).Post(servo.OK(nil)),
			),
			servo.Path("votes").Any(
				servo.Get(servo.OK([]Vote{}).WithHeaders(PaginationHeader)),
				servo.Body(servo.JSON, NewVote{}).Post(servo.OK(nil)),
				servo.Body(servo.JSON, NewVote{}).Post(servo.OK(nil)),
			),
		),
		servo.Header(APIKeyHeader).Path("images").Path("upload").
			Body(servo.None, restclient.Payload{}).
			Post(servo.OK(nil), servo.BadRequest(nil)),
	).MustNode()
}
