// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package openapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/diffeo/go-servo/paths"
	"github.com/diffeo/go-servo/restdata"
	"github.com/diffeo/go-servo/servo"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cat struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type newVote struct {
	ImageID string `json:"image_id"`
	Value   int    `json:"value"`
}

func describe() servo.Node {
	return servo.Header("x-api-key").Any(
		servo.Path("images").Query("limit", 0).Get(servo.OK([]cat{})),
		servo.Path("favourites").Capture("favouriteId").Delete(servo.OK(nil)),
		servo.Path("votes").Any(
			servo.Get(servo.OK([]newVote{}).WithHeaders("pagination-count")),
			servo.Body(servo.JSON, newVote{}).Post(servo.OK(nil)),
			servo.Body(servo.JSON, newVote{}).Post(servo.OK(nil)),
		),
		servo.Path("upload").Body(servo.Raw, nil).Post(
			servo.Created(nil).AsText(),
			servo.BadRequest(nil),
			servo.NoContent(),
		),
	).MustNode()
}

func TestExportValidates(t *testing.T) {
	doc, err := Export(describe(), &openapi3.Info{Title: "cats", Version: "1"})
	require.NoError(t, err)
	assert.Equal(t, Version, doc.OpenAPI)
	assert.NoError(t, doc.Validate(context.Background()))
	assert.Equal(t, 4, doc.Paths.Len())
}

func TestExportDefaultInfo(t *testing.T) {
	doc, err := Export(servo.Get(servo.OK(nil)).MustNode(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Info.Title)
	assert.NotNil(t, doc.Paths.Value("/"))
	assert.NoError(t, doc.Validate(context.Background()))
}

func TestParameters(t *testing.T) {
	doc, err := Export(describe(), nil)
	require.NoError(t, err)

	images := doc.Paths.Value("/images").Get
	require.NotNil(t, images)
	assert.Equal(t, "getImages", images.OperationID)
	key := images.Parameters.GetByInAndName(openapi3.ParameterInHeader, "x-api-key")
	if assert.NotNil(t, key) {
		assert.True(t, key.Required)
	}
	limit := images.Parameters.GetByInAndName(openapi3.ParameterInQuery, "limit")
	if assert.NotNil(t, limit) {
		assert.True(t, limit.Schema.Value.Type.Is(openapi3.TypeInteger))
	}

	del := doc.Paths.Value("/favourites/{favouriteId}").Delete
	require.NotNil(t, del)
	assert.Equal(t, "deleteFavouritesByFavouriteId", del.OperationID)
	id := del.Parameters.GetByInAndName(openapi3.ParameterInPath, "favouriteId")
	if assert.NotNil(t, id) {
		assert.True(t, id.Required)
	}
}

func TestBodiesAndResponses(t *testing.T) {
	doc, err := Export(describe(), nil)
	require.NoError(t, err)

	images := doc.Paths.Value("/images").Get
	ok := images.Responses.Status(http.StatusOK)
	require.NotNil(t, ok)
	schema := ok.Value.Content.Get(restdata.JSONMediaType).Schema.Value
	assert.True(t, schema.Type.Is(openapi3.TypeArray))
	assert.Contains(t, schema.Items.Value.Properties, "url")

	votes := doc.Paths.Value("/votes")
	list := votes.Get.Responses.Status(http.StatusOK).Value
	assert.Contains(t, list.Headers, "pagination-count")
	post := votes.Post.RequestBody.Value.Content.Get(restdata.JSONMediaType)
	if assert.NotNil(t, post) {
		assert.Contains(t, post.Schema.Value.Properties, "image_id")
	}

	upload := doc.Paths.Value("/upload").Post
	assert.NotNil(t, upload.RequestBody.Value.Content.Get(restdata.OctetStreamMediaType))
	assert.NotNil(t, upload.Responses.Status(http.StatusCreated).Value.Content.Get(restdata.TextMediaType))
	assert.Nil(t, upload.Responses.Status(http.StatusNoContent).Value.Content)
	assert.Equal(t, 3, upload.Responses.Len())
}

func TestDuplicateEndpointsCollapse(t *testing.T) {
	endpoints := paths.Endpoints(describe(), "")
	assert.Len(t, endpoints, 6)

	doc, err := Export(describe(), nil)
	require.NoError(t, err)
	count := 0
	for _, item := range doc.Paths.Map() {
		count += len(item.Operations())
	}
	assert.Equal(t, 5, count)
}

func TestOperationID(t *testing.T) {
	e := paths.Endpoint{Verb: "POST", Template: "/images/upload-cat/{image_id}"}
	assert.Equal(t, "postImagesUploadCatByImageId", OperationID(e))
}
