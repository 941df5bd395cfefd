// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"github.com/ugorji/go/codec"
	"io"
	"io/ioutil"
	"mime"
	"reflect"
	"strings"
)

// NewJSONHandle returns the codec handle used for every JSON body.
// Objects decoded into an interface{} become map[string]interface{}.
func NewJSONHandle() *codec.JsonHandle {
	json := &codec.JsonHandle{}
	json.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return json
}

// EncodeJSON returns the JSON encoding of v.
func EncodeJSON(v interface{}) ([]byte, error) {
	var out []byte
	encoder := codec.NewEncoderBytes(&out, NewJSONHandle())
	err := encoder.Encode(v)
	return out, err
}

// WriteJSON writes the JSON encoding of v to w.
func WriteJSON(w io.Writer, v interface{}) error {
	encoder := codec.NewEncoder(w, NewJSONHandle())
	return encoder.Encode(v)
}

// DecodeJSON decodes a JSON byte string into out, which must be of
// pointer type.
func DecodeJSON(in []byte, out interface{}) error {
	decoder := codec.NewDecoderBytes(in, NewJSONHandle())
	return decoder.Decode(out)
}

// Decode tries to decode an object from a reader, such as an HTTP
// request or response.  out must be a pointer type.  JSON media types
// are decoded with the codec library.  Text bodies may be decoded
// into a *string, and any body into a *[]byte or *interface{}, in
// which case non-JSON bodies produce a string.
func Decode(contentType string, r io.Reader, out interface{}) error {
	if contentType == "" {
		// RFC 7231 section 3.1.1.5
		contentType = OctetStreamMediaType
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ErrBadRequest{Err: err}
	}

	switch mediaType {
	case "text/json", JSONMediaType:
		if raw, isBytes := out.(*[]byte); isBytes {
			*raw, err = ioutil.ReadAll(r)
			return err
		}
		decoder := codec.NewDecoder(r, NewJSONHandle())
		return decoder.Decode(out)
	}

	body, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	switch o := out.(type) {
	case *[]byte:
		*o = body
	case *string:
		if !isText(mediaType) {
			return ErrUnsupportedMediaType{Type: mediaType}
		}
		*o = string(body)
	case *interface{}:
		*o = string(body)
	default:
		return ErrUnsupportedMediaType{Type: mediaType}
	}
	return nil
}

// IsJSON reports whether a Content-Type: header names JSON.
func IsJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mediaType == JSONMediaType || mediaType == "text/json")
}

func isText(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/")
}
