package api

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// ParseRequest decodes a JSON or urlencoded form body into T.
func ParseRequest[T any](r *http.Request) (T, error) {
	var data T

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return data, CodedError(http.StatusBadRequest, "Invalid request body", err)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			return data, CodedError(http.StatusBadRequest, "Invalid request body", err)
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return data, CodedError(http.StatusBadRequest, "Invalid request body", err)
		}
		if err := formDecoder.Decode(&data, r.PostForm); err != nil {
			return data, CodedError(http.StatusBadRequest, "Invalid request body", err)
		}
	default:
		return data, CodedError(http.StatusUnsupportedMediaType, "Unsupported content type",
			errors.Errorf("content type %q", mediaType))
	}
	return data, nil
}
