package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// codedError carries the HTTP status and the message shown to the caller.
// The wrapped error is only logged.
type codedError struct {
	code    int
	message string
	err     error
}

func (e *codedError) Error() string {
	if e.err == nil {
		return e.message
	}
	return e.message + ": " + e.err.Error()
}

func (e *codedError) Unwrap() error { return e.err }

func CodedError(code int, message string, err error) error {
	return &codedError{code: code, message: message, err: err}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RestHandler adapts a handler returning a value or an error into an
// http.HandlerFunc that writes JSON.
func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if res == nil {
			res = struct{}{}
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

// WriteError logs err and writes it as {"error": "..."}. Errors that are not
// coded become a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *codedError
	if !errors.As(err, &cerr) {
		cerr = &codedError{code: http.StatusInternalServerError, message: "Internal server error", err: err}
	}

	logger := log.Ctx(r.Context())
	if cerr.code >= http.StatusInternalServerError {
		logger.Error().Err(cerr.err).Int("status", cerr.code).Msg(cerr.message)
	} else {
		logger.Debug().Err(cerr.err).Int("status", cerr.code).Msg(cerr.message)
	}
	WriteJSON(w, cerr.code, ErrorResponse{Error: cerr.message})
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error serializing response body")
	}
}
