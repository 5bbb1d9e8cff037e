package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/leaflove/care-service/internal/api/validate"
	"github.com/leaflove/care-service/internal/model"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and validates it. An empty body is allowed
// when emptyOK is set and leaves dst untouched.
func decode(r *http.Request, dst any, emptyOK bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(emptyOK && errors.Is(err, io.EOF)) {
			return model.NewValidationError("body", "invalid JSON")
		}
	}
	return validate.Struct(dst)
}

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(name, name+" must be a non-negative integer")
	}
	return n, nil
}

// boolParam parses an optional boolean query parameter with a default.
func boolParam(r *http.Request, name string, def bool) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, model.NewValidationError(name, name+" must be true or false")
	}
	return b, nil
}
