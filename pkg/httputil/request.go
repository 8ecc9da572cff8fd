package httputil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
)

// MaxBodyBytes caps the request body read by Input
const MaxBodyBytes = 1 << 20

// ErrInvalidBody is returned when the request body is not a JSON object
var ErrInvalidBody = errors.New("request body must be a JSON object")

// Input returns all request input: query parameters merged with the JSON
// body, body keys winning. Numbers in the body are kept as json.Number.
// Repeated query parameters become []any.
func Input(r *http.Request) (map[string]any, error) {
	input := make(map[string]any)

	for key, values := range r.URL.Query() {
		if len(values) == 1 {
			input[key] = values[0]
			continue
		}
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		input[key] = list
	}

	if r.Body == nil {
		return input, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return input, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, errors.Wrap(ErrInvalidBody, err.Error())
	}
	for k, v := range body {
		input[k] = v
	}
	return input, nil
}

// Pagination holds parsed pagination values from query params
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination extracts page and limit from query params. Missing or
// invalid values fall back to page 1 and defaultLimit; limit is capped at maxLimit
// and never below 1.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = 1
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
