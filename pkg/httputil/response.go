package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Serializer turns a response body into bytes
type Serializer interface {
	Marshal(v any) ([]byte, error)
}

// Encoder is implemented by values that stream themselves into a jx.Encoder
type Encoder interface {
	Encode(e *jx.Encoder)
}

// JSONSerializer encodes with jx when the value supports it and falls back
// to encoding/json for everything else
type JSONSerializer struct{}

// Marshal implements Serializer
func (JSONSerializer) Marshal(v any) ([]byte, error) {
	if enc, ok := v.(Encoder); ok {
		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		enc.Encode(e)
		out := make([]byte, len(e.Bytes()))
		copy(out, e.Bytes())
		return out, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal json")
	}
	return data, nil
}

// Write sends an already serialized JSON payload with the given status code.
// Extra headers are copied before the status line is written.
func Write(w http.ResponseWriter, status int, headers http.Header, payload []byte) error {
	for key, values := range headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		return errors.Wrap(err, "write body")
	}
	return nil
}

// JSON serializes data with the default serializer and writes it
func JSON(w http.ResponseWriter, status int, data interface{}) error {
	payload, err := JSONSerializer{}.Marshal(data)
	if err != nil {
		return err
	}
	return Write(w, status, nil, payload)
}
