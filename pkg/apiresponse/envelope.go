package apiresponse

import (
	"github.com/go-faster/jx"

	"github.com/orchestrix/apiresponder/pkg/validation"
)

// Envelope statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope kinds reported to metrics and traces
const (
	KindSuccess  = "success"
	KindError    = "error"
	KindErrorBag = "error_bag"
	KindRaw      = "raw"
)

// Message is the body of the success or error member of an envelope.
type Message struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Encode implements httputil.Encoder.
func (m Message) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("message")
	e.Str(m.Message)
	e.FieldStart("code")
	e.Int(m.Code)
	e.ObjEnd()
}

// Envelope is the top-level JSON object wrapping a success or error payload.
//
// Success: {"status":"success","success":{"message":m,"code":c}}
// Error:   {"status":"error","error":{"message":m,"code":c}}
// Bag:     {"status":"error","error":{...},"errors":{field:[messages]}}
type Envelope struct {
	status  string
	message Message
	errors  validation.Errors
	bag     bool
}

// Success builds a success envelope.
func Success(message string, code int) Envelope {
	return Envelope{status: StatusSuccess, message: Message{Message: message, Code: code}}
}

// Failure builds an error envelope.
func Failure(message string, code int) Envelope {
	return Envelope{status: StatusError, message: Message{Message: message, Code: code}}
}

// FailureWithErrors builds an error envelope carrying a validation error
// bag. The errors member is always present, null when errs is nil.
func FailureWithErrors(message string, code int, errs validation.Errors) Envelope {
	env := Failure(message, code)
	env.errors = errs
	env.bag = true
	return env
}

// Status returns "success" or "error".
func (e Envelope) Status() string { return e.status }

// Message returns the message member.
func (e Envelope) Message() string { return e.message.Message }

// Code returns the status code embedded in the body.
func (e Envelope) Code() int { return e.message.Code }

// Errors returns the validation error bag, nil unless built by FailureWithErrors.
func (e Envelope) Errors() validation.Errors { return e.errors }

// HasErrorBag reports whether the errors member is rendered.
func (e Envelope) HasErrorBag() bool { return e.bag }

// Kind classifies the envelope for metrics.
func (e Envelope) Kind() string {
	switch {
	case e.bag:
		return KindErrorBag
	case e.status == StatusSuccess:
		return KindSuccess
	default:
		return KindError
	}
}

// Encode implements httputil.Encoder.
func (e Envelope) Encode(enc *jx.Encoder) {
	enc.ObjStart()
	enc.FieldStart("status")
	enc.Str(e.status)
	if e.status == StatusSuccess {
		enc.FieldStart("success")
	} else {
		enc.FieldStart("error")
	}
	e.message.Encode(enc)
	if e.bag {
		enc.FieldStart("errors")
		e.errors.Encode(enc)
	}
	enc.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	enc := &jx.Encoder{}
	e.Encode(enc)
	return enc.Bytes(), nil
}
