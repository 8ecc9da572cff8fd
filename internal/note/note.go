// Package note is a small notes resource served through apiresponse.
package note

import (
	"fmt"
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/orchestrix/apiresponder/pkg/validation"
)

var ErrNotFound = errors.New("note not found")

// Rules validate note input. PATCH requests apply them reduced to the
// fields present in the body.
var Rules = validation.Rules{
	"title":       "required|string|min:3|max:120",
	"body":        "nullable|string|max:5000",
	"priority":    "integer|between:1,5",
	"tags":        "array|max:10",
	"remind_cron": "nullable|cron",
}

// Note is a titled piece of text with optional tags and reminder schedule
type Note struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Body       string    `json:"body" db:"body"`
	Priority   int       `json:"priority" db:"priority"`
	Tags       []string  `json:"tags" db:"tags"`
	RemindCron string    `json:"remind_cron,omitempty" db:"remind_cron"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// New builds a note from validated input
func New(input map[string]any, now time.Time) *Note {
	n := &Note{
		ID:        uuid.New(),
		Priority:  3,
		Tags:      []string{},
		CreatedAt: now,
	}
	n.Apply(input, now)
	return n
}

// Apply copies the fields present in validated input onto the note
func (n *Note) Apply(input map[string]any, now time.Time) {
	if v, ok := input["title"]; ok {
		n.Title = asString(v)
	}
	if v, ok := input["body"]; ok {
		n.Body = asString(v)
	}
	if v, ok := input["priority"]; ok {
		n.Priority = asInt(v)
	}
	if v, ok := input["tags"]; ok {
		n.Tags = asStrings(v)
	}
	if v, ok := input["remind_cron"]; ok {
		n.RemindCron = asString(v)
	}
	n.UpdatedAt = now
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// asInt reads numbers the way the integer rule accepts them, so "4" from a
// query string and 2.0 from a JSON body both convert.
func asInt(v any) int {
	f, ok := validation.Float(v)
	if !ok {
		return 0
	}
	return int(math.Round(f))
}

func asStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, asString(item))
	}
	return out
}
