package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Chain(t *testing.T) {
	t.Run("collects errors in order", func(t *testing.T) {
		v := New().
			Required("name", " ").
			MinLength("code", "ab", 3).
			UUID("id", "not-a-uuid")

		require.True(t, v.HasErrors())
		errs := v.Errors()
		require.Len(t, errs, 3)
		assert.Equal(t, FieldError{Field: "name", Message: "name is required"}, errs[0])
		assert.Equal(t, "code", errs[1].Field)
		assert.Equal(t, "id must be a valid UUID", errs[2].Message)
	})

	t.Run("no errors for valid input", func(t *testing.T) {
		v := New().
			Required("name", "orchestrix").
			Email("email", "ops@example.com").
			Enum("status", "active", []string{"draft", "active"}).
			Range("priority", 3, 1, 5)

		assert.False(t, v.HasErrors())
		assert.NoError(t, v.Error())
	})

	t.Run("bag groups messages by field", func(t *testing.T) {
		v := New().
			MinLength("title", "a", 3).
			Pattern("title", "a", `^[A-Z]`, "title must start with a capital")

		bag := v.Bag()
		assert.Equal(t, []string{
			"title must be at least 3 characters",
			"title must start with a capital",
		}, bag["title"])
	})
}

func TestValidator_CronExpression(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "empty is allowed", value: "", valid: true},
		{name: "shortcut", value: "@daily", valid: true},
		{name: "unknown shortcut", value: "@sometimes", valid: false},
		{name: "five fields", value: "*/5 * * * *", valid: true},
		{name: "six fields", value: "0 */5 * * * *", valid: true},
		{name: "too few fields", value: "* *", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New().CronExpression("schedule", tt.value)
			assert.Equal(t, tt.valid, !v.HasErrors())
		})
	}
}

func TestValidate(t *testing.T) {
	err := Validate(func(v *Validator) {
		v.Required("name", "")
		v.If(true, func(v *Validator) {
			v.Max("limit", 500, 100)
		})
	})

	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name is required", verr.Fields.First("name"))
	assert.Equal(t, "limit must not exceed 100", verr.Fields.First("limit"))
	assert.Equal(t, "validation failed: limit: limit must not exceed 100; name: name is required", err.Error())

	assert.NoError(t, Validate(func(v *Validator) {
		v.Required("name", "ok")
	}))
}

func TestErrors_MarshalJSON(t *testing.T) {
	bag := Errors{}
	bag.Add("title", "title is required")
	bag.Add("age", "age must be a number")
	bag.Add("age", "age must be at least 18")

	data, err := bag.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"age":["age must be a number","age must be at least 18"],"title":["title is required"]}`, string(data))

	var empty Errors
	data, err = empty.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
