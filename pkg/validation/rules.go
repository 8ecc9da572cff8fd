package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// Rules maps a field name to a pipe-separated rule spec, e.g. "required|email".
type Rules map[string]string

// RuleFunc checks value against one rule. args are the comma-separated
// parameters after the colon; rules lists every rule name declared on the field.
type RuleFunc func(v *Validator, field string, value any, args []string, rules []string)

type rule struct {
	name string
	args []string
}

// Engine applies rule sets to input maps.
type Engine struct {
	rules map[string]RuleFunc
}

// NewEngine creates an engine with the built-in rules registered.
func NewEngine() *Engine {
	e := &Engine{rules: make(map[string]RuleFunc)}
	e.rules["required"] = noop
	e.rules["nullable"] = noop
	e.rules["sometimes"] = noop
	e.rules["string"] = checkString
	e.rules["numeric"] = checkNumeric
	e.rules["integer"] = checkInteger
	e.rules["boolean"] = checkBoolean
	e.rules["array"] = checkArray
	e.rules["email"] = stringRule(func(v *Validator, field, s string, _ []string) { v.Email(field, s) })
	e.rules["uuid"] = stringRule(func(v *Validator, field, s string, _ []string) { v.UUID(field, s) })
	e.rules["json"] = stringRule(func(v *Validator, field, s string, _ []string) { v.JSON(field, s) })
	e.rules["cron"] = stringRule(func(v *Validator, field, s string, _ []string) { v.CronExpression(field, s) })
	e.rules["regex"] = stringRule(func(v *Validator, field, s string, args []string) {
		v.Pattern(field, s, strings.Join(args, ","), fmt.Sprintf("%s format is invalid", field))
	})
	e.rules["in"] = checkIn
	e.rules["min"] = checkMin
	e.rules["max"] = checkMax
	e.rules["between"] = checkBetween
	e.rules["size"] = checkSize
	return e
}

// Extend registers a custom rule. Not safe to call concurrently with Validate.
func (e *Engine) Extend(name string, fn RuleFunc) {
	e.rules[name] = fn
}

// Validate applies rules to input. Fields are visited in sorted order.
func (e *Engine) Validate(input map[string]any, rules Rules) *Result {
	v := New()

	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		e.validateField(v, field, input, rules[field])
	}

	return &Result{errors: v.Bag()}
}

func (e *Engine) validateField(v *Validator, field string, input map[string]any, spec string) {
	parsed, err := parseRules(spec)
	if err != nil {
		v.AddError(field, err.Error())
		return
	}

	names := make([]string, len(parsed))
	for i, r := range parsed {
		names[i] = r.name
	}

	value, present := input[field]
	if contains(names, "required") && isEmpty(value, present) {
		v.AddError(field, fmt.Sprintf("%s is required", field))
		return
	}
	if !present {
		return
	}
	if value == nil && contains(names, "nullable") {
		return
	}

	for _, r := range parsed {
		fn, ok := e.rules[r.name]
		if !ok {
			v.AddError(field, fmt.Sprintf("%s has unknown rule %q", field, r.name))
			continue
		}
		fn(v, field, value, r.args, names)
	}
}

// Result is the outcome of a Validate call.
type Result struct {
	errors Errors
}

// Errors returns the field error bag. It is empty, never nil, when validation passed.
func (r *Result) Errors() Errors {
	return r.errors
}

// Passes reports whether every rule held.
func (r *Result) Passes() bool {
	return len(r.errors) == 0
}

// Fails reports whether any rule failed.
func (r *Result) Fails() bool {
	return !r.Passes()
}

// Err returns a *ValidationError on failure and nil otherwise.
func (r *Result) Err() error {
	if r.Passes() {
		return nil
	}
	return &ValidationError{Fields: r.errors}
}

// Reduce keeps only the rules whose field is present in input.
func Reduce(rules Rules, input map[string]any) Rules {
	reduced := make(Rules, len(rules))
	for field, spec := range rules {
		if _, ok := input[field]; ok {
			reduced[field] = spec
		}
	}
	return reduced
}

func parseRules(spec string) ([]rule, error) {
	var out []rule
	segments := strings.Split(spec, "|")
	for i := 0; i < len(segments); i++ {
		seg := strings.TrimSpace(segments[i])
		if seg == "" {
			continue
		}
		name, params, hasParams := strings.Cut(seg, ":")
		if name == "regex" {
			// the pattern may contain pipes; it consumes the rest of the spec
			pattern := strings.Join(append([]string{params}, segments[i+1:]...), "|")
			out = append(out, rule{name: name, args: []string{pattern}})
			break
		}
		r := rule{name: name}
		if hasParams {
			r.args = strings.Split(params, ",")
		}
		if err := checkArity(r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func checkArity(r rule) error {
	want := 0
	switch r.name {
	case "min", "max", "size":
		want = 1
	case "between":
		want = 2
	case "in":
		if len(r.args) == 0 {
			return errors.New("rule in requires at least one value")
		}
		return nil
	default:
		return nil
	}
	if len(r.args) != want {
		return errors.Errorf("rule %s requires %d parameter(s)", r.name, want)
	}
	for _, a := range r.args {
		if _, err := strconv.ParseFloat(a, 64); err != nil {
			return errors.Wrapf(err, "rule %s parameter %q", r.name, a)
		}
	}
	return nil
}

func noop(*Validator, string, any, []string, []string) {}

func stringRule(fn func(v *Validator, field, s string, args []string)) RuleFunc {
	return func(v *Validator, field string, value any, args []string, _ []string) {
		s, ok := value.(string)
		if !ok {
			v.AddError(field, fmt.Sprintf("%s must be a string", field))
			return
		}
		fn(v, field, s, args)
	}
}

func checkString(v *Validator, field string, value any, _ []string, _ []string) {
	_, ok := value.(string)
	v.Custom(field, ok, fmt.Sprintf("%s must be a string", field))
}

func checkNumeric(v *Validator, field string, value any, _ []string, _ []string) {
	_, ok := Float(value)
	v.Custom(field, ok, fmt.Sprintf("%s must be a number", field))
}

func checkInteger(v *Validator, field string, value any, _ []string, _ []string) {
	f, ok := Float(value)
	v.Custom(field, ok && f == math.Trunc(f), fmt.Sprintf("%s must be an integer", field))
}

func checkBoolean(v *Validator, field string, value any, _ []string, _ []string) {
	ok := false
	switch b := value.(type) {
	case bool:
		ok = true
	case string:
		ok = b == "true" || b == "false" || b == "1" || b == "0"
	default:
		if f, isNum := Float(value); isNum {
			ok = f == 0 || f == 1
		}
	}
	v.Custom(field, ok, fmt.Sprintf("%s must be true or false", field))
}

func checkArray(v *Validator, field string, value any, _ []string, _ []string) {
	_, ok := count(value)
	v.Custom(field, ok, fmt.Sprintf("%s must be an array", field))
}

func checkIn(v *Validator, field string, value any, args []string, _ []string) {
	switch value.(type) {
	case string, bool, json.Number, float64, float32, int, int32, int64:
		v.Enum(field, fmt.Sprint(value), args)
	default:
		v.AddError(field, fmt.Sprintf("%s must be one of: %s", field, strings.Join(args, ", ")))
	}
}

func checkMin(v *Validator, field string, value any, args []string, rules []string) {
	limit, _ := strconv.ParseFloat(args[0], 64)
	switch kind, n := measure(value, rules); kind {
	case sizeNumber:
		v.Min(field, n, limit)
	case sizeItems:
		v.MinItems(field, int(n), int(limit))
	case sizeLength:
		v.MinLength(field, value.(string), int(limit))
	}
}

func checkMax(v *Validator, field string, value any, args []string, rules []string) {
	limit, _ := strconv.ParseFloat(args[0], 64)
	switch kind, n := measure(value, rules); kind {
	case sizeNumber:
		v.Max(field, n, limit)
	case sizeItems:
		v.MaxItems(field, int(n), int(limit))
	case sizeLength:
		v.MaxLength(field, value.(string), int(limit))
	}
}

func checkBetween(v *Validator, field string, value any, args []string, rules []string) {
	lo, _ := strconv.ParseFloat(args[0], 64)
	hi, _ := strconv.ParseFloat(args[1], 64)
	switch kind, n := measure(value, rules); kind {
	case sizeNumber:
		v.Range(field, n, lo, hi)
	case sizeItems:
		v.Custom(field, n >= lo && n <= hi, fmt.Sprintf("%s must have between %g and %g items", field, lo, hi))
	case sizeLength:
		v.Custom(field, n >= lo && n <= hi, fmt.Sprintf("%s must be between %g and %g characters", field, lo, hi))
	}
}

func checkSize(v *Validator, field string, value any, args []string, rules []string) {
	want, _ := strconv.ParseFloat(args[0], 64)
	switch kind, n := measure(value, rules); kind {
	case sizeNumber:
		v.Custom(field, n == want, fmt.Sprintf("%s must be %g", field, want))
	case sizeItems:
		v.Custom(field, n == want, fmt.Sprintf("%s must contain %g items", field, want))
	case sizeLength:
		v.Length(field, value.(string), int(want))
	}
}

type sizeKind int

const (
	sizeNone sizeKind = iota
	sizeNumber
	sizeItems
	sizeLength
)

// measure decides how a size rule reads value: numerically when the field
// declares numeric or integer, by element count for arrays, by rune count
// for strings. A value that fails its declared numeric type is not measured.
func measure(value any, rules []string) (sizeKind, float64) {
	if contains(rules, "numeric") || contains(rules, "integer") {
		if f, ok := Float(value); ok {
			return sizeNumber, f
		}
		return sizeNone, 0
	}
	if n, ok := count(value); ok {
		return sizeItems, float64(n)
	}
	if s, ok := value.(string); ok {
		return sizeLength, float64(len([]rune(s)))
	}
	if f, ok := Float(value); ok {
		return sizeNumber, f
	}
	return sizeNone, 0
}

// Float reads value as a number the way the numeric rules do: Go numbers,
// json.Number and numeric strings.
func Float(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func count(value any) (int, bool) {
	switch a := value.(type) {
	case []any:
		return len(a), true
	case []string:
		return len(a), true
	case map[string]any:
		return len(a), true
	default:
		return 0, false
	}
}

func isEmpty(value any, present bool) bool {
	if !present || value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	if n, ok := count(value); ok {
		return n == 0
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
