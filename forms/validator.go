package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mbolis/formdesk/model"
)

// Validate checks a candidate response set against the form's fields and returns the
// answers to store, in field order.
//
// For each field the first candidate with the same name is used; candidates naming
// no field are ignored. A required field with no candidate or an empty value fails
// the whole submission. Optional fields left empty are left out of the result, never
// defaulted. The first offending field stops validation.
func Validate(fields []model.FieldSchema, candidates []model.Candidate) ([]model.Answer, error) {
	answers := make([]model.Answer, 0, len(fields))
	for _, field := range fields {
		c, found := lookup(candidates, field.FieldName)
		if !found || isEmpty(c.Value) {
			if field.Required {
				return nil, NewRuleError(ErrCodeRequiredFieldMissing, field.FieldName, field.Label+" is required")
			}
			continue
		}

		value, err := resolve(field, c.Value)
		if err != nil {
			return nil, err
		}
		answers = append(answers, model.Answer{FieldName: field.FieldName, Value: value})
	}
	return answers, nil
}

func lookup(candidates []model.Candidate, name string) (model.Candidate, bool) {
	for _, c := range candidates {
		if c.FieldName == name {
			return c, true
		}
	}
	return model.Candidate{}, false
}

// isEmpty reports whether a raw value counts as unanswered: absent, null, "" or [].
// 0 and false are answers.
func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	switch raw[0] {
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s == ""
	case '[':
		var xs []json.RawMessage
		return json.Unmarshal(raw, &xs) == nil && len(xs) == 0
	}
	return false
}

// resolve turns a raw, non-empty value into the Value variant of the field's type.
func resolve(field model.FieldSchema, raw json.RawMessage) (model.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return model.Value{}, mismatch(field, "is not a valid value")
	}

	switch field.FieldType {
	case model.FieldText, model.FieldTextarea:
		s, ok := asText(v)
		if !ok {
			return model.Value{}, mismatch(field, "must be text")
		}
		if err := checkString(field, s); err != nil {
			return model.Value{}, err
		}
		return model.Text(s), nil

	case model.FieldEmail:
		s, ok := v.(string)
		if !ok || !IsEmailAddress(s) {
			return model.Value{}, mismatch(field, "must be a valid email address")
		}
		if err := checkString(field, s); err != nil {
			return model.Value{}, err
		}
		return model.Text(s), nil

	case model.FieldNumber:
		n, ok := asNumber(v)
		if !ok {
			return model.Value{}, mismatch(field, "must be a number")
		}
		if err := checkRange(field, n); err != nil {
			return model.Value{}, err
		}
		return model.Number(n), nil

	case model.FieldSelect, model.FieldRadio:
		s, ok := v.(string)
		if !ok {
			return model.Value{}, mismatch(field, "must be one of the options")
		}
		if !contains(field.Options, s) {
			return model.Value{}, invalidOption(field, s)
		}
		return model.Text(s), nil

	case model.FieldCheckbox:
		if b, ok := v.(bool); ok {
			return model.Toggle(b), nil
		}
		choices, ok := asChoices(v)
		if !ok {
			return model.Value{}, mismatch(field, "must be a list of options")
		}
		seen := make(map[string]bool, len(choices))
		for _, c := range choices {
			if !contains(field.Options, c) {
				return model.Value{}, invalidOption(field, c)
			}
			if seen[c] {
				return model.Value{}, NewRuleError(ErrCodeInvalidOption, field.FieldName,
					fmt.Sprintf("%s lists option %q more than once", field.Label, c))
			}
			seen[c] = true
		}
		if err := checkCount(field, len(choices)); err != nil {
			return model.Value{}, err
		}
		return model.Choices(choices...), nil

	case model.FieldDate:
		s, ok := v.(string)
		if !ok || !isDate(s) {
			return model.Value{}, mismatch(field, "must be a date (YYYY-MM-DD)")
		}
		return model.Text(s), nil
	}

	return model.Value{}, mismatch(field, fmt.Sprintf("has unsupported type %q", field.FieldType))
}

func asText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

func asNumber(v any) (float64, bool) {
	var (
		n   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		n, err = x.Float64()
	case string:
		n, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// asChoices accepts a list of strings, or a single string as a one-item list.
func asChoices(v any) ([]string, bool) {
	switch x := v.(type) {
	case string:
		return []string{x}, true
	case []any:
		out := make([]string, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// IsEmailAddress reports whether s is a bare address, without a display name.
func IsEmailAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Name == "" && addr.Address == s
}

func isDate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}

func checkString(field model.FieldSchema, s string) error {
	rules := field.Validation
	if rules == nil {
		return nil
	}
	n := utf8.RuneCountInString(s)
	if rules.MinLength != nil && n < *rules.MinLength {
		return NewRuleError(ErrCodeLengthOutOfRange, field.FieldName,
			fmt.Sprintf("%s must be at least %d characters", field.Label, *rules.MinLength))
	}
	if rules.MaxLength != nil && n > *rules.MaxLength {
		return NewRuleError(ErrCodeLengthOutOfRange, field.FieldName,
			fmt.Sprintf("%s must be at most %d characters", field.Label, *rules.MaxLength))
	}
	if rules.Pattern != "" {
		re, err := compilePattern(rules.Pattern)
		if err != nil || !re.MatchString(s) {
			e := NewRuleError(ErrCodePatternMismatch, field.FieldName,
				field.Label+" does not match the required format")
			if err != nil {
				e.WithCause(err)
			}
			return e
		}
	}
	return nil
}

func checkCount(field model.FieldSchema, n int) error {
	rules := field.Validation
	if rules == nil {
		return nil
	}
	if rules.MinLength != nil && n < *rules.MinLength {
		return NewRuleError(ErrCodeLengthOutOfRange, field.FieldName,
			fmt.Sprintf("%s needs at least %d selections", field.Label, *rules.MinLength))
	}
	if rules.MaxLength != nil && n > *rules.MaxLength {
		return NewRuleError(ErrCodeLengthOutOfRange, field.FieldName,
			fmt.Sprintf("%s allows at most %d selections", field.Label, *rules.MaxLength))
	}
	return nil
}

func checkRange(field model.FieldSchema, n float64) error {
	rules := field.Validation
	if rules == nil {
		return nil
	}
	if rules.Min != nil && n < *rules.Min {
		return NewRuleError(ErrCodeValueOutOfRange, field.FieldName,
			fmt.Sprintf("%s must be at least %s", field.Label, formatNumber(*rules.Min)))
	}
	if rules.Max != nil && n > *rules.Max {
		return NewRuleError(ErrCodeValueOutOfRange, field.FieldName,
			fmt.Sprintf("%s must be at most %s", field.Label, formatNumber(*rules.Max)))
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func mismatch(field model.FieldSchema, what string) error {
	return NewRuleError(ErrCodeTypeMismatch, field.FieldName, field.Label+" "+what)
}

func invalidOption(field model.FieldSchema, choice string) error {
	return NewRuleError(ErrCodeInvalidOption, field.FieldName,
		fmt.Sprintf("%s has no option %q", field.Label, choice))
}
