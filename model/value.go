package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueKind tags which member of Value is meaningful.
type ValueKind string

const (
	TextValue    ValueKind = "text"
	NumberValue  ValueKind = "number"
	ChoicesValue ValueKind = "choices"
	ToggleValue  ValueKind = "toggle"
)

// Value is an answer resolved against its field's type. Exactly one member is set,
// the one named by Kind:
//
//	text, email, textarea, select, radio, date -> Text
//	number                                     -> Number
//	checkbox                                   -> Choices, or Toggle for a bare boolean
type Value struct {
	Kind    ValueKind
	Text    string
	Number  float64
	Choices []string
	Toggle  bool
}

func Text(s string) Value        { return Value{Kind: TextValue, Text: s} }
func Number(n float64) Value     { return Value{Kind: NumberValue, Number: n} }
func Choices(xs ...string) Value { return Value{Kind: ChoicesValue, Choices: xs} }
func Toggle(b bool) Value        { return Value{Kind: ToggleValue, Toggle: b} }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case TextValue:
		return json.Marshal(v.Text)
	case NumberValue:
		return json.Marshal(v.Number)
	case ChoicesValue:
		if v.Choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Choices)
	case ToggleValue:
		return json.Marshal(v.Toggle)
	}
	return nil, fmt.Errorf("model: cannot marshal value of kind %q", v.Kind)
}

// UnmarshalJSON restores a stored Value; the kind follows from the JSON type.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("model: empty value")
	}
	switch data[0] {
	case '"':
		*v = Value{Kind: TextValue}
		return json.Unmarshal(data, &v.Text)
	case '[':
		*v = Value{Kind: ChoicesValue}
		return json.Unmarshal(data, &v.Choices)
	case 't', 'f':
		*v = Value{Kind: ToggleValue}
		return json.Unmarshal(data, &v.Toggle)
	case 'n':
		return fmt.Errorf("model: null value")
	default:
		*v = Value{Kind: NumberValue}
		return json.Unmarshal(data, &v.Number)
	}
}

// Answer is one stored {fieldName, value} pair of a Response.
type Answer struct {
	FieldName string `json:"fieldName"`
	Value     Value  `json:"value"`
}

// Candidate is one submitted {fieldName, value} pair before validation. The value
// stays raw until it is resolved against the field's type.
type Candidate struct {
	FieldName string          `json:"fieldName"`
	Value     json.RawMessage `json:"value,omitempty"`
}
