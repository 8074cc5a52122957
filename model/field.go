package model

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldDate     FieldType = "date"
)

var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldNumber, FieldTextarea,
	FieldSelect, FieldCheckbox, FieldRadio, FieldDate,
}

func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// HasOptions reports whether answers to the field are picked from a fixed choice set.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldSelect, FieldCheckbox, FieldRadio:
		return true
	}
	return false
}

type FieldSchema struct {
	FieldName   string      `json:"fieldName"`
	FieldType   FieldType   `json:"fieldType"`
	Label       string      `json:"label"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    bool        `json:"required"`
	Options     []string    `json:"options,omitempty"`
	Validation  *Validation `json:"validation,omitempty"`
}

// Validation holds the optional bounds checked on submission.
type Validation struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}
