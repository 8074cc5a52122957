package forms

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mbolis/formdesk/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int              { return &i }
func floatp(f float64) *float64    { return &f }
func raw(s string) json.RawMessage { return json.RawMessage(s) }

func candidates(t *testing.T, body string) []model.Candidate {
	t.Helper()
	var cs []model.Candidate
	require.NoError(t, json.Unmarshal([]byte(body), &cs))
	return cs
}

func TestValidateKeepsFieldOrderAndDropsEmptyOptionals(t *testing.T) {
	fields := []model.FieldSchema{
		{FieldName: "name", FieldType: model.FieldText, Label: "Name", Required: true},
		{FieldName: "age", FieldType: model.FieldNumber, Label: "Age"},
		{FieldName: "notes", FieldType: model.FieldTextarea, Label: "Notes"},
		{FieldName: "color", FieldType: model.FieldSelect, Label: "Color", Options: []string{"red", "blue"}},
	}
	cs := candidates(t, `[
		{"fieldName": "notes", "value": ""},
		{"fieldName": "age", "value": "29"},
		{"fieldName": "unknown", "value": "ignored"},
		{"fieldName": "name", "value": "Ada"}
	]`)

	answers, err := Validate(fields, cs)
	require.NoError(t, err)

	want := []model.Answer{
		{FieldName: "name", Value: model.Text("Ada")},
		{FieldName: "age", Value: model.Number(29)},
	}
	if diff := cmp.Diff(want, answers); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRequiredMissing(t *testing.T) {
	fields := []model.FieldSchema{
		{FieldName: "email", FieldType: model.FieldEmail, Label: "Email"},
		{FieldName: "name", FieldType: model.FieldText, Label: "Full name", Required: true},
	}

	for _, body := range []string{
		`[{"fieldName": "email", "value": "ada@example.com"}]`,
		`[{"fieldName": "name"}]`,
		`[{"fieldName": "name", "value": null}]`,
		`[{"fieldName": "name", "value": ""}]`,
		`[{"fieldName": "name", "value": []}]`,
	} {
		_, err := Validate(fields, candidates(t, body))
		require.Error(t, err, body)
		assert.True(t, IsRule(err), body)

		var fe *Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Full name is required", fe.Message)
		assert.Equal(t, "name", fe.Field)
		assert.Equal(t, ErrCodeRequiredFieldMissing, fe.Code)
	}
}

func TestValidateFirstMatchWins(t *testing.T) {
	fields := []model.FieldSchema{{FieldName: "q", FieldType: model.FieldText, Label: "Q", Required: true}}
	cs := candidates(t, `[{"fieldName": "q", "value": ""}, {"fieldName": "q", "value": "later"}]`)

	_, err := Validate(fields, cs)
	assert.True(t, IsRule(err))
}

func TestValidateZeroAndFalseAreAnswers(t *testing.T) {
	fields := []model.FieldSchema{
		{FieldName: "count", FieldType: model.FieldNumber, Label: "Count", Required: true},
		{FieldName: "agree", FieldType: model.FieldCheckbox, Label: "Agree", Required: true, Options: []string{"yes"}},
	}
	answers, err := Validate(fields, candidates(t, `[
		{"fieldName": "count", "value": 0},
		{"fieldName": "agree", "value": false}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []model.Answer{
		{FieldName: "count", Value: model.Number(0)},
		{FieldName: "agree", Value: model.Toggle(false)},
	}, answers)
}

func TestValidateTypeRules(t *testing.T) {
	tests := []struct {
		name  string
		field model.FieldSchema
		value string
		want  model.Value
		code  string
	}{
		{
			name:  "number from json number",
			field: model.FieldSchema{FieldType: model.FieldNumber},
			value: `29`,
			want:  model.Number(29),
		},
		{
			name:  "number rejects words",
			field: model.FieldSchema{FieldType: model.FieldNumber},
			value: `"twenty"`,
			code:  ErrCodeTypeMismatch,
		},
		{
			name:  "number below min",
			field: model.FieldSchema{FieldType: model.FieldNumber, Validation: &model.Validation{Min: floatp(18)}},
			value: `17.5`,
			code:  ErrCodeValueOutOfRange,
		},
		{
			name:  "number above max",
			field: model.FieldSchema{FieldType: model.FieldNumber, Validation: &model.Validation{Max: floatp(10)}},
			value: `"11"`,
			code:  ErrCodeValueOutOfRange,
		},
		{
			name:  "text takes numbers literally",
			field: model.FieldSchema{FieldType: model.FieldText},
			value: `12.50`,
			want:  model.Text("12.50"),
		},
		{
			name:  "text rejects objects",
			field: model.FieldSchema{FieldType: model.FieldText},
			value: `{"a": 1}`,
			code:  ErrCodeTypeMismatch,
		},
		{
			name:  "text too short",
			field: model.FieldSchema{FieldType: model.FieldText, Validation: &model.Validation{MinLength: intp(3)}},
			value: `"ab"`,
			code:  ErrCodeLengthOutOfRange,
		},
		{
			name:  "text length counts runes",
			field: model.FieldSchema{FieldType: model.FieldText, Validation: &model.Validation{MaxLength: intp(4)}},
			value: `"ñandú"`,
			code:  ErrCodeLengthOutOfRange,
		},
		{
			name:  "pattern is anchored",
			field: model.FieldSchema{FieldType: model.FieldText, Validation: &model.Validation{Pattern: `[0-9]{3}`}},
			value: `"1234"`,
			code:  ErrCodePatternMismatch,
		},
		{
			name:  "pattern match",
			field: model.FieldSchema{FieldType: model.FieldText, Validation: &model.Validation{Pattern: `[0-9]{3}`}},
			value: `"123"`,
			want:  model.Text("123"),
		},
		{
			name:  "email",
			field: model.FieldSchema{FieldType: model.FieldEmail},
			value: `"ada@example.com"`,
			want:  model.Text("ada@example.com"),
		},
		{
			name:  "email with display name",
			field: model.FieldSchema{FieldType: model.FieldEmail},
			value: `"Ada <ada@example.com>"`,
			code:  ErrCodeTypeMismatch,
		},
		{
			name:  "select option",
			field: model.FieldSchema{FieldType: model.FieldSelect, Options: []string{"a", "b"}},
			value: `"b"`,
			want:  model.Text("b"),
		},
		{
			name:  "radio unknown option",
			field: model.FieldSchema{FieldType: model.FieldRadio, Options: []string{"a", "b"}},
			value: `"c"`,
			code:  ErrCodeInvalidOption,
		},
		{
			name:  "checkbox list",
			field: model.FieldSchema{FieldType: model.FieldCheckbox, Options: []string{"a", "b", "c"}},
			value: `["c", "a"]`,
			want:  model.Choices("c", "a"),
		},
		{
			name:  "checkbox single string",
			field: model.FieldSchema{FieldType: model.FieldCheckbox, Options: []string{"a"}},
			value: `"a"`,
			want:  model.Choices("a"),
		},
		{
			name:  "checkbox repeated option",
			field: model.FieldSchema{FieldType: model.FieldCheckbox, Options: []string{"a"}},
			value: `["a", "a"]`,
			code:  ErrCodeInvalidOption,
		},
		{
			name:  "checkbox too many",
			field: model.FieldSchema{FieldType: model.FieldCheckbox, Options: []string{"a", "b"}, Validation: &model.Validation{MaxLength: intp(1)}},
			value: `["a", "b"]`,
			code:  ErrCodeLengthOutOfRange,
		},
		{
			name:  "date",
			field: model.FieldSchema{FieldType: model.FieldDate},
			value: `"2024-02-29"`,
			want:  model.Text("2024-02-29"),
		},
		{
			name:  "date invalid",
			field: model.FieldSchema{FieldType: model.FieldDate},
			value: `"2023-02-29"`,
			code:  ErrCodeTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := tt.field
			field.FieldName = "f"
			field.Label = "F"

			answers, err := Validate([]model.FieldSchema{field}, []model.Candidate{{FieldName: "f", Value: raw(tt.value)}})
			if tt.code != "" {
				var fe *Error
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, KindRule, fe.Kind)
				assert.Equal(t, tt.code, fe.Code)
				assert.Equal(t, "f", fe.Field)
				return
			}
			require.NoError(t, err)
			require.Len(t, answers, 1)
			assert.Equal(t, tt.want, answers[0].Value)
		})
	}
}

func TestValidateStopsAtFirstOffendingField(t *testing.T) {
	fields := []model.FieldSchema{
		{FieldName: "a", FieldType: model.FieldNumber, Label: "A"},
		{FieldName: "b", FieldType: model.FieldNumber, Label: "B"},
	}
	_, err := Validate(fields, candidates(t, `[{"fieldName": "b", "value": "x"}, {"fieldName": "a", "value": "y"}]`))

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "a", fe.Field)
	assert.Equal(t, "A must be a number", fe.Message)
}
