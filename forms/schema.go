package forms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/formdesk/model"
)

// CheckFormInput validates the shape of a form creation request. Every problem found
// is reported in a single input error.
func CheckFormInput(in model.FormInput) error {
	var merr *multierror.Error
	if strings.TrimSpace(in.Title) == "" {
		merr = multierror.Append(merr, fmt.Errorf("title is required"))
	}
	if strings.TrimSpace(in.AssignedTo) == "" {
		merr = multierror.Append(merr, fmt.Errorf("assignedTo is required"))
	}
	merr = appendFieldIssues(merr, in.Fields)
	return asInputError(merr)
}

// CheckFormPatch validates the members present in a form edit request.
func CheckFormPatch(p model.FormPatch) error {
	var merr *multierror.Error
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		merr = multierror.Append(merr, fmt.Errorf("title cannot be empty"))
	}
	if p.AssignedTo != nil && strings.TrimSpace(*p.AssignedTo) == "" {
		merr = multierror.Append(merr, fmt.Errorf("assignedTo cannot be empty"))
	}
	if p.Fields != nil {
		merr = appendFieldIssues(merr, p.Fields)
	}
	return asInputError(merr)
}

// CheckFields validates an ordered field list on its own.
func CheckFields(fields []model.FieldSchema) error {
	return asInputError(appendFieldIssues(nil, fields))
}

func appendFieldIssues(merr *multierror.Error, fields []model.FieldSchema) *multierror.Error {
	if len(fields) == 0 {
		return multierror.Append(merr, fmt.Errorf("at least one field is required"))
	}

	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		issue := func(format string, args ...any) {
			merr = multierror.Append(merr, fmt.Errorf("fields[%d]: "+format, append([]any{i}, args...)...))
		}

		switch {
		case strings.TrimSpace(f.FieldName) == "":
			issue("fieldName is required")
		case seen[f.FieldName]:
			issue("fieldName %q is duplicated", f.FieldName)
		}
		seen[f.FieldName] = true

		if strings.TrimSpace(f.Label) == "" {
			issue("label is required")
		}

		switch {
		case f.FieldType == "":
			issue("fieldType is required")
		case !f.FieldType.Valid():
			issue("fieldType %q is not supported", f.FieldType)
		case f.FieldType.HasOptions() && len(f.Options) == 0:
			issue("options are required for %s fields", f.FieldType)
		case !f.FieldType.HasOptions() && len(f.Options) > 0:
			issue("options are not allowed for %s fields", f.FieldType)
		}

		opts := make(map[string]bool, len(f.Options))
		for _, o := range f.Options {
			if strings.TrimSpace(o) == "" {
				issue("options cannot be blank")
				continue
			}
			if opts[o] {
				issue("option %q is duplicated", o)
			}
			opts[o] = true
		}

		if v := f.Validation; v != nil {
			if v.MinLength != nil && *v.MinLength < 0 {
				issue("minLength cannot be negative")
			}
			if v.MaxLength != nil && *v.MaxLength < 0 {
				issue("maxLength cannot be negative")
			}
			if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
				issue("minLength is greater than maxLength")
			}
			if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
				issue("min is greater than max")
			}
			if v.Pattern != "" {
				if _, err := compilePattern(v.Pattern); err != nil {
					issue("pattern is invalid: %s", err)
				}
			}
		}
	}
	return merr
}

// compilePattern anchors the pattern to the whole value, as an HTML pattern attribute does.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

func asInputError(merr *multierror.Error) error {
	if merr == nil {
		return nil
	}
	merr.ErrorFormat = joinIssues
	return NewInputError(ErrCodeInvalidInput, merr.Error()).WithCause(merr)
}

func joinIssues(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
