package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/mbolis/formdesk/forms"
	"github.com/mbolis/formdesk/model"
)

const selectResponse = `
	SELECT
		r.id, r.responses, r.submitted_at,
		f.id, f.title, f.description, f.fields,
		u.id, u.username, u.email
	FROM response r
	INNER JOIN form f ON (f.id = r.form_id)
	INNER JOIN user u ON (u.id = r.user_id)`

func scanResponse(row scanner, withFields bool) (r model.Response, err error) {
	var answers, fields string
	err = row.Scan(
		&r.ID, &answers, &r.SubmittedAt,
		&r.Form.ID, &r.Form.Title, &r.Form.Description, &fields,
		&r.User.ID, &r.User.Username, &r.User.Email,
	)
	if err != nil {
		return
	}
	err = json.Unmarshal([]byte(answers), &r.Responses)
	if err != nil {
		return
	}
	if withFields {
		err = json.Unmarshal([]byte(fields), &r.Form.Fields)
	}
	return
}

func checkSubmission(sub model.Submission) error {
	if strings.TrimSpace(sub.FormID) == "" {
		return forms.NewInputError(forms.ErrCodeInvalidInput, "formId is required")
	}
	if len(sub.Responses) == 0 {
		return forms.NewInputError(forms.ErrCodeInvalidInput, "responses are required")
	}
	for _, c := range sub.Responses {
		if strings.TrimSpace(c.FieldName) == "" {
			return forms.NewInputError(forms.ErrCodeInvalidInput, "every response needs a fieldName")
		}
	}
	return nil
}

// Submit records userID's answers to a form. In order: the form must exist, be active
// and be assigned to userID; userID must not have answered it yet; the answers must
// pass the form's fields. Nothing is written unless all three hold, and the unique
// index on response(form_id, user_id) settles concurrent submissions.
func (s *Store) Submit(ctx context.Context, userID string, sub model.Submission) (model.Response, error) {
	err := checkSubmission(sub)
	if err != nil {
		return model.Response{}, err
	}

	responseID, err := newID()
	if err != nil {
		return model.Response{}, err
	}

	err = s.withTx(ctx, "db.insert_response", func(tx *sql.Tx) error {
		var fieldsJson string
		err := tx.QueryRowContext(ctx, `
			SELECT fields FROM form
			WHERE id = ?
				AND assigned_to = ?
				AND is_active = 1`,
			sub.FormID,
			userID,
		).Scan(&fieldsJson)
		if isNoRows(err) {
			return forms.NewNotFoundError(forms.ErrCodeFormNotFound, "Form not found or not assigned to you")
		}
		if err != nil {
			return storeErr("db.insert_response.get_form", err)
		}

		var n int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM response
			WHERE form_id = ?
				AND user_id = ?`,
			sub.FormID,
			userID,
		).Scan(&n)
		if err != nil {
			return storeErr("db.insert_response.find_existing", err)
		}
		if n > 0 {
			return errAlreadySubmitted()
		}

		var fields []model.FieldSchema
		err = json.Unmarshal([]byte(fieldsJson), &fields)
		if err != nil {
			return storeErr("db.insert_response.parse_fields", err)
		}

		answers, err := forms.Validate(fields, sub.Responses)
		if err != nil {
			return err
		}

		answersJson, err := json.Marshal(answers)
		if err != nil {
			return storeErr("db.insert_response.marshal_answers", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO response (id, form_id, user_id, responses, submitted_at)
			VALUES (?, ?, ?, ?, ?)`,
			responseID,
			sub.FormID,
			userID,
			string(answersJson),
			s.now(),
		)
		if isUniqueViolation(err) {
			return errAlreadySubmitted()
		}
		if err != nil {
			return storeErr("db.insert_response", err)
		}
		return nil
	})
	if err != nil {
		return model.Response{}, err
	}

	return s.GetResponse(ctx, responseID)
}

func errAlreadySubmitted() error {
	return forms.NewConflictError(forms.ErrCodeAlreadySubmitted, "You have already submitted this form")
}

// GetResponse returns one response with its form's fields populated.
func (s *Store) GetResponse(ctx context.Context, responseID string) (model.Response, error) {
	r, err := scanResponse(s.db.QueryRowContext(ctx, selectResponse+` WHERE r.id = ?`, responseID), true)
	if isNoRows(err) {
		return model.Response{}, forms.NewNotFoundError(forms.ErrCodeResponseNotFound, "Response not found")
	}
	if err != nil {
		return model.Response{}, storeErr("db.get_response", err)
	}
	return r, nil
}

// ResponseFor returns the response userID gave to formID, if any.
func (s *Store) ResponseFor(ctx context.Context, formID, userID string) (r model.Response, ok bool, err error) {
	r, err = scanResponse(s.db.QueryRowContext(ctx, selectResponse+`
		WHERE r.form_id = ?
			AND r.user_id = ?`,
		formID,
		userID,
	), false)
	if isNoRows(err) {
		return model.Response{}, false, nil
	}
	if err != nil {
		return model.Response{}, false, storeErr("db.get_response", err)
	}
	return r, true, nil
}

// ResponseFilter narrows ListResponses; zero members match everything.
type ResponseFilter struct {
	FormID string
	UserID string
	Limit  int
}

// ListResponses returns matching responses, most recently submitted first.
func (s *Store) ListResponses(ctx context.Context, filter ResponseFilter) ([]model.Response, error) {
	return listResponses(ctx, s.db, filter)
}

func listResponses(ctx context.Context, q querier, filter ResponseFilter) ([]model.Response, error) {
	query := selectResponse
	var (
		where []string
		args  []any
	)
	if filter.FormID != "" {
		where = append(where, "r.form_id = ?")
		args = append(args, filter.FormID)
	}
	if filter.UserID != "" {
		where = append(where, "r.user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.submitted_at DESC, r.rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("db.get_responses", err)
	}
	defer rows.Close()

	list := []model.Response{}
	for rows.Next() {
		r, err := scanResponse(rows, false)
		if err != nil {
			return nil, storeErr("db.get_responses.scan", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("db.get_responses.rows", err)
	}
	return list, nil
}
