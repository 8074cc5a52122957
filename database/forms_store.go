package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mbolis/formdesk/forms"
	"github.com/mbolis/formdesk/model"
)

const selectForm = `
	SELECT
		f.id, f.title, f.description, f.fields, f.created_at, f.is_active,
		a.id, a.username, a.email,
		c.id, c.username
	FROM form f
	INNER JOIN user a ON (a.id = f.assigned_to)
	INNER JOIN user c ON (c.id = f.created_by)`

func scanForm(row scanner) (f model.Form, err error) {
	var fields string
	err = row.Scan(
		&f.ID, &f.Title, &f.Description, &fields, &f.CreatedAt, &f.IsActive,
		&f.AssignedTo.ID, &f.AssignedTo.Username, &f.AssignedTo.Email,
		&f.CreatedBy.ID, &f.CreatedBy.Username,
	)
	if err != nil {
		return
	}
	err = json.Unmarshal([]byte(fields), &f.Fields)
	return
}

func errFormNotFound() error {
	return forms.NewNotFoundError(forms.ErrCodeFormNotFound, "Form not found")
}

func errActiveForm() error {
	return forms.NewConflictError(forms.ErrCodeActiveFormExists, "User already has an active form assigned")
}

// CanAssign reports whether userID is free to receive a new active form.
func (s *Store) CanAssign(ctx context.Context, userID string) (bool, error) {
	return canAssign(ctx, s.db, userID, "")
}

// canAssign looks for an active form of userID other than exceptFormID.
func canAssign(ctx context.Context, q querier, userID, exceptFormID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM form
		WHERE assigned_to = ?
			AND is_active = 1
			AND id <> ?`,
		userID,
		exceptFormID,
	).Scan(&n)
	if err != nil {
		return false, storeErr("db.can_assign", err)
	}
	return n == 0, nil
}

func requireUser(ctx context.Context, q querier, userID, msg string) error {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM user WHERE id = ?`, userID).Scan(&n)
	if err != nil {
		return storeErr("db.get_user", err)
	}
	if n == 0 {
		return forms.NewNotFoundError(forms.ErrCodeUserNotFound, msg)
	}
	return nil
}

// CreateForm stores a new form authored by creatorID. An active form is refused when
// its assignee already holds one; the check and the insert share one transaction and
// the partial unique index on form(assigned_to) catches any race that slips past.
func (s *Store) CreateForm(ctx context.Context, creatorID string, in model.FormInput) (model.Form, error) {
	err := forms.CheckFormInput(in)
	if err != nil {
		return model.Form{}, err
	}

	fieldsJson, err := json.Marshal(in.Fields)
	if err != nil {
		return model.Form{}, storeErr("db.insert_form.marshal_fields", err)
	}
	formID, err := newID()
	if err != nil {
		return model.Form{}, err
	}
	active := in.IsActive == nil || *in.IsActive

	err = s.withTx(ctx, "db.insert_form", func(tx *sql.Tx) error {
		err := requireUser(ctx, tx, creatorID, "User not found")
		if err != nil {
			return err
		}
		err = requireUser(ctx, tx, in.AssignedTo, "Assigned user not found")
		if err != nil {
			return err
		}

		if active {
			ok, err := canAssign(ctx, tx, in.AssignedTo, "")
			if err != nil {
				return err
			}
			if !ok {
				return errActiveForm()
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO form (id, title, description, assigned_to, fields, created_by, created_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			formID,
			in.Title,
			in.Description,
			in.AssignedTo,
			string(fieldsJson),
			creatorID,
			s.now(),
			active,
		)
		if isUniqueViolation(err) {
			return errActiveForm()
		}
		if err != nil {
			return storeErr("db.insert_form", err)
		}
		return nil
	})
	if err != nil {
		return model.Form{}, err
	}

	return s.GetForm(ctx, formID)
}

// UpdateForm applies an admin edit. When the edit moves the form to another user or
// (re)activates it, the one-active-form rule is checked again for the target user.
func (s *Store) UpdateForm(ctx context.Context, formID string, p model.FormPatch) (model.Form, error) {
	err := forms.CheckFormPatch(p)
	if err != nil {
		return model.Form{}, err
	}

	err = s.withTx(ctx, "db.update_form", func(tx *sql.Tx) error {
		cur, err := getForm(ctx, tx, formID)
		if err != nil {
			return err
		}

		next := cur
		if p.Title != nil {
			next.Title = *p.Title
		}
		if p.Description != nil {
			next.Description = *p.Description
		}
		if p.Fields != nil {
			next.Fields = p.Fields
		}
		if p.IsActive != nil {
			next.IsActive = *p.IsActive
		}
		if p.AssignedTo != nil && *p.AssignedTo != cur.AssignedTo.ID {
			err = requireUser(ctx, tx, *p.AssignedTo, "Assigned user not found")
			if err != nil {
				return err
			}
			next.AssignedTo = model.UserRef{ID: *p.AssignedTo}
		}

		reassigned := next.AssignedTo.ID != cur.AssignedTo.ID
		activated := next.IsActive && !cur.IsActive
		if next.IsActive && (reassigned || activated) {
			ok, err := canAssign(ctx, tx, next.AssignedTo.ID, formID)
			if err != nil {
				return err
			}
			if !ok {
				return errActiveForm()
			}
		}

		fieldsJson, err := json.Marshal(next.Fields)
		if err != nil {
			return storeErr("db.update_form.marshal_fields", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE form
			SET
				title = ?,
				description = ?,
				assigned_to = ?,
				fields = ?,
				is_active = ?
			WHERE id = ?`,
			next.Title,
			next.Description,
			next.AssignedTo.ID,
			string(fieldsJson),
			next.IsActive,
			formID,
		)
		if isUniqueViolation(err) {
			return errActiveForm()
		}
		if err != nil {
			return storeErr("db.update_form", err)
		}
		return nil
	})
	if err != nil {
		return model.Form{}, err
	}

	return s.GetForm(ctx, formID)
}

// DeleteForm removes a form together with every response given to it, and reports
// how many responses went with it. Zero responses is the common case, not an error.
func (s *Store) DeleteForm(ctx context.Context, formID string) (deleted int64, err error) {
	err = s.withTx(ctx, "db.delete_form", func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM form WHERE id = ?`, formID).Scan(&n)
		if err != nil {
			return storeErr("db.delete_form.find", err)
		}
		if n == 0 {
			return errFormNotFound()
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM response
			WHERE form_id = ?`,
			formID,
		)
		if err != nil {
			return storeErr("db.delete_form.responses", err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return storeErr("db.delete_form.responses.verify", err)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, formID)
		if err != nil {
			return storeErr("db.delete_form", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *Store) GetForm(ctx context.Context, formID string) (model.Form, error) {
	return getForm(ctx, s.db, formID)
}

func getForm(ctx context.Context, q querier, formID string) (model.Form, error) {
	f, err := scanForm(q.QueryRowContext(ctx, selectForm+` WHERE f.id = ?`, formID))
	if isNoRows(err) {
		return model.Form{}, errFormNotFound()
	}
	if err != nil {
		return model.Form{}, storeErr("db.get_form", err)
	}
	return f, nil
}

// ListForms returns every form, newest first.
func (s *Store) ListForms(ctx context.Context) ([]model.Form, error) {
	rows, err := s.db.QueryContext(ctx, selectForm+` ORDER BY f.created_at DESC, f.rowid DESC`)
	if err != nil {
		return nil, storeErr("db.get_forms", err)
	}
	defer rows.Close()

	list := []model.Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, storeErr("db.get_forms.scan", err)
		}
		list = append(list, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("db.get_forms.rows", err)
	}
	return list, nil
}

// ActiveFormFor returns the single active form assigned to userID, if any.
func (s *Store) ActiveFormFor(ctx context.Context, userID string) (f model.Form, ok bool, err error) {
	f, err = scanForm(s.db.QueryRowContext(ctx, selectForm+`
		WHERE f.assigned_to = ?
			AND f.is_active = 1`,
		userID,
	))
	if isNoRows(err) {
		return model.Form{}, false, nil
	}
	if err != nil {
		return model.Form{}, false, storeErr("db.get_active_form", err)
	}
	return f, true, nil
}
