package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/formdesk/forms"
	"github.com/mbolis/formdesk/model"
	"golang.org/x/crypto/bcrypt"
)

const selectUser = `SELECT id, username, email, role, created_at FROM user`

func scanUser(row scanner) (u model.User, err error) {
	err = row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	return
}

func errUserNotFound() error {
	return forms.NewNotFoundError(forms.ErrCodeUserNotFound, "User not found")
}

func errUserExists() error {
	return forms.NewConflictError(forms.ErrCodeUserExists, "Username or email already exists")
}

func checkUsername(merr *multierror.Error, username string) *multierror.Error {
	if len(strings.TrimSpace(username)) < 3 {
		merr = multierror.Append(merr, fmt.Errorf("username must be at least 3 characters"))
	}
	return merr
}

func checkEmail(merr *multierror.Error, email string) *multierror.Error {
	if !forms.IsEmailAddress(email) {
		merr = multierror.Append(merr, fmt.Errorf("email must be a valid email address"))
	}
	return merr
}

func checkPassword(merr *multierror.Error, password string) *multierror.Error {
	if len(password) < 6 {
		merr = multierror.Append(merr, fmt.Errorf("password must be at least 6 characters"))
	}
	return merr
}

func checkRole(merr *multierror.Error, role model.Role) *multierror.Error {
	if !role.Valid() {
		merr = multierror.Append(merr, fmt.Errorf("role %q is not supported", role))
	}
	return merr
}

func userInputError(merr *multierror.Error) error {
	if merr == nil {
		return nil
	}
	msgs := make([]string, len(merr.Errors))
	for i, err := range merr.Errors {
		msgs[i] = err.Error()
	}
	return forms.NewInputError(forms.ErrCodeInvalidInput, strings.Join(msgs, "; ")).WithCause(merr)
}

func (s *Store) CreateUser(ctx context.Context, in model.UserInput) (model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleUser
	}

	var merr *multierror.Error
	merr = checkUsername(merr, in.Username)
	merr = checkEmail(merr, in.Email)
	merr = checkPassword(merr, in.Password)
	merr = checkRole(merr, in.Role)
	if err := userInputError(merr); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return model.User{}, storeErr("db.insert_user.hash", err)
	}
	userID, err := newID()
	if err != nil {
		return model.User{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user (id, username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID,
		in.Username,
		in.Email,
		hash,
		in.Role,
		s.now(),
	)
	if isUniqueViolation(err) {
		return model.User{}, errUserExists()
	}
	if err != nil {
		return model.User{}, storeErr("db.insert_user", err)
	}

	return s.GetUser(ctx, userID)
}

func (s *Store) GetUser(ctx context.Context, userID string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, userID))
	if isNoRows(err) {
		return model.User{}, errUserNotFound()
	}
	if err != nil {
		return model.User{}, storeErr("db.get_user", err)
	}
	return u, nil
}

// ListUsers returns the users holding role, oldest first.
func (s *Store) ListUsers(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUser+`
		WHERE role = ?
		ORDER BY created_at, rowid`,
		role,
	)
	if err != nil {
		return nil, storeErr("db.get_users", err)
	}
	defer rows.Close()

	list := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("db.get_users.scan", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("db.get_users.rows", err)
	}
	return list, nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, p model.UserPatch) (model.User, error) {
	var merr *multierror.Error
	if p.Username != nil {
		merr = checkUsername(merr, *p.Username)
	}
	if p.Email != nil {
		merr = checkEmail(merr, *p.Email)
	}
	if p.Password != nil {
		merr = checkPassword(merr, *p.Password)
	}
	if p.Role != nil {
		merr = checkRole(merr, *p.Role)
	}
	if err := userInputError(merr); err != nil {
		return model.User{}, err
	}

	var (
		sets []string
		args []any
	)
	if p.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *p.Username)
	}
	if p.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *p.Email)
	}
	if p.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), s.hashCost)
		if err != nil {
			return model.User{}, storeErr("db.update_user.hash", err)
		}
		sets = append(sets, "password_hash = ?")
		args = append(args, hash)
	}
	if p.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *p.Role)
	}
	if len(sets) == 0 {
		return s.GetUser(ctx, userID)
	}

	args = append(args, userID)
	res, err := s.db.ExecContext(ctx, `UPDATE user SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if isUniqueViolation(err) {
		return model.User{}, errUserExists()
	}
	if err != nil {
		return model.User{}, storeErr("db.update_user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.User{}, storeErr("db.update_user.verify", err)
	}
	if n < 1 {
		return model.User{}, errUserNotFound()
	}

	return s.GetUser(ctx, userID)
}

// DeleteUser removes a user nothing refers to. Forms and responses are only removed
// through DeleteForm, so a user still holding either is refused.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return s.withTx(ctx, "db.delete_user", func(tx *sql.Tx) error {
		err := requireUser(ctx, tx, userID, "User not found")
		if err != nil {
			return err
		}

		var n int
		err = tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM form WHERE assigned_to = ?1 OR created_by = ?1) +
				(SELECT COUNT(*) FROM response WHERE user_id = ?1)`,
			userID,
		).Scan(&n)
		if err != nil {
			return storeErr("db.delete_user.references", err)
		}
		if n > 0 {
			return forms.NewConflictError(forms.ErrCodeUserInUse, "User still has forms or responses")
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM user WHERE id = ?`, userID)
		if err != nil {
			return storeErr("db.delete_user", err)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM token WHERE username NOT IN (SELECT username FROM user)`)
		if err != nil {
			return storeErr("db.delete_user.tokens", err)
		}
		return nil
	})
}

// Authenticate checks a username and password pair and returns the matching user.
func (s *Store) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	var hash []byte
	var u model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, created_at, password_hash
		FROM user
		WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt, &hash)
	if isNoRows(err) {
		return model.User{}, forms.NewAuthError(forms.ErrCodeUnauthenticated, "Invalid credentials")
	}
	if err != nil {
		return model.User{}, storeErr("db.authenticate", err)
	}

	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil {
		return model.User{}, forms.NewAuthError(forms.ErrCodeUnauthenticated, "Invalid credentials").WithCause(err)
	}
	return u, nil
}

// UserByUsername looks a user up by login name.
func (s *Store) UserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE username = ?`, username))
	if isNoRows(err) {
		return model.User{}, errUserNotFound()
	}
	if err != nil {
		return model.User{}, storeErr("db.get_user", err)
	}
	return u, nil
}

// EnsureAdmin creates an admin account unless the username is already taken.
func (s *Store) EnsureAdmin(ctx context.Context, username, email, password string) (created bool, err error) {
	_, err = s.UserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !forms.IsNotFound(err) {
		return false, err
	}

	_, err = s.CreateUser(ctx, model.UserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
