package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/mbolis/formdesk/forms"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Store is the only path through which users, forms and responses are written. It
// owns the guards that keep one active form per user and one response per form and
// user.
type Store struct {
	db       *sql.DB
	now      func() time.Time
	hashCost int
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		now:      func() time.Time { return time.Now().UTC() },
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn in a write transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, code string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(code+".begin_tx", err)
	}
	defer tx.Rollback()

	err = fn(tx)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return storeErr(code+".commit", err)
	}
	return nil
}

func newID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", storeErr("new_id", err)
	}
	return id.String(), nil
}

// CheckID rejects ids that could not have been issued by the store.
func CheckID(id string) error {
	if _, err := uuid.FromString(id); err != nil {
		return forms.NewInputError(forms.ErrCodeInvalidID, "invalid id").WithCause(err)
	}
	return nil
}

func storeErr(code string, err error) error {
	return forms.NewStoreError(errors.Wrap(err, code))
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
