package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// maxTxAttempts bounds how often InTx reruns fn after a serialization failure.
const maxTxAttempts = 3

// Tx exposes the goal store and user index bound to a single database transaction.
type Tx struct {
	Goals GoalStore
	Users UserIndex
}

// Transactor runs lifecycle operations as atomic units.
type Transactor interface {
	// InTx runs fn inside one transaction. The transaction commits only if fn
	// returns nil; any error rolls back every write fn made.
	InTx(ctx context.Context, fn func(tx *Tx) error) error

	// Goals and Users are bound to the connection pool, for reads and for
	// writes that must outlive a rolled-back transaction.
	Goals() GoalStore
	Users() UserIndex
}

type Store struct {
	db     *sqlx.DB
	txOpts *sql.TxOptions
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:     db,
		txOpts: txOptions(db.DriverName()),
	}
}

// txOptions picks the isolation level for lifecycle transactions. Postgres
// runs them serializable so that concurrent server processes cannot both act
// on the same goal state. SQLite already allows a single writer at a time.
func txOptions(driver string) *sql.TxOptions {
	if driver == "pgx" {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// isSerializationFailure reports whether err is a Postgres conflict that
// succeeds when the whole transaction is retried.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func (s *Store) Goals() GoalStore {
	return NewGoalStore(s.db)
}

func (s *Store) Users() UserIndex {
	return NewUserIndex(s.db)
}

// InTx runs fn in one transaction, rerunning it from scratch when the
// database reports a serialization conflict.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	var err error
	for range maxTxAttempts {
		err = s.inTx(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, s.txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = fn(&Tx{
		Goals: NewGoalStore(tx),
		Users: NewUserIndex(tx),
	})
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
