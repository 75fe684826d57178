// Package transactionrepo manages repository layer of transactions.
package transactionrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arsy786/eagle-bank/internal/domain"
	"github.com/arsy786/eagle-bank/pkg/dbpkg"
	"github.com/arsy786/eagle-bank/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns transaction RepoPGS bound to an existing transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns transaction RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errorspkg.ErrUnavailable
	}

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO
    transactions (account_id, kind, amount)
VALUES
    ($1, $2, $3)
RETURNING id, account_id, kind, amount, created_at
`

func (r *RepoPGS) create(ctx context.Context, db dbpkg.SQLInterface, arg domain.PostTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := db.QueryRowContext(ctx, createQuery, arg.AccountID, arg.Kind, arg.Amount)

	var t domain.Transaction

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Kind,
		&t.Amount,
		&t.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transactions_account_id_fkey":
				return t, domain.ErrAccountNotFound
			case "transactions_amount_check":
				return t, domain.ErrNegativeAmount
			}
		}

		return t, wrapError(err)
	}

	return t, nil
}

const setBalanceQuery = `
UPDATE accounts
SET balance = $2
WHERE id = $1
`

// Post appends the transaction record and sets the account's new balance as
// a single commit. Either both changes are durable or neither is.
func (r *RepoPGS) Post(ctx context.Context, arg domain.PostTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var result domain.Transaction

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, wrapError(err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	result, err = r.create(ctx, tx, arg)
	if err != nil {
		return result, err
	}

	res, err := tx.ExecContext(ctx, setBalanceQuery, arg.AccountID, arg.NewBalance)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_balance_check" {
				return result, domain.ErrInsufficientBalance
			}
		}

		return result, wrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return result, wrapError(err)
	}

	if n == 0 {
		return result, domain.ErrAccountNotFound
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return result, wrapError(err)
	}

	return result, nil
}

const getQuery = `
SELECT
	id, account_id, kind, amount, created_at
FROM transactions
WHERE id = $1 AND account_id = $2
`

// Get returns the transaction with the given id scoped to the given
// account. A transaction of another account is indistinguishable from a
// missing one.
func (r *RepoPGS) Get(ctx context.Context, accountID, id int64) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id, accountID)

	var t domain.Transaction

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Kind,
		&t.Amount,
		&t.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return t, domain.ErrTransactionNotFound
		}

		l.Error().Err(err).Send()

		return t, wrapError(err)
	}

	return t, nil
}

const listQuery = `
SELECT
	id, account_id, kind, amount, created_at
FROM transactions
WHERE account_id = $1
ORDER BY id
`

// List returns all transactions of the given account in creation order.
func (r *RepoPGS) List(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, wrapError(err)
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.Kind,
			&t.Amount,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, wrapError(err)
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, wrapError(err)
	}

	return items, nil
}
