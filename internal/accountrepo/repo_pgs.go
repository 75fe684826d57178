// Package accountrepo manages repository layer of accounts.
package accountrepo

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

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
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
    accounts (owner, account_number, name, type, balance)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, owner, account_number, name, type, balance, created_at
`

// Create creates the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.Owner,
		arg.AccountNumber,
		arg.Name,
		arg.Type,
		arg.Balance,
	)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.AccountNumber,
		&a.Name,
		&a.Type,
		&a.Balance,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_owner_fkey":
				return a, domain.ErrOwnerNotFound
			case "accounts_account_number_key":
				return a, domain.ErrAccountNumberTaken
			}
		}

		return a, wrapError(err)
	}

	return a, nil
}

const getQuery = `
SELECT
	id, owner, account_number, name, type, balance, created_at
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.AccountNumber,
		&a.Name,
		&a.Type,
		&a.Balance,
		&a.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, wrapError(err)
	}

	return a, nil
}

const listQuery = `
SELECT
	id, owner, account_number, name, type, balance, created_at
FROM accounts
WHERE owner = $1
ORDER BY id
`

// List returns all accounts owned by the given user.
func (r *RepoPGS) List(ctx context.Context, owner string) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, owner)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, wrapError(err)
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Owner, &a.AccountNumber, &a.Name, &a.Type, &a.Balance, &a.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, wrapError(err)
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, wrapError(err)
	}

	return items, nil
}

const updateQuery = `
UPDATE accounts
SET name = $2, type = $3
WHERE id = $1
RETURNING id, owner, account_number, name, type, balance, created_at
`

// Update sets the descriptive fields of the account and returns the updated
// account. Balance, account number, and owner are not reachable through
// this path.
func (r *RepoPGS) Update(ctx context.Context, id int64, name, accountType string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, updateQuery, id, name, accountType)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Owner,
		&a.AccountNumber,
		&a.Name,
		&a.Type,
		&a.Balance,
		&a.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, wrapError(err)
	}

	return a, nil
}

const deleteQuery = `
DELETE FROM accounts
WHERE id = $1
`

// Delete removes the account with the given id. Accounts with posted
// transactions are protected by the transactions FK and yield
// domain.ErrAccountHasTransactions.
func (r *RepoPGS) Delete(ctx context.Context, id int64) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "transactions_account_id_fkey" {
				return domain.ErrAccountHasTransactions
			}
		}

		return wrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return wrapError(err)
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}
