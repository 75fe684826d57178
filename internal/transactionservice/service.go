// Package transactionservice manages business logic layer of transactions:
// it owns the balance-mutation plus transaction-append protocol.
package transactionservice

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arsy786/eagle-bank/internal/accesspolicy"
	"github.com/arsy786/eagle-bank/internal/domain"
	"github.com/arsy786/eagle-bank/pkg/errorspkg"
)

// Repo provides data access layer interface needed by transaction service layer.
// Post must persist the transaction record and the new balance atomically.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transactionservice
type Repo interface {
	Post(ctx context.Context, arg domain.PostTransactionParams) (domain.Transaction, error)
	Get(ctx context.Context, accountID, id int64) (domain.Transaction, error)
	List(ctx context.Context, accountID int64) ([]domain.Transaction, error)
}

// AccountRepo provides the account lookup needed by the transaction service layer.
type AccountRepo interface {
	Get(ctx context.Context, id int64) (domain.Account, error)
}

// Service facilitates transaction service layer logic.
//
// Postings against the same account are serialized by a per-account mutex
// held across the whole read-check-write sequence, so two concurrent
// withdrawals can never both pass the funds check against a stale balance.
// Postings against different accounts do not contend. Mutexes are created
// on demand and never removed.
type Service struct {
	repo     Repo
	accounts AccountRepo
	locks    sync.Map // account id -> *sync.Mutex
}

// New returns transaction service struct to manage transaction business logic.
func New(tr Repo, ar AccountRepo) *Service {
	return &Service{
		repo:     tr,
		accounts: ar,
	}
}

func (s *Service) lock(accountID int64) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Post validates and commits a deposit or withdrawal against the account.
//
// Gates run in order: account lookup, ownership, amount validation, funds
// check, atomic commit. No intermediate state is observable; a reader sees
// either the pre-posting balance with no new transaction or the committed
// pair.
func (s *Service) Post(ctx context.Context, accountID int64, caller string, kind domain.TransactionKind, amount string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	var result domain.Transaction

	mu := s.lock(accountID)
	mu.Lock()
	defer mu.Unlock()

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return result, err
	}

	if err := accesspolicy.Authorize(account, caller); err != nil {
		l.Warn().Int64("account_id", accountID).Str("caller", caller).Msg("posting denied")
		return result, err
	}

	if !kind.IsValid() {
		return result, domain.ErrInvalidTransactionKind
	}

	// The delivery layer validates the amount already; the engine
	// re-validates because the non-negative balance invariant depends on it.
	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return result, domain.ErrNegativeAmount
	}

	balance, err := decimal.NewFromString(account.Balance)
	if err != nil {
		l.Error().Err(err).Int64("account_id", accountID).Msg("stored balance is not a decimal")
		return result, errorspkg.ErrInternal
	}

	var newBalance decimal.Decimal

	switch kind {
	case domain.Deposit:
		newBalance = balance.Add(amountDecimal)
	case domain.Withdrawal:
		if balance.LessThan(amountDecimal) {
			return result, domain.ErrInsufficientBalance
		}

		newBalance = balance.Sub(amountDecimal)
	}

	arg := domain.PostTransactionParams{
		AccountID:  accountID,
		Kind:       kind,
		Amount:     amountDecimal.String(),
		NewBalance: newBalance.String(),
	}

	result, err = s.repo.Post(ctx, arg)
	if err != nil {
		return domain.Transaction{}, err
	}

	return result, nil
}

// Get returns the transaction with the given id if it belongs to the given
// account and the caller owns the account. A transaction of another account
// is reported as not found.
func (s *Service) Get(ctx context.Context, accountID, transactionID int64, caller string) (domain.Transaction, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := accesspolicy.Authorize(account, caller); err != nil {
		return domain.Transaction{}, err
	}

	return s.repo.Get(ctx, accountID, transactionID)
}

// List returns all transactions of the account in creation order, oldest
// first, so the balance can be reconstructed by replaying them.
func (s *Service) List(ctx context.Context, accountID int64, caller string) ([]domain.Transaction, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := accesspolicy.Authorize(account, caller); err != nil {
		return nil, err
	}

	return s.repo.List(ctx, accountID)
}
