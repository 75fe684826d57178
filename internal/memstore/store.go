// Package memstore provides an in-memory ledger store implementing the same
// repository contracts as the Postgres repos. It backs hermetic service
// tests and the standalone development mode.
//
// A single mutex guards all state, so every commit is atomic: the balance
// update and the appended transaction record become visible together or not
// at all. Methods hand out copies, never internal pointers.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arsy786/eagle-bank/internal/domain"
)

// Store is an in-memory ledger store.
type Store struct {
	mu                sync.Mutex
	nextAccountID     int64
	nextTransactionID int64
	users             map[string]domain.User
	accounts          map[int64]domain.Account
	accountNumbers    map[string]struct{}
	transactions      map[int64][]domain.Transaction // per account, append order
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:          make(map[string]domain.User),
		accounts:       make(map[int64]domain.Account),
		accountNumbers: make(map[string]struct{}),
		transactions:   make(map[int64][]domain.Transaction),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepo {
	return &AccountRepo{store: s}
}

// Transactions returns the transaction repository view of the store.
func (s *Store) Transactions() *TransactionRepo {
	return &TransactionRepo{store: s}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepo {
	return &UserRepo{store: s}
}

// AccountRepo implements the account repository contract over the store.
type AccountRepo struct {
	store *Store
}

// Create creates the account and then returns it.
func (r *AccountRepo) Create(_ context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accountNumbers[arg.AccountNumber]; ok {
		return domain.Account{}, domain.ErrAccountNumberTaken
	}

	s.nextAccountID++

	a := domain.Account{
		ID:            s.nextAccountID,
		Owner:         arg.Owner,
		AccountNumber: arg.AccountNumber,
		Name:          arg.Name,
		Type:          arg.Type,
		Balance:       arg.Balance,
		CreatedAt:     time.Now().UTC(),
	}

	s.accounts[a.ID] = a
	s.accountNumbers[a.AccountNumber] = struct{}{}

	return a, nil
}

// Get returns the account with the given id.
func (r *AccountRepo) Get(_ context.Context, id int64) (domain.Account, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// List returns all accounts owned by the given user in creation order.
func (r *AccountRepo) List(_ context.Context, owner string) ([]domain.Account, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	items := []domain.Account{}

	for id := int64(1); id <= s.nextAccountID; id++ {
		a, ok := s.accounts[id]
		if ok && a.Owner == owner {
			items = append(items, a)
		}
	}

	return items, nil
}

// Update sets the descriptive fields of the account and returns it.
func (r *AccountRepo) Update(_ context.Context, id int64, name, accountType string) (domain.Account, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	a.Name = name
	a.Type = accountType
	s.accounts[id] = a

	return a, nil
}

// Delete removes the account with the given id. Accounts with posted
// transactions cannot be deleted.
func (r *AccountRepo) Delete(_ context.Context, id int64) error {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	if len(s.transactions[id]) > 0 {
		return domain.ErrAccountHasTransactions
	}

	delete(s.accounts, id)
	delete(s.accountNumbers, a.AccountNumber)

	return nil
}

// TransactionRepo implements the transaction repository contract over the store.
type TransactionRepo struct {
	store *Store
}

// Post appends the transaction record and sets the account's new balance
// inside a single critical section.
func (r *TransactionRepo) Post(_ context.Context, arg domain.PostTransactionParams) (domain.Transaction, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[arg.AccountID]
	if !ok {
		return domain.Transaction{}, domain.ErrAccountNotFound
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Transaction{}, domain.ErrNegativeAmount
	}

	newBalance, err := decimal.NewFromString(arg.NewBalance)
	if err != nil {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}

	// Mirrors the accounts_balance_check constraint of the SQL schema.
	if newBalance.IsNegative() {
		return domain.Transaction{}, domain.ErrInsufficientBalance
	}

	s.nextTransactionID++

	t := domain.Transaction{
		ID:        s.nextTransactionID,
		AccountID: arg.AccountID,
		Kind:      arg.Kind,
		Amount:    amount.String(),
		CreatedAt: time.Now().UTC(),
	}

	a.Balance = newBalance.String()
	s.accounts[arg.AccountID] = a
	s.transactions[arg.AccountID] = append(s.transactions[arg.AccountID], t)

	return t, nil
}

// Get returns the transaction with the given id scoped to the given account.
func (r *TransactionRepo) Get(_ context.Context, accountID, id int64) (domain.Transaction, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transactions[accountID] {
		if t.ID == id {
			return t, nil
		}
	}

	return domain.Transaction{}, domain.ErrTransactionNotFound
}

// List returns all transactions of the given account in creation order.
func (r *TransactionRepo) List(_ context.Context, accountID int64) ([]domain.Transaction, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.Transaction, len(s.transactions[accountID]))
	copy(items, s.transactions[accountID])

	return items, nil
}

// UserRepo implements the user repository contract over the store.
type UserRepo struct {
	store *Store
}

// Create creates the user and then returns it.
func (r *UserRepo) Create(_ context.Context, arg domain.CreateUserParams) (domain.User, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[arg.Username]; ok {
		return domain.User{}, domain.ErrUsernameAlreadyExists
	}

	for _, u := range s.users {
		if u.Email == arg.Email {
			return domain.User{}, domain.ErrEmailAlreadyExists
		}
	}

	u := domain.User{
		Username:       arg.Username,
		HashedPassword: arg.HashedPassword,
		FullName:       arg.FullName,
		Email:          arg.Email,
		CreatedAt:      time.Now().UTC(),
	}

	s.users[u.Username] = u

	return u, nil
}

// Get returns the user with the given username.
func (r *UserRepo) Get(_ context.Context, username string) (domain.User, error) {
	s := r.store

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}

	return u, nil
}
