// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/arsy786/eagle-bank/internal/accesspolicy"
	"github.com/arsy786/eagle-bank/internal/domain"
	"github.com/arsy786/eagle-bank/pkg/randompkg"
)

// maxNumberAttempts bounds retries when a generated account number collides
// with an existing one.
const maxNumberAttempts = 3

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	List(ctx context.Context, owner string) ([]domain.Account, error)
	Update(ctx context.Context, id int64, name, accountType string) (domain.Account, error)
	Delete(ctx context.Context, id int64) error
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account business logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Create creates and returns an account for the given owner with a fresh
// unique account number and zero balance.
func (s *Service) Create(ctx context.Context, owner, name, accountType string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var account domain.Account

	for i := 0; i < maxNumberAttempts; i++ {
		arg := domain.CreateAccountParams{
			Owner:         owner,
			AccountNumber: randompkg.AccountNumber(),
			Name:          name,
			Type:          accountType,
			Balance:       "0",
		}

		created, err := s.repo.Create(ctx, arg)
		if errors.Is(err, domain.ErrAccountNumberTaken) {
			l.Warn().Str("account_number", arg.AccountNumber).Msg("account number collision, retrying")
			continue
		}

		if err != nil {
			return account, err
		}

		return created, nil
	}

	return account, domain.ErrAccountNumberTaken
}

// Get returns the account with the given id if the caller owns it.
func (s *Service) Get(ctx context.Context, id int64, caller string) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	if err := accesspolicy.Authorize(account, caller); err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

// List returns all accounts that are owned by the given user.
func (s *Service) List(ctx context.Context, owner string) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Update applies a partial update of the account's descriptive fields.
// Absent fields keep their prior value; balance, account number, and owner
// are never touched.
func (s *Service) Update(ctx context.Context, id int64, caller string, arg domain.UpdateAccountParams) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	if err := accesspolicy.Authorize(account, caller); err != nil {
		return domain.Account{}, err
	}

	name := account.Name
	if arg.Name != nil {
		name = *arg.Name
	}

	accountType := account.Type
	if arg.Type != nil {
		accountType = *arg.Type
	}

	return s.repo.Update(ctx, id, name, accountType)
}

// Delete removes the account with the given id if the caller owns it.
// Accounts with posted transactions cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64, caller string) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := accesspolicy.Authorize(account, caller); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
