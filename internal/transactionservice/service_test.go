package transactionservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/arsy786/eagle-bank/internal/domain"
	"github.com/arsy786/eagle-bank/internal/memstore"
	"github.com/arsy786/eagle-bank/pkg/errorspkg"
	"github.com/arsy786/eagle-bank/pkg/randompkg"
)

func randomAccount(id int64, balance string) domain.Account {
	return domain.Account{
		ID:            id,
		Owner:         randompkg.Owner(),
		AccountNumber: randompkg.AccountNumber(),
		Name:          "Main",
		Type:          randompkg.AccountType(),
		Balance:       balance,
		CreatedAt:     time.Now().Truncate(time.Second).UTC(),
	}
}

func TestPost(t *testing.T) {
	testAccount := randomAccount(1, "1000")
	testAmount := "100"

	testTransaction := domain.Transaction{
		ID:        1,
		AccountID: testAccount.ID,
		Kind:      domain.Deposit,
		Amount:    testAmount,
	}

	type input struct {
		accountID int64
		caller    string
		kind      domain.TransactionKind
		amount    string
	}

	testCases := []struct {
		name          string
		input         input
		buildStubs    func(repo *MockRepo, accounts *MockAccountRepo)
		checkResponse func(res domain.Transaction, err error)
	}{
		{
			name: "Account not found",
			input: input{
				accountID: 404,
				caller:    testAccount.Owner,
				kind:      domain.Deposit,
				amount:    testAmount,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(int64(404))).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrAccountNotFound.Error())
			},
		},
		{
			name: "Caller does not own the account",
			input: input{
				accountID: testAccount.ID,
				caller:    "intruder",
				kind:      domain.Withdrawal,
				amount:    testAmount,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrAccountOwnerMismatch.Error())
			},
		},
		{
			name: "Invalid kind",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.TransactionKind("transfer"),
				amount:    testAmount,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidTransactionKind.Error())
			},
		},
		{
			name: "Invalid amount",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Deposit,
				amount:    "!@#$",
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInvalidAmount.Error())
			},
		},
		{
			name: "Negative amount",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Deposit,
				amount:    "-100",
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrNegativeAmount.Error())
			},
		},
		{
			name: "Zero amount",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Withdrawal,
				amount:    "0",
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrNegativeAmount.Error())
			},
		},
		{
			name: "Corrupted stored balance",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Deposit,
				amount:    testAmount,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(domain.Account{
						ID:      testAccount.ID,
						Owner:   testAccount.Owner,
						Balance: "invalid",
					}, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, errorspkg.ErrInternal.Error())
			},
		},
		{
			name: "Insufficient balance",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Withdrawal,
				amount:    "10000",
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrInsufficientBalance.Error())
			},
		},
		{
			name: "Repo error",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Deposit,
				amount:    testAmount,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Transaction{}, errorspkg.ErrInternal)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, errorspkg.ErrInternal.Error())
			},
		},
		{
			name: "OK deposit",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Deposit,
				amount:    testAmount,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Eq(domain.PostTransactionParams{
					AccountID:  testAccount.ID,
					Kind:       domain.Deposit,
					Amount:     testAmount,
					NewBalance: "1100",
				})).
					Times(1).
					Return(testTransaction, nil)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, testTransaction, res)
			},
		},
		{
			name: "OK withdrawal",
			input: input{
				accountID: testAccount.ID,
				caller:    testAccount.Owner,
				kind:      domain.Withdrawal,
				amount:    testAmount,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Post(gomock.Any(), gomock.Eq(domain.PostTransactionParams{
					AccountID:  testAccount.ID,
					Kind:       domain.Withdrawal,
					Amount:     testAmount,
					NewBalance: "900",
				})).
					Times(1).
					Return(testTransaction, nil)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, testTransaction, res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			accounts := NewMockAccountRepo(ctrl)
			service := New(repo, accounts)

			tc.buildStubs(repo, accounts)

			tc.checkResponse(service.Post(
				context.Background(),
				tc.input.accountID,
				tc.input.caller,
				tc.input.kind,
				tc.input.amount))
		})
	}
}

func TestGet(t *testing.T) {
	testAccount := randomAccount(1, "1000")

	testTransaction := domain.Transaction{
		ID:        7,
		AccountID: testAccount.ID,
		Kind:      domain.Deposit,
		Amount:    "100",
	}

	type input struct {
		accountID     int64
		transactionID int64
		caller        string
	}

	testCases := []struct {
		name          string
		input         input
		buildStubs    func(repo *MockRepo, accounts *MockAccountRepo)
		checkResponse func(res domain.Transaction, err error)
	}{
		{
			name:  "Account not found",
			input: input{accountID: 404, transactionID: testTransaction.ID, caller: testAccount.Owner},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(int64(404))).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrAccountNotFound.Error())
			},
		},
		{
			name:  "Caller does not own the account",
			input: input{accountID: testAccount.ID, transactionID: testTransaction.ID, caller: "intruder"},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrAccountOwnerMismatch.Error())
			},
		},
		{
			name:  "Transaction of another account",
			input: input{accountID: testAccount.ID, transactionID: 99, caller: testAccount.Owner},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID), gomock.Eq(int64(99))).
					Times(1).
					Return(domain.Transaction{}, domain.ErrTransactionNotFound)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.Empty(t, res)
				require.EqualError(t, err, domain.ErrTransactionNotFound.Error())
			},
		},
		{
			name:  "OK",
			input: input{accountID: testAccount.ID, transactionID: testTransaction.ID, caller: testAccount.Owner},
			buildStubs: func(repo *MockRepo, accounts *MockAccountRepo) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID), gomock.Eq(testTransaction.ID)).
					Times(1).
					Return(testTransaction, nil)
			},
			checkResponse: func(res domain.Transaction, err error) {
				require.NoError(t, err)
				require.Equal(t, testTransaction, res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			accounts := NewMockAccountRepo(ctrl)
			service := New(repo, accounts)

			tc.buildStubs(repo, accounts)

			tc.checkResponse(service.Get(
				context.Background(),
				tc.input.accountID,
				tc.input.transactionID,
				tc.input.caller))
		})
	}
}

func setupMemService(t *testing.T, owner, balance string) (*Service, *memstore.Store, domain.Account) {
	t.Helper()

	store := memstore.New()
	service := New(store.Transactions(), store.Accounts())

	account, err := store.Accounts().Create(context.Background(), domain.CreateAccountParams{
		Owner:         owner,
		AccountNumber: randompkg.AccountNumber(),
		Name:          "Main",
		Type:          "SAVINGS",
		Balance:       "0",
	})
	require.NoError(t, err)

	if balance != "0" {
		_, err = service.Post(context.Background(), account.ID, owner, domain.Deposit, balance)
		require.NoError(t, err)
	}

	return service, store, account
}

func TestPostScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	owner := randompkg.Owner()

	service, _, account := setupMemService(t, owner, "0")

	_, err := service.Post(ctx, account.ID, owner, domain.Deposit, "100.00")
	require.NoError(t, err)

	_, err = service.Post(ctx, account.ID, owner, domain.Withdrawal, "30.00")
	require.NoError(t, err)

	got, err := service.accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "70", got.Balance)

	transactions, err := service.List(ctx, account.ID, owner)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	require.Equal(t, domain.Deposit, transactions[0].Kind)
	require.Equal(t, "100", transactions[0].Amount)
	require.Equal(t, domain.Withdrawal, transactions[1].Kind)
	require.Equal(t, "30", transactions[1].Amount)
}

func TestFailedPostLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	owner := randompkg.Owner()

	service, _, account := setupMemService(t, owner, "50")

	_, err := service.Post(ctx, account.ID, owner, domain.Withdrawal, "50.01")
	require.EqualError(t, err, domain.ErrInsufficientBalance.Error())

	_, err = service.Post(ctx, account.ID, owner, domain.Deposit, "-1")
	require.EqualError(t, err, domain.ErrNegativeAmount.Error())

	got, err := service.accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "50", got.Balance)

	transactions, err := service.List(ctx, account.ID, owner)
	require.NoError(t, err)
	require.Len(t, transactions, 1) // the seed deposit only
}

func TestConcurrentWithdrawals(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	owner := randompkg.Owner()

	// Balance B and two concurrent withdrawals of A with A <= B < 2A:
	// exactly one must succeed.
	service, _, account := setupMemService(t, owner, "100")

	errs := make(chan error, 2)

	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := service.Post(ctx, account.ID, owner, domain.Withdrawal, "70")
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var succeeded, insufficient int

	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case err == domain.ErrInsufficientBalance:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, insufficient)

	got, err := service.accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "30", got.Balance)

	transactions, err := service.List(ctx, account.ID, owner)
	require.NoError(t, err)
	require.Len(t, transactions, 2) // seed deposit + the single successful withdrawal
}

func TestConcurrentPostingsReconcile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	owner := randompkg.Owner()

	service, _, account := setupMemService(t, owner, "1000")

	const n = 50

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			kind := domain.Deposit
			if i%2 == 0 {
				kind = domain.Withdrawal
			}

			// Withdrawals may fail with insufficient balance, which is fine:
			// failed posts must not leave a record.
			_, _ = service.Post(ctx, account.ID, owner, kind, randompkg.MoneyAmountBetween(1, 100))
		}(i)
	}

	wg.Wait()

	got, err := service.accounts.Get(ctx, account.ID)
	require.NoError(t, err)

	transactions, err := service.List(ctx, account.ID, owner)
	require.NoError(t, err)

	// The committed balance equals the replay of all committed transactions
	// in order, exactly.
	replayed := decimal.Zero

	for _, tx := range transactions {
		amount, err := decimal.NewFromString(tx.Amount)
		require.NoError(t, err)
		require.True(t, amount.IsPositive())

		if tx.Kind == domain.Deposit {
			replayed = replayed.Add(amount)
		} else {
			replayed = replayed.Sub(amount)
		}

		require.False(t, replayed.IsNegative())
	}

	balance, err := decimal.NewFromString(got.Balance)
	require.NoError(t, err)
	require.True(t, balance.Equal(replayed), "balance %s != replayed %s", balance, replayed)
}
