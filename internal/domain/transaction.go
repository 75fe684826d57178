package domain

import (
	"errors"
	"time"
)

var (
	// ErrTransactionNotFound indicates that the transaction is not found
	// or belongs to a different account.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidAmount indicates an amount that is not a valid decimal number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates a zero or negative amount.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrInvalidTransactionKind indicates an unknown transaction kind.
	ErrInvalidTransactionKind = errors.New("invalid transaction kind")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// TransactionKind is the direction of a transaction.
type TransactionKind string

// Supported transaction kinds.
const (
	Deposit    TransactionKind = "deposit"
	Withdrawal TransactionKind = "withdrawal"
)

// IsValid reports whether k is a supported transaction kind.
func (k TransactionKind) IsValid() bool {
	return k == Deposit || k == Withdrawal
}

// Transaction holds a single immutable balance change of an account.
type Transaction struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Kind      TransactionKind `json:"kind"`
	Amount    string          `json:"amount"` // always positive, direction is in Kind
	CreatedAt time.Time       `json:"created_at"`
}

// PostTransactionParams is the input data for the posting commit: the new
// transaction record together with the account balance it produces. The
// store must persist both or neither.
type PostTransactionParams struct {
	AccountID  int64           `json:"account_id"`
	Kind       TransactionKind `json:"kind"`
	Amount     string          `json:"amount"`
	NewBalance string          `json:"new_balance"`
}
