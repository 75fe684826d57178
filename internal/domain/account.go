// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountOwnerMismatch indicates that the caller does not own the account.
	ErrAccountOwnerMismatch = errors.New("account belongs to another user")
	// ErrAccountNumberTaken indicates that the generated account number collided with an existing one.
	ErrAccountNumberTaken = errors.New("account number already taken")
	// ErrAccountHasTransactions indicates that the account cannot be deleted because it has posted transactions.
	ErrAccountHasTransactions = errors.New("account has transaction history")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
)

// Account holds a user's bank account data.
//
// Balance is a canonical decimal string. It is only ever changed by the
// transaction engine as part of a committed posting.
type Account struct {
	ID            int64     `json:"id"`
	Owner         string    `json:"owner"`
	AccountNumber string    `json:"account_number"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Balance       string    `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateAccountParams is the input data to create an account.
type CreateAccountParams struct {
	Owner         string `json:"owner"`
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Balance       string `json:"balance"`
}

// UpdateAccountParams carries the partial update of an account's
// descriptive fields. Nil fields keep their current value.
type UpdateAccountParams struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}
