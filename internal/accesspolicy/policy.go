// Package accesspolicy provides the ownership check shared by the account
// and transaction services.
package accesspolicy

import "github.com/arsy786/eagle-bank/internal/domain"

// Authorize reports whether the caller owns the account. It must run after
// the account lookup succeeded, so a missing account surfaces as not found
// before ownership is ever considered.
func Authorize(account domain.Account, caller string) error {
	if account.Owner != caller {
		return domain.ErrAccountOwnerMismatch
	}

	return nil
}
