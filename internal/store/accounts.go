package store

import (
	"time"

	"github.com/pkg/errors"

	"github.com/papertrade/ledger/internal/domain"
)

func accountKey(userID string) string {
	return "account/" + userID
}

// CreateAccount writes a new account document. Fails with ErrAccountExists
// if the id is taken.
func (tx *Tx) CreateAccount(a domain.Account) error {
	var existing domain.Account
	found, err := tx.get(accountKey(a.ID), &existing)
	if err != nil {
		return err
	}
	if found {
		return errors.Wrap(domain.ErrAccountExists, a.ID)
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	return tx.put(accountKey(a.ID), a)
}

// Account loads one account or fails with ErrAccountNotFound.
func (tx *Tx) Account(userID string) (*domain.Account, error) {
	var a domain.Account
	found, err := tx.get(accountKey(userID), &a)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrap(domain.ErrAccountNotFound, userID)
	}
	return &a, nil
}

// PutAccount writes back a mutated account, refreshing UpdatedAt.
func (tx *Tx) PutAccount(a *domain.Account) error {
	a.UpdatedAt = time.Now().UTC()
	return tx.put(accountKey(a.ID), *a)
}
