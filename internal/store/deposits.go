package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papertrade/ledger/internal/domain"
)

func depositPrefix(userID string) string {
	return fmt.Sprintf("deposit/%s/", userID)
}

// PutDeposit records a new fixed deposit.
func (tx *Tx) PutDeposit(d domain.Deposit) (domain.Deposit, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	if err := tx.put(depositPrefix(d.UserID)+d.ID, d); err != nil {
		return domain.Deposit{}, err
	}
	return d, nil
}

// DepositsByUser returns all of a user's deposits.
func (tx *Tx) DepositsByUser(userID string) ([]domain.Deposit, error) {
	var out []domain.Deposit
	err := tx.scan(depositPrefix(userID), func(_ string, raw []byte) error {
		var d domain.Deposit
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}
