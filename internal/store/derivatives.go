package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papertrade/ledger/internal/domain"
)

func lotPrefix(userID string) string {
	return fmt.Sprintf("folot/%s/", userID)
}

func lotKey(userID, id string) string {
	return lotPrefix(userID) + id
}

// PutLot records a newly opened derivative lot.
func (tx *Tx) PutLot(l domain.DerivativeLot) (domain.DerivativeLot, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().UTC()
	if err := tx.put(lotKey(l.UserID, l.ID), l); err != nil {
		return domain.DerivativeLot{}, err
	}
	return l, nil
}

// Lots returns the user's open lots matching symbol and option type.
func (tx *Tx) Lots(userID, symbol string, optType domain.OptionType) ([]domain.DerivativeLot, error) {
	var out []domain.DerivativeLot
	err := tx.scan(lotPrefix(userID), func(_ string, raw []byte) error {
		var l domain.DerivativeLot
		if err := json.Unmarshal(raw, &l); err != nil {
			return err
		}
		if l.Symbol == symbol && l.OptionType == optType {
			out = append(out, l)
		}
		return nil
	})
	return out, err
}

// LotsByUser returns every open lot a user holds.
func (tx *Tx) LotsByUser(userID string) ([]domain.DerivativeLot, error) {
	var out []domain.DerivativeLot
	err := tx.scan(lotPrefix(userID), func(_ string, raw []byte) error {
		var l domain.DerivativeLot
		if err := json.Unmarshal(raw, &l); err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

// DeleteLot removes a closed lot. Lots always close in full.
func (tx *Tx) DeleteLot(l domain.DerivativeLot) error {
	return tx.delete(lotKey(l.UserID, l.ID))
}
