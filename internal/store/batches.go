package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papertrade/ledger/internal/domain"
)

// Batch keys are "<collection>/<user>/<symbol>/<seq>" with the sequence
// zero-padded so lexicographic iteration equals creation order — that is
// the FIFO order sells consume in.
func batchPrefix(class domain.AssetClass, userID, symbol string) string {
	return fmt.Sprintf("%s/%s/%s/", batchCollection(class), userID, symbol)
}

func batchKey(class domain.AssetClass, b domain.Batch) string {
	return fmt.Sprintf("%s%020d", batchPrefix(class, b.UserID, b.Symbol), b.Seq)
}

func batchCollection(class domain.AssetClass) string {
	if class == domain.AssetFund {
		return "fund"
	}
	return "batch"
}

// AppendBatch records a new acquisition batch. The store assigns id and
// sequence; callers never merge into an existing batch.
func (tx *Tx) AppendBatch(class domain.AssetClass, b domain.Batch) (domain.Batch, error) {
	seq, err := tx.store.nextSeq()
	if err != nil {
		return domain.Batch{}, err
	}
	b.ID = uuid.NewString()
	b.Seq = seq
	b.CreatedAt = time.Now().UTC()
	if err := tx.put(batchKey(class, b), b); err != nil {
		return domain.Batch{}, err
	}
	return b, nil
}

// Batches returns all batches for (user, symbol) oldest first.
func (tx *Tx) Batches(class domain.AssetClass, userID, symbol string) ([]domain.Batch, error) {
	var out []domain.Batch
	err := tx.scan(batchPrefix(class, userID, symbol), func(_ string, raw []byte) error {
		var b domain.Batch
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

// BatchesByUser returns every batch a user holds in the class, grouped by
// nothing in particular — key order is (symbol, seq).
func (tx *Tx) BatchesByUser(class domain.AssetClass, userID string) ([]domain.Batch, error) {
	var out []domain.Batch
	prefix := fmt.Sprintf("%s/%s/", batchCollection(class), userID)
	err := tx.scan(prefix, func(_ string, raw []byte) error {
		var b domain.Batch
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

// PutBatch writes back a partially consumed batch in place.
func (tx *Tx) PutBatch(class domain.AssetClass, b domain.Batch) error {
	return tx.put(batchKey(class, b), b)
}

// DeleteBatch removes a fully consumed batch.
func (tx *Tx) DeleteBatch(class domain.AssetClass, b domain.Batch) error {
	return tx.delete(batchKey(class, b))
}
