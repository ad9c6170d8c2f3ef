package store

import (
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// Tx wraps one Badger transaction with JSON document helpers. All reads
// inside an Update transaction count toward conflict detection, so a
// validate-then-write sequence is atomic against concurrent writers.
type Tx struct {
	txn   *badger.Txn
	store *Store
}

func (tx *Tx) get(key string, out interface{}) (bool, error) {
	item, err := tx.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "store: get %s", key)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
	if err != nil {
		return false, errors.Wrapf(err, "store: decode %s", key)
	}
	return true, nil
}

func (tx *Tx) put(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "store: encode %s", key)
	}
	if err := tx.txn.Set([]byte(key), b); err != nil {
		return errors.Wrapf(err, "store: set %s", key)
	}
	return nil
}

func (tx *Tx) delete(key string) error {
	if err := tx.txn.Delete([]byte(key)); err != nil {
		return errors.Wrapf(err, "store: delete %s", key)
	}
	return nil
}

// scan walks all documents under prefix in key order, passing each raw
// value to fn. Key order is creation order for sequence-keyed collections.
func (tx *Tx) scan(prefix string, fn func(key string, raw []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := tx.txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := string(item.Key())
		err := item.Value(func(val []byte) error {
			// copy: fn may outlive the item buffer
			raw := make([]byte, len(val))
			copy(raw, val)
			return fn(key, raw)
		})
		if err != nil {
			return errors.Wrapf(err, "store: scan %s", prefix)
		}
	}
	return nil
}
