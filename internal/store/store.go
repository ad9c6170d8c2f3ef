// Package store is the transactional document store behind the accounting
// engine. Documents are JSON values in Badger; every compound mutation runs
// inside a single Badger transaction so concurrent requests touching the
// same account serialize (the loser of a write conflict is retried against
// fresh state).
package store

import (
	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/papertrade/ledger/pkg/logger"
)

// maxTxnRetries bounds conflict retries. A retried closure re-reads all
// state, so a loser that no longer passes validation fails with the proper
// business error instead of retrying forever.
const maxTxnRetries = 8

type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

type Options struct {
	Path     string
	InMemory bool // tests
}

// Open opens (or creates) the document store.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("store: path is required")
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithLogger(nil)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "store: open badger")
	}
	seq, err := db.GetSequence([]byte("seq"), 128)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "store: open sequence")
	}
	return &Store{db: db, seq: seq}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.seq != nil {
		_ = s.seq.Release()
	}
	return s.db.Close()
}

// nextSeq hands out a store-wide monotonic sequence number. Gaps are fine;
// only ordering matters.
func (s *Store) nextSeq() (uint64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, errors.Wrap(err, "store: next seq")
	}
	return n, nil
}

// Update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) Update(fn func(tx *Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(&Tx{txn: txn, store: s})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		logger.Debugf("store: txn conflict, retry %d", attempt+1)
	}
	return errors.Wrap(err, "store: txn conflict retries exhausted")
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn, store: s})
	})
}
