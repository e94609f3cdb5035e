package progress

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v2"
)

// BadgerPersister stores one record per learner in an embedded key-value store.
type BadgerPersister struct {
	db  *badger.DB
	key []byte
}

// OpenBadger opens the store in dir. An empty dir keeps everything in memory.
func OpenBadger(dir, learner string) (*BadgerPersister, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir).WithTruncate(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening progress store: %w", err)
	}
	return &BadgerPersister{db: db, key: []byte("progress/" + learner)}, nil
}

func (p *BadgerPersister) Load() (*Record, error) {
	var data []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(p.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress: %w", err)
	}
	return DecodeRecord(data, string(p.key)), nil
}

func (p *BadgerPersister) Save(rec *Record, _ Event) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(p.key, data)
	})
	if err != nil {
		return fmt.Errorf("writing progress: %w", err)
	}
	return nil
}

func (p *BadgerPersister) Close() error {
	return p.db.Close()
}
