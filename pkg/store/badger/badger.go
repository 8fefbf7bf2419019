package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/store"

	badgerdb "github.com/dgraph-io/badger/v4"
)

var snapshotPrefix = []byte("snapshot:")

func snapshotKey(id string) []byte {
	return append(append([]byte{}, snapshotPrefix...), id...)
}

// BadgerStore keeps snapshots in an embedded BadgerDB.
type BadgerStore struct {
	db  *badgerdb.DB
	now func() time.Time
}

type BadgerStoreOptions struct {
	// DataDir is ignored when InMemory is set.
	DataDir  string
	InMemory bool
}

func NewBadgerStore(opts BadgerStoreOptions) (*BadgerStore, error) {
	bOpts := badgerdb.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		bOpts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	bOpts = bOpts.WithLogger(nil)

	db, err := badgerdb.Open(bOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func (b *BadgerStore) Save(_ context.Context, s store.Snapshot) (string, error) {
	s, err := store.Prepare(s, b.now())
	if err != nil {
		return "", err
	}
	data, err := store.Encode(s)
	if err != nil {
		return "", err
	}
	err = b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(snapshotKey(s.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return s.ID, nil
}

func (b *BadgerStore) Load(_ context.Context, id string) (store.Snapshot, error) {
	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(snapshotKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return store.Decode(data)
}

func (b *BadgerStore) List(_ context.Context) ([]store.SnapshotInfo, error) {
	infos := []store.SnapshotInfo{}
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = snapshotPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var s store.Snapshot
			err := it.Item().Value(func(val []byte) error {
				var err error
				s, err = store.Decode(val)
				return err
			})
			if err != nil {
				return err
			}
			infos = append(infos, store.InfoOf(s))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	store.SortInfos(infos)
	return infos, nil
}
