// Package store persists ledger state in a bbolt database: one global
// record, one record per holder, and append-only round metadata.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/openraise/libraise-go/ledger"
)

var (
	bucketGlobal  = []byte("global")
	bucketHolders = []byte("holders")
	bucketRounds  = []byte("rounds")

	keyGlobal = []byte("state")
)

// LedgerStore wraps a bbolt database holding one sale's ledger.
type LedgerStore struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath. The parent directory
// is created if it does not exist.
func Open(dbPath string) (*LedgerStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketGlobal, bucketHolders, bucketRounds} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &LedgerStore{db: db}, nil
}

// Close closes the underlying database.
func (s *LedgerStore) Close() error { return s.db.Close() }

// roundKey encodes a period index as an 8-byte big-endian key so rounds
// iterate in order.
func roundKey(index uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, index)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Commit writes the global state, the given holder records, and any new
// rounds in a single transaction. Either everything lands or nothing does.
func (s *LedgerStore) Commit(global ledger.GlobalState, holders []*ledger.Holder, rounds []ledger.Round) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(&global)
		if err != nil {
			return fmt.Errorf("store: encode global: %w", err)
		}
		if err := tx.Bucket(bucketGlobal).Put(keyGlobal, data); err != nil {
			return fmt.Errorf("store: put global: %w", err)
		}

		hb := tx.Bucket(bucketHolders)
		for _, h := range holders {
			if h.ID == "" {
				return fmt.Errorf("%w: empty holder id", ErrInvalidRecord)
			}
			data, err := encodeGob(h)
			if err != nil {
				return fmt.Errorf("store: encode holder %s: %w", h.ID, err)
			}
			if err := hb.Put([]byte(h.ID), data); err != nil {
				return fmt.Errorf("store: put holder %s: %w", h.ID, err)
			}
		}

		rb := tx.Bucket(bucketRounds)
		for _, r := range rounds {
			key := roundKey(r.Index)
			if rb.Get(key) != nil {
				return fmt.Errorf("%w: round %d", ErrDuplicateRound, r.Index)
			}
			data, err := encodeGob(&r)
			if err != nil {
				return fmt.Errorf("store: encode round %d: %w", r.Index, err)
			}
			if err := rb.Put(key, data); err != nil {
				return fmt.Errorf("store: put round %d: %w", r.Index, err)
			}
		}
		return nil
	})
}

// LoadGlobal retrieves the global state record.
func (s *LedgerStore) LoadGlobal() (ledger.GlobalState, error) {
	var g ledger.GlobalState
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketGlobal).Get(keyGlobal)
		if data == nil {
			return ErrGlobalNotFound
		}
		if err := decodeGob(data, &g); err != nil {
			return fmt.Errorf("store: decode global: %w", err)
		}
		return nil
	})
	if err != nil {
		return ledger.GlobalState{}, err
	}
	return g, nil
}

// GetHolder retrieves one holder record by identity.
func (s *LedgerStore) GetHolder(id string) (*ledger.Holder, error) {
	var h ledger.Holder
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketHolders).Get([]byte(id))
		if data == nil {
			return ErrHolderNotFound
		}
		if err := decodeGob(data, &h); err != nil {
			return fmt.Errorf("store: decode holder %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListRounds returns all stored rounds in period order.
func (s *LedgerStore) ListRounds() ([]ledger.Round, error) {
	var rounds []ledger.Round
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRounds).ForEach(func(k, v []byte) error {
			var r ledger.Round
			if err := decodeGob(v, &r); err != nil {
				return fmt.Errorf("store: decode round: %w", err)
			}
			rounds = append(rounds, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

// LoadBook reconstructs the full in-memory ledger. ErrGlobalNotFound means
// the store is empty and a fresh Book should be created instead.
func (s *LedgerStore) LoadBook() (*ledger.Book, error) {
	g, err := s.LoadGlobal()
	if err != nil {
		return nil, err
	}

	book := &ledger.Book{Global: g, Holders: make(map[string]*ledger.Holder)}
	err = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketHolders).ForEach(func(k, v []byte) error {
			var h ledger.Holder
			if err := decodeGob(v, &h); err != nil {
				return fmt.Errorf("store: decode holder %s: %w", k, err)
			}
			book.Holders[h.ID] = &h
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	book.Rounds, err = s.ListRounds()
	if err != nil {
		return nil, err
	}
	return book, nil
}

// SaveBook writes the entire in-memory ledger, replacing stored holders and
// appending rounds not yet present. Used for initial seeding and recovery;
// steady-state operations use Commit with just the touched records.
func (s *LedgerStore) SaveBook(book *ledger.Book) error {
	stored, err := s.ListRounds()
	if err != nil {
		return err
	}
	newRounds := book.Rounds[len(stored):]

	holders := make([]*ledger.Holder, 0, len(book.Holders))
	for _, h := range book.Holders {
		holders = append(holders, h)
	}
	return s.Commit(book.Global, holders, newRounds)
}
