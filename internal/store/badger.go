// Package store persists voice fingerprints and analysis logs in an
// embedded Badger key-value database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/LeeJaeHaeng/voiceshield/internal/voiceid"
)

const (
	voicePrefix = "voice:"
	logPrefix   = "log:"
)

// Badger is the on-disk store. Concurrent reads are safe; Badger
// serializes conflicting writes at the transaction level.
type Badger struct {
	db *badger.DB
}

// Open opens (or creates) the database at dir.
func Open(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("Store opened")
	return &Badger{db: db}, nil
}

// Close flushes and closes the database.
func (s *Badger) Close() error {
	return s.db.Close()
}

// GetFingerprint returns the enrolled fingerprint for name, or
// voiceid.ErrNotFound.
func (s *Badger) GetFingerprint(name string) ([]float64, error) {
	var fp []float64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(voicePrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fp)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", voiceid.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return fp, nil
}

// UpsertFingerprint creates or overwrites the fingerprint for name.
func (s *Badger) UpsertFingerprint(name string, fingerprint []float64) error {
	val, err := json.Marshal(fingerprint)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(voicePrefix+name), val)
	})
}

// ListNames returns every enrolled voice name.
func (s *Badger) ListNames() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(voicePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, voicePrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return names, nil
}

// Delete removes the named fingerprint. Deleting a missing name is not
// an error.
func (s *Badger) Delete(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(voicePrefix + name))
	})
}

// AppendLog stores an analysis record. Keys embed an inverted
// timestamp so a forward scan yields newest-first order.
func (s *Badger) AppendLog(record any) error {
	val, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode analysis record: %w", err)
	}
	key := fmt.Sprintf("%s%020d:%s", logPrefix,
		math.MaxInt64-time.Now().UnixNano(), uuid.New())
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

// RecentLogs returns up to limit analysis records, newest first.
func (s *Badger) RecentLogs(limit int) ([]json.RawMessage, error) {
	var records []json.RawMessage
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(logPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid() && len(records) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				records = append(records, json.RawMessage(append([]byte(nil), val...)))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis log: %w", err)
	}
	return records, nil
}
