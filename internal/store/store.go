// Package store persists leak scan history and finalized daily consumption
// in a bbolt database so analytics survive daemon restarts.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/sweeney/tankd/internal/consumption"
	"github.com/sweeney/tankd/internal/leak"
)

const (
	scanBucket = "leak_scans"
	dayBucket  = "consumption_days"
)

// Store wraps the bolt database. Safe for use from multiple goroutines;
// bolt serializes writes internally.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range []string{scanBucket, dayBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(b)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveScan appends a scan result, keyed by its start time.
func (s *Store) SaveScan(res leak.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal scan: %w", err)
	}
	key := []byte(res.Start.UTC().Format(time.RFC3339Nano))

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(scanBucket)).Put(key, data)
	})
}

// Scans returns up to limit most recent scan results, oldest first.
// A limit of 0 returns everything.
func (s *Store) Scans(limit int) ([]leak.Result, error) {
	var out []leak.Result
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(scanBucket)).Cursor()
		// RFC3339 keys sort chronologically; walk backwards and reverse.
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) == limit {
				break
			}
			var res leak.Result
			if err := json.Unmarshal(v, &res); err != nil {
				return fmt.Errorf("unmarshal scan %s: %w", k, err)
			}
			out = append(out, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// SaveDay upserts a finalized (or in-progress) daily consumption entry,
// keyed by date.
func (s *Store) SaveDay(d consumption.Day) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal day: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(dayBucket)).Put([]byte(d.Date), data)
	})
}

// Days returns up to limit most recent daily entries, oldest first.
// A limit of 0 returns everything.
func (s *Store) Days(limit int) ([]consumption.Day, error) {
	var out []consumption.Day
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(dayBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) == limit {
				break
			}
			var d consumption.Day
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("unmarshal day %s: %w", k, err)
			}
			out = append(out, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
