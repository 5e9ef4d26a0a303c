// Package bolt implements store.Store on top of a bbolt database file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ava12/verbal/internal/ctxlog"
	"github.com/ava12/verbal/store"
)

var scriptsBucket = []byte("scripts")

// Store keeps JSON-encoded script records in a single bucket.
type Store struct {
	filename string
	db       *bolt.DB
	now      func() time.Time
}

// Open opens or creates the database file.
func Open(ctx context.Context, filename string) (*Store, error) {
	db, e := bolt.Open(filename, 0644, &bolt.Options{Timeout: time.Second})
	if e != nil {
		return nil, fmt.Errorf("open script store %s: %w", filename, e)
	}

	e = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(scriptsBucket)
		return e
	})
	if e != nil {
		db.Close()
		return nil, fmt.Errorf("init script store %s: %w", filename, e)
	}

	ctxlog.FromContext(ctx).Debug("script store opened", "file", filename)
	return &Store{filename: filename, db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, name, source string) error {
	data, e := json.Marshal(store.Record{Source: source, Updated: s.now()})
	if e != nil {
		return e
	}

	e = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(scriptsBucket).Put([]byte(name), data)
	})
	if e != nil {
		return fmt.Errorf("put script %q: %w", name, e)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (*store.Record, error) {
	var rec *store.Record
	e := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(scriptsBucket).Get([]byte(name))
		if data == nil {
			return store.ErrNotFound
		}

		rec = &store.Record{}
		return json.Unmarshal(data, rec)
	})
	if e != nil {
		return nil, fmt.Errorf("get script %q: %w", name, e)
	}

	rec.Name = name
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	e := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(scriptsBucket).Delete([]byte(name))
	})
	if e != nil {
		return fmt.Errorf("delete script %q: %w", name, e)
	}
	return nil
}

// List returns names in key order, which is sorted for bbolt.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	e := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(scriptsBucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	if e != nil {
		return nil, fmt.Errorf("list scripts: %w", e)
	}
	return names, nil
}
