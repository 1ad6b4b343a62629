package thumbstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"gallery/internal/logging"
	"gallery/internal/metrics"
)

var bucketName = []byte("thumbs")

// ErrNotFound is returned by Get when no thumbnail is stored under a path.
var ErrNotFound = errors.New("thumbnail not found")

// DefaultCacheEntries is the read cache size used when none is configured.
const DefaultCacheEntries = 1024

// Entry is a thumbnail to be stored under the root-relative path of its source.
type Entry struct {
	Path string
	Data []byte
}

// Stats summarizes the store's contents.
type Stats struct {
	Keys  int
	Bytes int64
}

// Store is the key-value thumbnail store: one entry per media path, values
// are encoded thumbnails. Reads go through an in-memory LRU cache that is
// invalidated by every write touching the same key. Reads never wait for a
// write transaction.
type Store struct {
	db    *bolt.DB
	path  string
	cache *lru.Cache[string, []byte]

	// fillMu orders cache fills against invalidations. It is never held
	// across a bolt transaction. gen counts invalidations; a fill is dropped
	// if gen moved while its read was in flight.
	fillMu sync.Mutex
	gen    uint64
}

// Open opens (creating if needed) the store file at path.
func Open(path string, cacheEntries int) (*Store, error) {
	if cacheEntries <= 0 {
		cacheEntries = DefaultCacheEntries
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open thumbnail store: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create thumbnail bucket: %w", err)
	}

	cache, err := lru.New[string, []byte](cacheEntries)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create thumbnail cache: %w", err)
	}

	logging.Info("Thumbnail store opened at %s (cache %d entries)", path, cacheEntries)
	return &Store{db: db, path: path, cache: cache}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

func record(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbStoreOperations.WithLabelValues(op, status).Inc()
}

func (s *Store) generation() uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.gen
}

// fill caches data read at generation g unless a write has invalidated
// entries since.
func (s *Store) fill(path string, data []byte, g uint64) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.gen == g {
		s.cache.Add(path, data)
	}
}

// invalidate drops keys from the cache after a write, or everything when
// keys is nil.
func (s *Store) invalidate(keys []string) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gen++
	if keys == nil {
		s.cache.Purge()
		return
	}
	for _, k := range keys {
		s.cache.Remove(k)
	}
}

// PutAll writes every entry in a single transaction.
func (s *Store) PutAll(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, e := range entries {
			if err := b.Put([]byte(e.Path), e.Data); err != nil {
				return fmt.Errorf("put %s: %w", e.Path, err)
			}
		}
		return nil
	})
	record("put", err)

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Path
	}
	s.invalidate(keys)
	return err
}

// Delete removes the given keys. Missing keys are ignored.
func (s *Store) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
	record("delete", err)

	s.invalidate(keys)
	return err
}

// DeletePrefixes removes every key starting with any of the given prefixes.
// Callers pass folder paths with a trailing slash so sibling folders sharing
// a name prefix survive.
func (s *Store) DeletePrefixes(prefixes ...string) error {
	if len(prefixes) == 0 {
		return nil
	}

	removed := []string{}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for _, prefix := range prefixes {
			p := []byte(prefix)

			// Deleting while iterating skips keys, so collect first.
			var keys [][]byte
			c := b.Cursor()
			for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
				keys = append(keys, append([]byte(nil), k...))
			}
			for _, k := range keys {
				if err := b.Delete(k); err != nil {
					return fmt.Errorf("delete %s: %w", k, err)
				}
				removed = append(removed, string(k))
			}
		}
		return nil
	})
	record("delete_prefix", err)

	if err != nil {
		s.invalidate(nil)
		return err
	}
	s.invalidate(removed)
	logging.Debug("Removed %d thumbnails under %d prefixes", len(removed), len(prefixes))
	return nil
}

// Get returns the thumbnail stored under path, or ErrNotFound.
// The returned slice is owned by the caller.
func (s *Store) Get(path string) ([]byte, error) {
	if data, ok := s.cache.Get(path); ok {
		metrics.ThumbCacheHits.Inc()
		return append([]byte(nil), data...), nil
	}
	metrics.ThumbCacheMisses.Inc()

	g := s.generation()
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(path))
		if v == nil {
			return ErrNotFound
		}
		// bolt values are only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		record("get", nil)
		return nil, ErrNotFound
	}
	record("get", err)
	if err != nil {
		return nil, err
	}

	s.fill(path, data, g)
	return append([]byte(nil), data...), nil
}

// Keys returns every stored key in byte order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Stats returns the number of stored thumbnails and the store file size.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		st.Keys = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	if info, err := os.Stat(s.path); err == nil {
		st.Bytes = info.Size()
	}
	return st, nil
}
