package mdstore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketCache = "cache"
	bucketMeta  = "meta"
)

// CacheVersion identifies the output of the renderers. Entries written under
// another version are discarded when the store is opened.
const CacheVersion = 1

var versionKey = []byte("version")

func init() {
	initDB["initialize render cache"] = func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketCache)); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
		if err != nil {
			return err
		}
		version := []byte(strconv.Itoa(CacheVersion))
		if old := meta.Get(versionKey); old != nil && !bytes.Equal(old, version) {
			logger.Printf("cache version %s is outdated, purging", old)
			if err := purge(tx); err != nil {
				return err
			}
		}
		return meta.Put(versionKey, version)
	}
}

// Keys are the output format followed by a digest of the source.
func cacheKey(format, text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte(format + ":" + hex.EncodeToString(sum[:]))
}

// Get looks up the output of rendering text in the given format.
func (s *Store) Get(format, text string) (string, bool, error) {
	var (
		output string
		found  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketCache)).Get(cacheKey(format, text))
		if v != nil {
			output, found = string(v), true
		}
		return nil
	})
	if found {
		logger.Printf("hit for %s (%d bytes)", format, len(text))
	} else {
		logger.Printf("miss for %s (%d bytes)", format, len(text))
	}
	return output, found, err
}

// Put records the output of rendering text in the given format.
func (s *Store) Put(format, text, output string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketCache)).Put(cacheKey(format, text), []byte(output))
	})
}

// Render returns the cached output for text, calling render and caching its
// result on a miss. Outputs are only cached when render succeeds.
func (s *Store) Render(format, text string, render func() (string, error)) (string, error) {
	if output, ok, err := s.Get(format, text); err != nil || ok {
		return output, err
	}
	output, err := render()
	if err != nil {
		return output, err
	}
	return output, s.Put(format, text, output)
}

// Purge removes all cached outputs.
func (s *Store) Purge() error {
	return s.db.Update(purge)
}

func purge(tx *bolt.Tx) error {
	if err := tx.DeleteBucket([]byte(bucketCache)); err != nil {
		return err
	}
	_, err := tx.CreateBucket([]byte(bucketCache))
	return err
}

// Stats describes the content of the cache.
type Stats struct {
	Entries int
	// Bytes is the total size of the cached outputs.
	Bytes uint64
}

// Stats returns statistics about the cache.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketCache)).ForEach(func(_, v []byte) error {
			st.Entries++
			st.Bytes += uint64(len(v))
			return nil
		})
	})
	return st, err
}
