package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// BoltStore persists embedding vectors between runs so unchanged lab texts
// are not re-embedded. It stores vectors only; the retrieval index itself is
// always rebuilt in memory.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEmbeddings); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketEmbeddings, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// GetVector returns the stored vector for key.
func (s *BoltStore) GetVector(key string) ([]float32, bool, error) {
	var vec []float32
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get([]byte(key))
		if data == nil {
			return nil
		}
		decoded, err := decodeVector(data)
		if err != nil {
			return err
		}
		vec = decoded
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return vec, vec != nil, nil
}

// PutVectors stores vectors in a single transaction.
func (s *BoltStore) PutVectors(vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for key, vec := range vectors {
			if err := b.Put([]byte(key), encodeVector(vec)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored vectors.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear drops every stored vector.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEmbeddings); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketEmbeddings)
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
