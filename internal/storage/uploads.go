package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/insightdelivered/due-invoice-extractor/internal/models"
)

const uploadsBucket = "file_uploads"

// UploadLog records every processed upload.
type UploadLog interface {
	// Record stores u, assigning an ID when it has none
	Record(ctx context.Context, u *models.Upload) error

	// List returns all uploads, newest first
	List(ctx context.Context) ([]*models.Upload, error)

	Close() error
}

// BoltLog implements UploadLog using BoltDB
type BoltLog struct {
	db *bbolt.DB
}

// NewBoltLog opens (or creates) the log database at path
func NewBoltLog(path string) (*BoltLog, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(uploadsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltLog{db: db}, nil
}

// Record saves an upload entry
func (b *BoltLog) Record(_ context.Context, u *models.Upload) error {
	prepare(u)
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshaling upload: %w", err)
		}
		return tx.Bucket([]byte(uploadsBucket)).Put([]byte(u.ID), data)
	})
}

// List returns all upload entries, newest first
func (b *BoltLog) List(_ context.Context) ([]*models.Upload, error) {
	uploads := make([]*models.Upload, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(uploadsBucket)).ForEach(func(k, v []byte) error {
			var u models.Upload
			if err := json.Unmarshal(v, &u); err != nil {
				return fmt.Errorf("unmarshaling upload: %w", err)
			}
			uploads = append(uploads, &u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(uploads, func(i, j int) bool {
		return uploads[i].ProcessedAt.After(uploads[j].ProcessedAt)
	})
	return uploads, nil
}

// Close closes the database
func (b *BoltLog) Close() error {
	return b.db.Close()
}

func prepare(u *models.Upload) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.ProcessedAt.IsZero() {
		u.ProcessedAt = time.Now().UTC()
	}
}
