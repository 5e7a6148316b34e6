package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/hashutil"
	bolt "go.etcd.io/bbolt"
)

var (
	blobBucket = []byte("resources")
	metaBucket = []byte("resource_meta")
)

type boltMeta struct {
	MimeType string    `json:"mime_type"`
	Filename string    `json:"filename"`
	Size     int       `json:"size"`
	SavedAt  time.Time `json:"saved_at"`
}

// BoltStore keeps resources inside a single bbolt database file.
type BoltStore struct {
	metadataSink metadata.MetadataSink
	db           *bolt.DB
	path         string
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(metadataSink metadata.MetadataSink, path string) (*BoltStore, failure.ClassifiedError) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDatabase,
			Path:      path,
		}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blobBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseDatabase,
			Path:      path,
		}
	}
	return &BoltStore{metadataSink: metadataSink, db: db, path: path}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Save(
	ctx context.Context,
	data []byte,
	mimeType string,
	filename string,
) (string, failure.ClassifiedError) {
	id, err := s.put(ctx, data, mimeType, filename)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"BoltStore.Save",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, s.path),
				metadata.NewAttr(metadata.AttrMimeType, mimeType),
			},
		)
		return "", storageError
	}
	s.metadataSink.RecordResource(id, mimeType, len(data), []metadata.Attribute{
		metadata.NewAttr(metadata.AttrWritePath, s.path),
	})
	return id, nil
}

func (s *BoltStore) put(ctx context.Context, data []byte, mimeType string, filename string) (string, failure.ClassifiedError) {
	if err := ctx.Err(); err != nil {
		return "", &StorageError{Message: err.Error(), Cause: ErrCauseCancelled, Path: s.path}
	}
	if len(data) == 0 {
		return "", &StorageError{Message: "no bytes to persist", Cause: ErrCauseEmptyData, Path: s.path}
	}
	id := hashutil.ResourceID(data)
	meta, err := json.Marshal(boltMeta{
		MimeType: mimeType,
		Filename: filename,
		Size:     len(data),
		SavedAt:  time.Now().UTC(),
	})
	if err != nil {
		return "", &StorageError{Message: err.Error(), Cause: ErrCauseDatabase, Path: s.path}
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(blobBucket)
		if blobs.Get([]byte(id)) != nil {
			return nil
		}
		if err := blobs.Put([]byte(id), data); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put([]byte(id), meta)
	})
	if err != nil {
		return "", &StorageError{Message: err.Error(), Retryable: true, Cause: ErrCauseDatabase, Path: s.path}
	}
	return id, nil
}

// Get returns the bytes and MIME type stored under id.
func (s *BoltStore) Get(id string) ([]byte, string, failure.ClassifiedError) {
	var data []byte
	var meta boltMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		blob := tx.Bucket(blobBucket).Get([]byte(id))
		if blob == nil {
			return errNotFound
		}
		// bytes returned by Get are only valid inside the transaction
		data = append([]byte(nil), blob...)
		if raw := tx.Bucket(metaBucket).Get([]byte(id)); raw != nil {
			return json.Unmarshal(raw, &meta)
		}
		return nil
	})
	if errors.Is(err, errNotFound) {
		return nil, "", &StorageError{Message: id, Cause: ErrCauseNotFound, Path: s.path}
	}
	if err != nil {
		return nil, "", &StorageError{Message: err.Error(), Cause: ErrCauseDatabase, Path: s.path}
	}
	return data, meta.MimeType, nil
}

// IDs lists every stored identifier in key order.
func (s *BoltStore) IDs() ([]string, failure.ClassifiedError) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, &StorageError{Message: err.Error(), Cause: ErrCauseDatabase, Path: s.path}
	}
	return ids, nil
}

var errNotFound = errors.New("not found")
