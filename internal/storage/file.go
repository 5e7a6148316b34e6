package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/clipmd/internal/metadata"
	"github.com/rohmanhakim/clipmd/pkg/failure"
	"github.com/rohmanhakim/clipmd/pkg/fileutil"
	"github.com/rohmanhakim/clipmd/pkg/hashutil"
)

// FileStore writes each resource to <dir>/<id><ext>.
type FileStore struct {
	metadataSink metadata.MetadataSink
	dir          string
}

func NewFileStore(metadataSink metadata.MetadataSink, dir string) FileStore {
	return FileStore{
		metadataSink: metadataSink,
		dir:          dir,
	}
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Save(
	ctx context.Context,
	data []byte,
	mimeType string,
	filename string,
) (string, failure.ClassifiedError) {
	stored, err := writeFile(ctx, s.dir, data, mimeType, filename)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"FileStore.Save",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
				metadata.NewAttr(metadata.AttrMimeType, mimeType),
			},
		)
		return "", storageError
	}
	s.metadataSink.RecordResource(
		stored.ID(),
		stored.MimeType(),
		stored.Size(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, stored.Path()),
		},
	)
	return stored.ID(), nil
}

// Lookup returns the path of a previously saved resource.
func (s *FileStore) Lookup(id string) (string, bool) {
	if len(id) != hashutil.ResourceIDLength {
		return "", false
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, id+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

func writeFile(
	ctx context.Context,
	dir string,
	data []byte,
	mimeType string,
	filename string,
) (StoredResource, failure.ClassifiedError) {
	if err := ctx.Err(); err != nil {
		return StoredResource{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseCancelled,
			Path:      dir,
		}
	}
	if len(data) == 0 {
		return StoredResource{}, &StorageError{
			Message:   "no bytes to persist",
			Retryable: false,
			Cause:     ErrCauseEmptyData,
			Path:      dir,
		}
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return StoredResource{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      dir,
		}
	}

	id := hashutil.ResourceID(data)
	finalPath, joinErr := safePath(dir, id+ExtensionFor(mimeType, filename))
	if joinErr != nil {
		return StoredResource{}, joinErr
	}
	if info, err := os.Stat(finalPath); err == nil && info.Size() == int64(len(data)) {
		return NewStoredResource(id, finalPath, mimeType, len(data)), nil
	}

	tempPath, joinErr := safePath(dir, fmt.Sprintf(".%s.%d.tmp", id, time.Now().UnixNano()))
	if joinErr != nil {
		return StoredResource{}, joinErr
	}
	// best effort; after a successful rename the temp path no longer exists
	defer os.Remove(tempPath)

	if err := writeExclusive(tempPath, data); err != nil {
		return StoredResource{}, writeError(err, tempPath)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		return StoredResource{}, writeError(err, finalPath)
	}
	return NewStoredResource(id, finalPath, mimeType, len(data)), nil
}

func safePath(dir string, name string) (string, failure.ClassifiedError) {
	p, err := fileutil.SafeJoin(dir, name)
	if err != nil {
		return "", &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathTraversal,
			Path:      filepath.Join(dir, name),
		}
	}
	return p, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeError(err error, path string) *StorageError {
	cause := ErrCauseWriteFailure
	retryable := false
	if errors.Is(err, syscall.ENOSPC) {
		cause = ErrCauseDiskFull
		retryable = true
	}
	return &StorageError{
		Message:   err.Error(),
		Retryable: retryable,
		Cause:     cause,
		Path:      path,
	}
}
