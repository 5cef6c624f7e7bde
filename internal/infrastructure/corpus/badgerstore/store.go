// Package badgerstore keeps the lexical corpus snapshot in a badger
// directory. Ingestion writes it; query processes open it read-only.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

const (
	chunkPrefix     = "chunk:"
	snapshotKey     = "snapshot"
	manifestFile    = "MANIFEST"
	cancelCheckStep = 256
)

type snapshotMarker struct {
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	path     string
	readOnly bool
	inMemory bool
	logger   *slog.Logger

	mu sync.Mutex
	db *badger.DB
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReadOnly opens the snapshot without taking the writer lock. A missing
// snapshot directory is reported as domain.ErrCorpusMissing.
func WithReadOnly() Option {
	return func(s *Store) {
		s.readOnly = true
	}
}

// WithInMemory keeps the snapshot in memory; path is ignored.
func WithInMemory() Option {
	return func(s *Store) {
		s.inMemory = true
	}
}

// New prepares a store for path. The database is opened on first use so a
// query process can start before ingestion has ever run.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) open() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	var opts badger.Options
	switch {
	case s.inMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case s.readOnly:
		if _, err := os.Stat(filepath.Join(s.path, manifestFile)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, domain.WrapError(domain.ErrCorpusMissing, "open corpus snapshot", fmt.Errorf("%s: run ingestion first", s.path))
			}
			return nil, fmt.Errorf("stat corpus snapshot: %w", err)
		}
		opts = badger.DefaultOptions(s.path).WithReadOnly(true)
	default:
		if err := os.MkdirAll(s.path, 0o755); err != nil {
			return nil, fmt.Errorf("create corpus dir: %w", err)
		}
		opts = badger.DefaultOptions(s.path)
	}
	opts = opts.
		WithLogger(&badgerLoggerAdapter{logger: s.logger}).
		WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open corpus snapshot: %w", err)
	}
	s.db = db
	return db, nil
}

// LoadChunks returns the snapshot in the order it was written.
func (s *Store) LoadChunks(ctx context.Context) ([]domain.Chunk, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	err = db.View(func(txn *badger.Txn) error {
		marker, err := readMarker(txn)
		if err != nil {
			return err
		}

		chunks = make([]domain.Chunk, 0, marker.Chunks)
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(chunkPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if len(chunks)%cancelCheckStep == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			var chunk domain.Chunk
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &chunk)
			}); err != nil {
				return fmt.Errorf("decode chunk %s: %w", it.Item().Key(), err)
			}
			chunks = append(chunks, chunk)
		}

		if len(chunks) != marker.Chunks {
			return fmt.Errorf("corpus snapshot is incomplete: marker=%d stored=%d", marker.Chunks, len(chunks))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func readMarker(txn *badger.Txn) (snapshotMarker, error) {
	var marker snapshotMarker
	item, err := txn.Get([]byte(snapshotKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return marker, domain.WrapError(domain.ErrCorpusMissing, "load corpus snapshot", errors.New("no snapshot marker: run ingestion first"))
	}
	if err != nil {
		return marker, fmt.Errorf("read snapshot marker: %w", err)
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &marker)
	}); err != nil {
		return marker, fmt.Errorf("decode snapshot marker: %w", err)
	}
	return marker, nil
}

// ReplaceChunks drops the previous snapshot and writes chunks. The marker is
// written last, so a crashed run leaves no readable snapshot.
func (s *Store) ReplaceChunks(ctx context.Context, chunks []domain.Chunk) error {
	if s.readOnly {
		return domain.WrapError(domain.ErrInvalidInput, "replace corpus snapshot", errors.New("store is read-only"))
	}
	db, err := s.open()
	if err != nil {
		return err
	}

	if err := db.DropAll(); err != nil {
		return fmt.Errorf("drop corpus snapshot: %w", err)
	}

	wb := db.NewWriteBatch()
	defer wb.Cancel()
	for i, chunk := range chunks {
		if i%cancelCheckStep == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		val, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("encode chunk %s: %w", chunk.ID, err)
		}
		if err := wb.Set(chunkKey(i), val); err != nil {
			return fmt.Errorf("write chunk %s: %w", chunk.ID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush corpus snapshot: %w", err)
	}

	marker, err := json.Marshal(snapshotMarker{Chunks: len(chunks), CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode snapshot marker: %w", err)
	}
	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotKey), marker)
	}); err != nil {
		return fmt.Errorf("write snapshot marker: %w", err)
	}

	s.logger.Info("corpus_snapshot_replaced", "chunks", len(chunks))
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func chunkKey(position int) []byte {
	return []byte(fmt.Sprintf("%s%09d", chunkPrefix, position))
}

type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}
