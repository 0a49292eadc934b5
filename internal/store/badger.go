package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/models"
)

const backendBadger = "badger"

// Index prefixes. Each key is prefix, then components each followed by a NUL.
const (
	prefixSPO    byte = 's'
	prefixOPS    byte = 'o'
	prefixVertex byte = 'v'
	keySep       byte = 0
)

// BadgerConfig holds configuration for a badger-backed store.
type BadgerConfig struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites fsyncs every write batch.
	SyncWrites bool
}

// BadgerStore keeps the subject and object indexes as ordered badger keys
// with empty values.
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Logger
}

// OpenBadger opens (creating if needed) a badger-backed store.
func OpenBadger(cfg BadgerConfig, log *logrus.Logger) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("badger directory is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating badger directory %s: %w", cfg.Dir, err)
		}

		opts = badger.DefaultOptions(cfg.Dir)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(log.WithField("component", "badger"))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}

	return &BadgerStore{db: db, log: log}, nil
}

// indexKey encodes prefix a\0 b\0 c\0, stopping at the first empty component
// so the same function builds full keys and scan prefixes.
func indexKey(prefix byte, parts ...models.Node) []byte {
	n := 1
	for _, p := range parts {
		n += len(p) + 1
	}

	key := make([]byte, 0, n)
	key = append(key, prefix)

	for _, p := range parts {
		if p == "" {
			break
		}

		key = append(key, p...)
		key = append(key, keySep)
	}

	return key
}

// splitKey decodes the components of a key produced by indexKey.
func splitKey(key []byte) []models.Node {
	if len(key) < 2 {
		return nil
	}

	fields := bytes.Split(key[1:len(key)-1], []byte{keySep})
	out := make([]models.Node, len(fields))

	for i, f := range fields {
		out[i] = models.Node(f)
	}

	return out
}

// Edges implements Store.
func (s *BadgerStore) Edges(ctx context.Context, q EdgeQuery) ([]models.Edge, error) {
	if err := s.check(ctx, "edges"); err != nil {
		return nil, err
	}

	prefix := prefixSPO
	if q.Direction == models.In {
		prefix = prefixOPS
	}

	limit := pageSize(q.Limit)
	preds := normalizePredicates(q.Predicates)
	out := make([]models.Edge, 0, min(limit, 64))

	err := s.db.View(func(txn *badger.Txn) error {
		scan := func(pred models.Node, from *models.Edge) {
			scanPrefix := indexKey(prefix, q.Vertex, pred)

			it := txn.NewIterator(badger.IteratorOptions{Prefix: scanPrefix})
			defer it.Close()

			seek := scanPrefix
			if from != nil {
				seek = indexKey(prefix, q.Vertex, from.Predicate, from.Vertex)
			}

			for it.Seek(seek); it.ValidForPrefix(scanPrefix) && len(out) < limit; it.Next() {
				parts := splitKey(it.Item().Key())
				if len(parts) != 3 {
					continue
				}

				e := models.Edge{Predicate: parts[1], Vertex: parts[2]}
				if from != nil && !from.Less(e) {
					continue
				}

				out = append(out, e)
			}
		}

		if len(preds) == 0 {
			scan("", q.After)

			return nil
		}

		for _, p := range remainingPredicates(preds, q.After) {
			from := q.After
			if from != nil && from.Predicate != p {
				from = nil
			}

			scan(p, from)

			if len(out) >= limit {
				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, unavailable(backendBadger, "edges", err)
	}

	return out, nil
}

// Contains implements Store.
func (s *BadgerStore) Contains(ctx context.Context, t models.Triple) (bool, error) {
	if err := s.check(ctx, "contains"); err != nil {
		return false, err
	}

	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(indexKey(prefixSPO, t.Subject, t.Predicate, t.Object))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}

		if err != nil {
			return err
		}

		found = true

		return nil
	})
	if err != nil {
		return false, unavailable(backendBadger, "contains", err)
	}

	return found, nil
}

// Vertices implements Store.
func (s *BadgerStore) Vertices(ctx context.Context, after models.Node, limit int) ([]models.Node, error) {
	if err := s.check(ctx, "vertices"); err != nil {
		return nil, err
	}

	limit = pageSize(limit)
	out := make([]models.Node, 0, min(limit, 64))
	prefix := []byte{prefixVertex}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		for it.Seek(indexKey(prefixVertex, after)); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			parts := splitKey(it.Item().Key())
			if len(parts) != 1 || parts[0] == after {
				continue
			}

			out = append(out, parts[0])
		}

		return nil
	})
	if err != nil {
		return nil, unavailable(backendBadger, "vertices", err)
	}

	return out, nil
}

// LoadTriples implements Loader. Triples already present are skipped.
func (s *BadgerStore) LoadTriples(ctx context.Context, triples []models.Triple) (int, error) {
	if err := validateBatch(triples); err != nil {
		return 0, err
	}

	if err := s.check(ctx, "load"); err != nil {
		return 0, err
	}

	fresh := make([]models.Triple, 0, len(triples))
	seen := make(map[models.Triple]struct{}, len(triples))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, t := range triples {
			if _, dup := seen[t]; dup {
				continue
			}

			seen[t] = struct{}{}

			_, err := txn.Get(indexKey(prefixSPO, t.Subject, t.Predicate, t.Object))
			if errors.Is(err, badger.ErrKeyNotFound) {
				fresh = append(fresh, t)

				continue
			}

			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, unavailable(backendBadger, "load", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, t := range fresh {
		for _, key := range [][]byte{
			indexKey(prefixSPO, t.Subject, t.Predicate, t.Object),
			indexKey(prefixOPS, t.Object, t.Predicate, t.Subject),
			indexKey(prefixVertex, t.Subject),
			indexKey(prefixVertex, t.Object),
		} {
			if err := wb.Set(key, []byte{}); err != nil {
				return 0, unavailable(backendBadger, "load", err)
			}
		}
	}

	if err := wb.Flush(); err != nil {
		return 0, unavailable(backendBadger, "load", err)
	}

	return len(fresh), nil
}

// check fails fast on a cancelled context or a closed database.
func (s *BadgerStore) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(backendBadger, op, err)
	}

	if s.db.IsClosed() {
		return unavailable(backendBadger, op, errClosed)
	}

	return nil
}

// Ping implements Store.
func (s *BadgerStore) Ping(ctx context.Context) error {
	return s.check(ctx, "ping")
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}

	s.log.Debug("closing badger store")

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing badger database: %w", err)
	}

	return nil
}
