package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/conversation"
)

const recordSuffix = ".json"

// Store persists conversation records as one JSON document per conversation
// under a root directory. It is the only shared mutable resource in the
// system: writes are atomic-replace and additionally serialized per storage
// key, so concurrent readers never observe a torn record and concurrent
// writers to the same key never interleave.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(root string) (*Store, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve store root %s", root)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create store root %s", absRoot)
	}

	return &Store{
		root:  absRoot,
		locks: map[string]*sync.Mutex{},
	}, nil
}

// List returns summaries of all records, most recently updated first.
// Unreadable or corrupt records are skipped and logged; a single bad file
// never fails the whole listing.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrapf(ErrStorage, "could not read store root %s: %v", s.root, err)
	}

	summaries := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordSuffix) {
			continue
		}

		rec, err := s.readRecord(entry.Name())
		if err != nil {
			log.Warn().
				Err(err).
				Str("file", entry.Name()).
				Msg("skipping unreadable conversation record")
			continue
		}

		summaries = append(summaries, Summary{
			ID:           rec.ID,
			Name:         rec.Name,
			StorageKey:   rec.StorageKey,
			Updated:      rec.Updated,
			MessageCount: len(rec.Messages),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Updated.After(summaries[j].Updated)
	})

	return summaries, nil
}

// Load retrieves the record stored under key.
func (s *Store) Load(ctx context.Context, key string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.resolveKey(key); err != nil {
		return nil, err
	}
	return s.readRecord(key)
}

// Create persists a new record. When name is empty, a title is derived from
// the first user message. Create has no side effects on failure.
func (s *Store) Create(ctx context.Context, name string, msgs conversation.Conversation) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrEmptyConversation
	}

	name = conversation.SanitizeName(strings.TrimSpace(name))
	if name == "" {
		name = conversation.DeriveName(msgs)
	}

	now := time.Now()
	key, err := s.newStorageKey(name, now)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:         uuid.New().String(),
		Name:       name,
		Created:    now,
		Updated:    now,
		Messages:   msgs,
		StorageKey: key,
	}

	if err := s.writeRecord(rec); err != nil {
		// release the reserved key so the failure leaves nothing behind
		_ = os.Remove(filepath.Join(s.root, key))
		return nil, err
	}

	log.Debug().
		Str("storage_key", rec.StorageKey).
		Str("conversation_id", rec.ID).
		Int("messages", len(rec.Messages)).
		Msg("conversation created")

	return rec, nil
}

// Save overwrites the record under rec.StorageKey atomically, bumping
// Updated. A record without a storage key is created instead, and rec is
// updated in place with the assigned identity.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rec.Messages) == 0 {
		return ErrEmptyConversation
	}

	if rec.StorageKey == "" {
		created, err := s.Create(ctx, rec.Name, rec.Messages)
		if err != nil {
			return err
		}
		*rec = *created
		return nil
	}

	if _, err := s.resolveKey(rec.StorageKey); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Name == "" {
		rec.Name = conversation.DeriveName(rec.Messages)
	}
	now := time.Now()
	if rec.Created.IsZero() {
		rec.Created = now
	}
	rec.Updated = now

	return s.writeRecord(rec)
}

// Rename changes the record's human-readable label. The storage key is
// stable for the life of the record and is not affected.
func (s *Store) Rename(ctx context.Context, key string, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrInvalidName
	}
	path, err := s.resolveKey(key)
	if err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.readRecord(key)
	if err != nil {
		return err
	}

	rec.Name = newName
	rec.Updated = time.Now()

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrapf(ErrStorage, "could not write conversation %s: %v", key, err)
	}
	return nil
}

// Delete removes the record under key. Deleting an absent key is a no-op;
// delete is idempotent.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolveKey(key)
	if err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(ErrStorage, "could not delete conversation %s: %v", key, err)
	}

	log.Debug().Str("storage_key", key).Msg("conversation deleted")
	return nil
}

// resolveKey canonicalizes a caller-supplied storage key and verifies it
// stays strictly inside the store root. Keys carrying path separators,
// parent-directory segments or absolute paths are rejected before any
// filesystem access.
func (s *Store) resolveKey(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", errors.Wrapf(ErrInvalidReference, "%q", key)
	}
	if key != filepath.Base(key) {
		return "", errors.Wrapf(ErrInvalidReference, "%q", key)
	}
	if !strings.HasSuffix(key, recordSuffix) {
		return "", errors.Wrapf(ErrInvalidReference, "%q", key)
	}

	path := filepath.Clean(filepath.Join(s.root, key))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrInvalidReference, "%q", key)
	}

	return path, nil
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *Store) readRecord(key string) (*Record, error) {
	path, err := s.resolveKey(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s", key)
		}
		return nil, errors.Wrapf(ErrStorage, "could not read conversation %s: %v", key, err)
	}

	return decodeRecord(data, key)
}

func (s *Store) writeRecord(rec *Record) error {
	path, err := s.resolveKey(rec.StorageKey)
	if err != nil {
		return err
	}

	lock := s.keyLock(rec.StorageKey)
	lock.Lock()
	defer lock.Unlock()

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrapf(ErrStorage, "could not write conversation %s: %v", rec.StorageKey, err)
	}
	return nil
}

// newStorageKey derives a collision-resistant handle from the record name
// and creation time, mirroring the conv_<timestamp>_<name>.json scheme of
// the persisted format. The key is reserved on disk with an exclusive
// create, so two concurrent callers racing on the same name and second
// always end up with distinct keys.
func (s *Store) newStorageKey(name string, now time.Time) (string, error) {
	base := fmt.Sprintf("conv_%s_%s", now.Format("20060102_150405"), conversation.SanitizeName(name))

	key := base + recordSuffix
	for n := 2; ; n++ {
		f, err := os.OpenFile(filepath.Join(s.root, key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = f.Close()
			return key, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrapf(ErrStorage, "could not reserve storage key %s: %v", key, err)
		}
		key = fmt.Sprintf("%s_%d%s", base, n, recordSuffix)
	}
}
