package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const tempPrefix = ".tmp-"

// LocalStore keeps documents as files under a root directory. Writes go to a
// temp file that is renamed into place. The version is the file's modification
// time in nanoseconds.
type LocalStore struct {
	root  string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &LocalStore{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

func (l *LocalStore) Name() string { return "local" }

// keyLock returns the in-process lock for key
func (l *LocalStore) keyLock(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

func (l *LocalStore) path(key string) (string, string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *LocalStore) Get(ctx context.Context, key string) (*Document, error) {
	key, p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()
	return l.read(key, p)
}

func (l *LocalStore) read(key, p string) (*Document, error) {
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	body, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return &Document{Key: key, Body: body, Version: info.ModTime().UnixNano()}, nil
}

func (l *LocalStore) Put(ctx context.Context, key string, body []byte, ifVersion int64) (int64, error) {
	key, p, err := l.path(key)
	if err != nil {
		return 0, err
	}
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	var previous int64
	info, statErr := os.Stat(p)
	exists := statErr == nil
	if exists {
		previous = info.ModTime().UnixNano()
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return 0, fmt.Errorf("failed to stat %s: %w", key, statErr)
	}

	switch {
	case ifVersion == AnyVersion:
	case ifVersion == MustNotExist && exists:
		return 0, ErrConflict
	case ifVersion > 0 && (!exists || previous != ifVersion):
		return 0, ErrConflict
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", key, err)
	}

	// coarse filesystem clocks can repeat a timestamp; versions must move forward
	now := time.Now()
	if exists && now.UnixNano() <= previous {
		now = time.Unix(0, previous+1)
	}
	if err := os.Chtimes(tmpName, now, now); err != nil {
		return 0, fmt.Errorf("failed to stamp %s: %w", key, err)
	}

	if err := os.Rename(tmpName, p); err != nil {
		return 0, fmt.Errorf("failed to rename %s: %w", key, err)
	}

	info, err = os.Stat(p)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return info.ModTime().UnixNano(), nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	key, p, err := l.path(key)
	if err != nil {
		return err
	}
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (l *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
