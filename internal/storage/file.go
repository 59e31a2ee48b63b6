package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is how long the watcher waits for further writes before
// reading the slot, so that a rename-into-place is seen only once.
const debounceDelay = 100 * time.Millisecond

// FileSlot stores the value as a single JSON file and can watch it for
// writes made by another process. Writes go through a temp file plus rename
// so a concurrent reader never observes a partial value.
type FileSlot struct {
	path string

	mu       sync.Mutex
	lastHash [sha256.Size]byte // hash of our own last write, used to skip self-events
}

// NewFileSlot creates the slot directory if needed and probes it with a
// throwaway write, so an unwritable location is reported up front and the
// caller can fall back to memory.
func NewFileSlot(path string) (*FileSlot, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot directory: %w", err)
	}

	probe := filepath.Join(dir, ".probe")
	if err := os.WriteFile(probe, []byte("1"), 0o644); err != nil {
		return nil, fmt.Errorf("slot directory not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("slot directory not writable: %w", err)
	}

	return &FileSlot{path: path}, nil
}

func (f *FileSlot) Get(context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot: %w", err)
	}
	return data, nil
}

func (f *FileSlot) Set(_ context.Context, value []byte) error {
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}

	f.mu.Lock()
	f.lastHash = sha256.Sum256(value)
	f.mu.Unlock()
	return nil
}

func (f *FileSlot) Remove(context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove slot: %w", err)
	}

	f.mu.Lock()
	f.lastHash = sha256.Sum256(nil)
	f.mu.Unlock()
	return nil
}

// Watch reports external writes to the slot until ctx is cancelled. Events
// caused by this process's own Set/Remove calls are filtered out by content
// hash, so only genuinely foreign changes reach onChange.
func (f *FileSlot) Watch(ctx context.Context, onChange func(value []byte)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch slot directory: %w", err)
	}

	go func() {
		defer watcher.Close()

		var pending *time.Timer
		defer func() {
			if pending != nil {
				pending.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != f.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(debounceDelay, func() {
					f.emit(onChange)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("slot watch error: %v", err)
			}
		}
	}()

	return nil
}

func (f *FileSlot) emit(onChange func([]byte)) {
	data, err := os.ReadFile(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("slot watch read error: %v", err)
		return
	}

	sum := sha256.Sum256(data)
	f.mu.Lock()
	own := sum == f.lastHash
	f.mu.Unlock()
	if own {
		return
	}

	onChange(data)
}
