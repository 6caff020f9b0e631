// Copyright (c) 2021 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

var logger = log.New("pkg", "kv")

// OpenFunc opens the store at the given path.
type OpenFunc func(path string) (Store, error)

// Registry shares store handles by filesystem path.
//
// An embedded database environment must not be opened twice within one
// process, so repeated opens on the same path reuse one handle. Handles are
// reference counted; the underlying store is closed when the last handle is
// closed. Independent registries never interfere with each other.
type Registry struct {
	open OpenFunc

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	store Store
	refs  int
}

// NewRegistry creates a registry using open to create store instances.
func NewRegistry(open OpenFunc) *Registry {
	return &Registry{
		open:    open,
		entries: make(map[string]*registryEntry),
	}
}

// Open returns a store handle for the given path, opening the underlying
// store on first use. Closing the returned handle is idempotent and releases
// only this handle's reference.
func (r *Registry) Open(path string) (Store, error) {
	path = filepath.Clean(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[path]
	if !ok {
		store, err := r.open(path)
		if err != nil {
			return nil, err
		}
		entry = &registryEntry{store: store}
		r.entries[path] = entry
		logger.Debug("opened store", "path", path)
	}
	entry.refs++

	return &registryHandle{Store: entry.store, reg: r, path: path}, nil
}

func (r *Registry) release(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entries[path]
	entry.refs--
	if entry.refs > 0 {
		return nil
	}
	delete(r.entries, path)
	logger.Debug("closed store", "path", path)
	return entry.store.Close()
}

// registryHandle overrides Close of the shared store.
type registryHandle struct {
	Store
	reg  *Registry
	path string

	once sync.Once
	err  error
}

func (h *registryHandle) Close() error {
	h.once.Do(func() {
		h.err = h.reg.release(h.path)
	})
	return h.err
}
