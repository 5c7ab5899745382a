// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/renameio/v2"
)

// DocumentName is the name of the persisted platform list
const DocumentName = "platforms"

var ErrCorruptDocument = errors.New("corrupt registry document")

// Store persists the ordered platform list as a single document.
type Store interface {
	// Load returns the stored list. found is false when no document exists.
	Load(ctx context.Context) (records []Record, found bool, err error)

	// Save replaces the document with records.
	Save(ctx context.Context, records []Record) error
}

// MemoryStore keeps the document in memory
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	found   bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store
func (m *MemoryStore) Load(ctx context.Context) ([]Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.found {
		return nil, false, nil
	}
	return append([]Record(nil), m.records...), true, nil
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]Record(nil), records...)
	m.found = true
	return nil
}

// FileStore keeps the document as a CBOR file in a directory.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the named document under dir
func NewFileStore(dir, name string) *FileStore {
	return &FileStore{path: filepath.Join(dir, name+".cbor")}
}

// Path returns the document's file path
func (f *FileStore) Path() string {
	return f.path
}

// Load implements Store
func (f *FileStore) Load(ctx context.Context) ([]Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var records []Record
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, f.path, err)
	}
	return records, true, nil
}

// Save implements Store. The document is replaced atomically so a reader
// never sees a partial write.
func (f *FileStore) Save(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}

	data, err := cbor.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(f.path), err)
	}
	if err := renameio.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
