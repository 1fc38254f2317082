// Package primitivedb is the kernel registry engines resolve programs from.
//
// Entries are keyed by module and name. An entry carries the kernel source
// text and, when the host can execute it, a compiled KernelProgram. Entries
// whose name ends in ".h" are headers: they carry source only and are never
// resolved as kernels. Inserting an existing key replaces the entry.
package primitivedb

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/intel/clGPU/compute"
)

// ErrNotFound is returned by Get for unknown names.
var ErrNotFound = errors.New("primitive not found")

// HeaderSuffix marks header entries.
const HeaderSuffix = ".h"

// Entry is one registered primitive.
type Entry struct {
	Module string
	Name   string
	Source string
	Params []compute.Param
	Func   compute.KernelFunc
}

// IsHeader reports whether e is a header.
func (e Entry) IsHeader() bool { return strings.HasSuffix(e.Name, HeaderSuffix) }

// Executable reports whether e can be resolved as a kernel.
func (e Entry) Executable() bool { return e.Func != nil && !e.IsHeader() }

type key struct {
	module string
	name   string
}

// DB is a concurrency-safe primitive registry.
type DB struct {
	mu      sync.RWMutex
	entries map[key]Entry
}

// New returns an empty registry.
func New() *DB {
	return &DB{entries: make(map[key]Entry)}
}

// Insert registers e, replacing any entry with the same module and name.
func (db *DB) Insert(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty primitive name", compute.ErrInvalidArgument)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.entries[key{e.Module, e.Name}] = e
	return nil
}

// InsertSource registers source text for name in the root module. An
// executable entry keeps its program; only the source is replaced.
func (db *DB) InsertSource(name, source string) error {
	return db.SetSource("", name, source)
}

// SetSource replaces the source text of module/name, creating a
// source-only entry when none exists.
func (db *DB) SetSource(module, name, source string) error {
	if name == "" {
		return fmt.Errorf("%w: empty primitive name", compute.ErrInvalidArgument)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	k := key{module, name}
	e := db.entries[k]
	e.Module = module
	e.Name = name
	e.Source = source
	db.entries[k] = e
	return nil
}

// InsertRange registers every entry of es.
func (db *DB) InsertRange(es ...Entry) error {
	for _, e := range es {
		if err := db.Insert(e); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the source of the root-module entry called name.
func (db *DB) Get(name string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.entries[key{"", name}]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.Source, nil
}

// Entry returns the entry for module and name.
func (db *DB) Entry(module, name string) (Entry, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.entries[key{module, name}]
	return e, ok
}

// Lookup implements compute.KernelSource.
func (db *DB) Lookup(module, name string) (*compute.KernelProgram, error) {
	e, ok := db.Entry(module, name)
	if !ok || e.IsHeader() {
		return nil, &compute.KernelNotFoundError{Module: module, Name: name}
	}
	if e.Func == nil {
		return nil, fmt.Errorf("%w: kernel %q has no host program", compute.ErrUnimplemented, name)
	}
	return &compute.KernelProgram{
		Name:   e.Name,
		Params: slices.Clone(e.Params),
		Func:   e.Func,
	}, nil
}

// Headers returns the sorted names of header entries.
func (db *DB) Headers() []string {
	return db.names(func(e Entry) bool { return e.IsHeader() })
}

// Names returns the sorted names of non-header entries in every module.
func (db *DB) Names() []string {
	return db.names(func(e Entry) bool { return !e.IsHeader() })
}

// Entries returns every entry sorted by module and name.
func (db *DB) Entries() []Entry {
	db.mu.RLock()
	out := make([]Entry, 0, len(db.entries))
	for _, e := range db.entries {
		out = append(out, e)
	}
	db.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int {
		if c := strings.Compare(a.Module, b.Module); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Len returns the number of entries.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}

func (db *DB) names(keep func(Entry) bool) []string {
	var out []string
	for _, e := range db.Entries() {
		if keep(e) {
			out = append(out, qualified(e.Module, e.Name))
		}
	}
	return out
}

func qualified(module, name string) string {
	if module == "" {
		return name
	}
	return module + "/" + name
}
