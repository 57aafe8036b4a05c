// Package theme reflects the dark mode flag onto a document and lets users
// override it.
package theme

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

const (
	DarkClass  = "dark-theme"
	LightClass = "light-theme"
)

// Document is the rendering surface the coordinator styles.
type Document interface {
	AddClass(name string) error
	RemoveClass(name string) error
	SetProperty(name, value string) error
}

// MemoryDocument is a Document kept in memory. The HTTP layer reports its
// state to clients.
type MemoryDocument struct {
	mu         sync.RWMutex
	classes    map[string]struct{}
	properties map[string]string
}

func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{
		classes:    make(map[string]struct{}),
		properties: make(map[string]string),
	}
}

// ErrEmptyName is returned for a blank class or property name.
var ErrEmptyName = errors.New("empty name")

func (d *MemoryDocument) AddClass(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classes[name] = struct{}{}
	return nil
}

func (d *MemoryDocument) RemoveClass(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.classes, name)
	return nil
}

func (d *MemoryDocument) SetProperty(name, value string) error {
	if strings.Trim(name, "- ") == "" {
		return ErrEmptyName
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.properties[name] = value
	return nil
}

func (d *MemoryDocument) HasClass(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.classes[name]
	return ok
}

// Classes returns the class list sorted.
func (d *MemoryDocument) Classes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.classes))
	for c := range d.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (d *MemoryDocument) Properties() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.properties))
	for k, v := range d.properties {
		out[k] = v
	}
	return out
}
