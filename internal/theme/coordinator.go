package theme

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"todo-list/internal/observable"
)

// Refresher re-fetches remote flags. *featureflag.Service satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Coordinator applies the dark or light theme to a document. Every flag
// change is applied as it arrives; manual overrides last until the next flag
// change.
type Coordinator struct {
	doc   Document
	pref  SchemePreference
	flags Refresher

	mu     sync.Mutex
	dark   *observable.Value[bool]
	cancel func()
}

func NewCoordinator(doc Document, pref SchemePreference, darkMode observable.Reader[bool], flags Refresher) *Coordinator {
	c := &Coordinator{
		doc:   doc,
		pref:  pref,
		flags: flags,
		dark:  observable.NewValue(false),
	}
	c.cancel = darkMode.Subscribe(func(enabled bool) {
		log.WithField("dark_mode", enabled).Debug("remote dark mode changed")
		c.setDarkMode(enabled)
	})
	return c
}

// Close stops following the dark mode flag.
func (c *Coordinator) Close() {
	c.cancel()
}

func (c *Coordinator) setDarkMode(dark bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(dark)
}

func (c *Coordinator) applyLocked(dark bool) {
	add, remove := LightClass, DarkClass
	if dark {
		add, remove = DarkClass, LightClass
	}
	if err := errors.Join(c.doc.AddClass(add), c.doc.RemoveClass(remove)); err != nil {
		log.WithError(err).Error("failed to apply theme")
		return
	}
	c.dark.Set(dark)
	log.WithField("theme", add).Debug("theme applied")
}

func (c *Coordinator) IsDarkMode() bool {
	return c.dark.Get()
}

// Changes publishes the applied theme (true for dark).
func (c *Coordinator) Changes() observable.Reader[bool] {
	return c.dark.ReadOnly()
}

func (c *Coordinator) ToggleDarkMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := !c.dark.Get()
	c.applyLocked(next)
	log.WithField("dark_mode", next).Debug("theme toggled manually")
	return c.dark.Get()
}

// ResetToSystemPreference applies the system color scheme, falling back to
// light when it cannot be read.
func (c *Coordinator) ResetToSystemPreference() bool {
	dark, err := c.pref.PrefersDark()
	if err != nil {
		log.WithError(err).Warn("failed to read system color scheme")
		dark = false
	}
	c.setDarkMode(dark)
	return c.IsDarkMode()
}

func (c *Coordinator) RefreshFromRemoteConfig(ctx context.Context) bool {
	return c.flags.Refresh(ctx)
}

// ApplyCustomColors sets one --<name> property per entry. Entries are applied
// in name order; the first failure stops the rest.
func (c *Coordinator) ApplyCustomColors(colors map[string]string) error {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := "--" + strings.TrimPrefix(strings.TrimSpace(name), "--")
		if err := c.doc.SetProperty(prop, colors[name]); err != nil {
			log.WithError(err).WithField("property", prop).Error("failed to apply custom colors")
			return fmt.Errorf("set %q: %w", prop, err)
		}
	}
	log.WithField("count", len(names)).Debug("custom colors applied")
	return nil
}
