// Package store holds the in-memory multi-tenant task lists.
//
// A Store maps user → category → ordered task list. Lists are created
// lazily: an unseen (user, category) pair behaves exactly like an empty
// list. Tasks keep their original casing; matching for removal is
// case- and whitespace-insensitive. Duplicates are allowed and insertion
// order is the display order.
package store

import (
	"strings"
	"sync"
)

// Op identifies a mutation kind in a ChangeEvent.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// ChangeEvent describes a completed mutation.
type ChangeEvent struct {
	User     string   `json:"user"`
	Category string   `json:"category"`
	Op       Op       `json:"op"`
	Task     string   `json:"task"`
	Tasks    []string `json:"tasks"` // list state after the mutation
}

// ChangeHook observes mutations. Hooks run synchronously after the
// mutation, outside the store lock.
type ChangeHook func(ChangeEvent)

// Store is the process-wide task list registry. Construct one at startup
// and pass it by reference; it lives for the process lifetime.
type Store struct {
	mu    sync.RWMutex
	lists map[string]map[string][]string
	hooks []ChangeHook
}

// Option configures a Store.
type Option func(*Store)

// WithChangeHook registers a hook fired after every mutation.
func WithChangeHook(h ChangeHook) Option {
	return func(s *Store) {
		s.hooks = append(s.hooks, h)
	}
}

// AddHook registers a hook on a live Store. Components constructed after
// the Store, like the dashboard feed, attach themselves here.
func (s *Store) AddHook(h ChangeHook) {
	s.mu.Lock()
	s.hooks = append(s.hooks, h)
	s.mu.Unlock()
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		lists: make(map[string]map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a task to the (user, category) list, creating it if needed.
// The task is stored verbatim; callers trim it first.
func (s *Store) Add(user, category, task string) {
	s.mu.Lock()
	categories, ok := s.lists[user]
	if !ok {
		categories = make(map[string][]string)
		s.lists[user] = categories
	}
	categories[category] = append(categories[category], task)
	tasks := copyTasks(categories[category])
	s.mu.Unlock()

	s.fire(ChangeEvent{User: user, Category: category, Op: OpAdd, Task: task, Tasks: tasks})
}

// Remove deletes the first task matching the normalized form of task and
// reports whether a match was found. Order and multiplicity of any
// remaining duplicates are preserved.
func (s *Store) Remove(user, category, task string) bool {
	want := Normalize(task)

	s.mu.Lock()
	tasks := s.lists[user][category]
	idx := -1
	for i, t := range tasks {
		if Normalize(t) == want {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	removed := tasks[idx]
	s.lists[user][category] = append(tasks[:idx], tasks[idx+1:]...)
	after := copyTasks(s.lists[user][category])
	s.mu.Unlock()

	s.fire(ChangeEvent{User: user, Category: category, Op: OpRemove, Task: removed, Tasks: after})
	return true
}

// Tasks returns a copy of the (user, category) list in insertion order.
// An unseen pair yields an empty slice, never an error.
func (s *Store) Tasks(user, category string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTasks(s.lists[user][category])
}

// Snapshot returns a deep copy of all lists, for the dashboard API.
func (s *Store) Snapshot() map[string]map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string][]string, len(s.lists))
	for user, categories := range s.lists {
		cc := make(map[string][]string, len(categories))
		for category, tasks := range categories {
			cc[category] = copyTasks(tasks)
		}
		out[user] = cc
	}
	return out
}

// Normalize lowercases and trims task text for matching.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Store) fire(ev ChangeEvent) {
	s.mu.RLock()
	hooks := make([]ChangeHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()

	for _, h := range hooks {
		h(ev)
	}
}

func copyTasks(tasks []string) []string {
	out := make([]string, len(tasks))
	copy(out, tasks)
	return out
}
