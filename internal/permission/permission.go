// Package permission tracks which calendar permissions the process holds.
package permission

import "sync"

type Permission string

const (
	ReadCalendar  Permission = "read_calendar"
	WriteCalendar Permission = "write_calendar"
)

type Checker interface {
	Granted(Permission) bool
}

// Set is a Checker whose grants can change at runtime.
type Set struct {
	mu      sync.RWMutex
	granted map[Permission]bool
}

func NewSet(granted ...Permission) *Set {
	s := &Set{granted: make(map[Permission]bool)}
	for _, p := range granted {
		s.granted[p] = true
	}
	return s
}

func (s *Set) Granted(p Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.granted[p]
}

func (s *Set) Grant(p Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.granted[p] = true
}

func (s *Set) Revoke(p Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.granted, p)
}
