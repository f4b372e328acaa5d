// Package calendar describes the account types calendars can belong to.
package calendar

import (
	"fmt"
	"sort"
	"sync"

	"github.com/guilherme-santos/localcalendar"
)

// TypeInfo is what's shown for the calendars of an account type.
type TypeInfo struct {
	Label string
	Icon  string
	// Settings names the settings entry of the account type, empty if it
	// has none.
	Settings string
}

type Registry struct {
	mu    sync.RWMutex
	types map[string]TypeInfo
}

// NewRegistry returns a registry that already knows the local account type.
func NewRegistry() *Registry {
	r := &Registry{
		types: make(map[string]TypeInfo),
	}
	r.Register(localcalendar.AccountTypeLocal, TypeInfo{
		Label:    "Offline calendar",
		Icon:     "ic_calendar_local",
		Settings: "local",
	})
	return r
}

func (r *Registry) Get(accountType string) (TypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.types[accountType]
	if !ok {
		return TypeInfo{}, fmt.Errorf("account type %q is not registered", accountType)
	}
	return info, nil
}

// Label returns the label of accountType, the type itself if it's unknown.
func (r *Registry) Label(accountType string) string {
	info, err := r.Get(accountType)
	if err != nil || info.Label == "" {
		return accountType
	}
	return info.Label
}

func (r *Registry) Register(accountType string, info TypeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[accountType] = info
}

// Types returns the registered account types sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.types))
	for t := range r.types {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
