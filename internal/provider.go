package internal

import "github.com/guilherme-santos/localcalendar"

// Iterator walks the events of an import source.
type Iterator interface {
	Next() bool
	Event() *localcalendar.Event
	Err() error
}
