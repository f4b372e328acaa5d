package sqlite

import (
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// Observer is notified after a change was committed to an observed address.
// Implementations must be comparable, they are unregistered by identity.
type Observer interface {
	OnChange(uri *url.URL)
}

type registration struct {
	uri         *url.URL
	descendants bool
	observer    Observer
}

type observers struct {
	log zerolog.Logger

	mu   sync.Mutex
	regs []registration
}

func (o *observers) register(uri *url.URL, descendants bool, obs Observer) {
	u := *uri
	u.RawQuery = ""

	o.mu.Lock()
	defer o.mu.Unlock()

	o.regs = append(o.regs, registration{uri: &u, descendants: descendants, observer: obs})
}

func (o *observers) unregister(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()

	regs := o.regs[:0]
	for _, r := range o.regs {
		if r.observer != obs {
			regs = append(regs, r)
		}
	}
	for i := len(regs); i < len(o.regs); i++ {
		o.regs[i] = registration{}
	}
	o.regs = regs
}

func (o *observers) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.regs)
}

// notify calls, in the background, every observer interested in uri.
func (o *observers) notify(uri *url.URL) {
	o.mu.Lock()
	var matched []Observer
	for _, r := range o.regs {
		if matches(r, uri) {
			matched = append(matched, r.observer)
		}
	}
	o.mu.Unlock()

	if len(matched) == 0 {
		return
	}
	go func() {
		var wg conc.WaitGroup
		for _, obs := range matched {
			wg.Go(func() { obs.OnChange(uri) })
		}
		if r := wg.WaitAndRecover(); r != nil {
			o.log.Error().Err(r.AsError()).Str("uri", uri.String()).Msg("observer panicked")
		}
	}()
}

// matches reports whether a change to changed concerns r: same address,
// a descendant when r asked for descendants, or an ancestor of r.
func matches(r registration, changed *url.URL) bool {
	if r.uri.Scheme != changed.Scheme || r.uri.Host != changed.Host {
		return false
	}
	observed := strings.TrimSuffix(r.uri.Path, "/")
	path := strings.TrimSuffix(changed.Path, "/")
	switch {
	case observed == path:
		return true
	case strings.HasPrefix(path, observed+"/"):
		return r.descendants
	case strings.HasPrefix(observed, path+"/"):
		return true
	}
	return false
}
