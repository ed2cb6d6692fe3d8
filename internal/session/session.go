// Package session manages the single shared login identity. Every surface
// (TUI, HTTP API, CLI) reads the same storage key, so logging out in one
// surface logs out all of them on their next poll.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/spailhq/spail/internal/store"
)

// PollInterval is how often watchers re-read the session key. There is no
// push notification for session changes; surfaces that need near-real-time
// awareness poll.
const PollInterval = 1500 * time.Millisecond

// KV is the subset of the store the session provider needs.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
}

// Provider reads and writes the shared session key. The stored value is the
// bare username, not JSON-wrapped.
type Provider struct {
	kv KV
}

// NewProvider creates a Provider over the given key/value store.
func NewProvider(kv KV) *Provider {
	return &Provider{kv: kv}
}

// Set records username as the active session.
func (p *Provider) Set(username string) error {
	return p.kv.Put(store.SessionKey, username)
}

// Clear removes the active session.
func (p *Provider) Clear() error {
	return p.kv.Delete(store.SessionKey)
}

// Current returns the active session's username. ok is false when no
// session is set.
func (p *Provider) Current() (username string, ok bool, err error) {
	v, ok, err := p.kv.Get(store.SessionKey)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}

// Change describes a session transition observed by a Watcher.
type Change struct {
	Username string
	LoggedIn bool
}

// Watcher polls the session key and fans out changes to subscribers, so
// views get an injected observable instead of running their own timers.
type Watcher struct {
	provider *Provider
	interval time.Duration

	mu   sync.Mutex
	subs []chan Change
	last string
	wg   sync.WaitGroup
}

// NewWatcher creates a Watcher polling at PollInterval.
func NewWatcher(p *Provider) *Watcher {
	return &Watcher{provider: p, interval: PollInterval}
}

// WithInterval overrides the poll interval. Tests use short intervals.
func (w *Watcher) WithInterval(d time.Duration) *Watcher {
	w.interval = d
	return w
}

// Subscribe returns a channel that receives session changes. The channel is
// buffered; a slow subscriber sees only the most recent change.
func (w *Watcher) Subscribe() <-chan Change {
	ch := make(chan Change, 1)
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()
	return ch
}

// Start begins polling until ctx is cancelled. It snapshots the current
// value first so only actual transitions are delivered.
func (w *Watcher) Start(ctx context.Context) {
	if current, ok, _ := w.provider.Current(); ok {
		w.last = current
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.poll()
			}
		}
	}()
}

// Wait blocks until the polling goroutine has exited.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) poll() {
	current, _, err := w.provider.Current()
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if current == w.last {
		return
	}
	w.last = current

	change := Change{Username: current, LoggedIn: current != ""}
	for _, ch := range w.subs {
		// Latest-wins delivery: drop a stale undelivered change.
		select {
		case <-ch:
		default:
		}
		ch <- change
	}
}
