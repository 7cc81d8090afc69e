package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/stb-lab/websettings/internal/util"
	"github.com/stb-lab/websettings/settings"
)

const (
	// secretBytes gives each session secret 512 bits of entropy — the secret
	// is both a map key and a bearer credential, so it must be unguessable.
	secretBytes = 64
	// secretAttempts bounds collision retries during registration. A collision
	// on a 512-bit token means the RNG is broken, not that we were unlucky.
	secretAttempts = 10
)

// Secret identifies a configuration session for its whole lifetime. Whoever
// holds it may read and write the session's settings.
type Secret string

// Values is a revisioned snapshot of a session's configuration, as delivered
// to a polling device.
type Values struct {
	Revision uint64          `json:"revision"`
	Values   []settings.Item `json:"values"`
}

type clientState int

const (
	stateCreated clientState = iota
	stateSubmitted
)

// waitResult is the single message a parked poll receives: either a snapshot
// or the reason the wait was abandoned.
type waitResult struct {
	values Values
	err    error
}

// client is the per-session record. The waiter channel, when non-nil, belongs
// to exactly one outstanding poll; it is buffered so resolving it never
// blocks the engine lock.
type client struct {
	items    []settings.Item
	state    clientState
	revision uint64
	waiter   chan waitResult
}

func newClient(items []settings.Item) *client {
	return &client{items: settings.CloneItems(items)}
}

func (c *client) snapshot() Values {
	return Values{Revision: c.revision, Values: settings.CloneItems(c.items)}
}

// wake resolves the outstanding waiter, if any, with the current values.
func (c *client) wake() {
	if c.waiter == nil {
		return
	}
	c.waiter <- waitResult{values: c.snapshot()}
	c.waiter = nil
}

// fail resolves the outstanding waiter, if any, with an error.
func (c *client) fail(err error) {
	if c.waiter == nil {
		return
	}
	c.waiter <- waitResult{err: err}
	c.waiter = nil
}

// Engine owns every configuration session and the one-time keys that grant
// access to them. A single mutex serializes all mutations of both maps; the
// only operation that blocks, Values, parks outside the lock on a per-session
// single-shot channel so one session's pending poll never delays another.
type Engine struct {
	mu      sync.Mutex
	clients map[Secret]*client
	keys    *keyStore
}

// Option configures the Engine.
type Option func(*Engine)

// WithKeyTTL overrides the one-time key expiration window.
func WithKeyTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.keys.ttl = ttl }
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clients: make(map[Secret]*client),
		keys:    newKeyStore(DefaultKeyTTL),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register creates a session for a device's configuration schema and returns
// the one-time key for the operator along with the session secret. Item names
// must be unique within the schema.
func (e *Engine) Register(items []settings.Item) (key string, secret Secret, err error) {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.Name]; dup {
			return "", "", fmt.Errorf("%w: %q", ErrDuplicateName, it.Name)
		}
		seen[it.Name] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < secretAttempts; i++ {
		s := randomSecret()
		if _, taken := e.clients[s]; taken {
			continue
		}
		e.clients[s] = newClient(items)
		return e.keys.newKey(s), s, nil
	}
	panic("session: cannot allocate a unique secret")
}

// Remove deletes a session. An outstanding poll is resolved with
// ErrSessionRemoved so it never hangs on a session that no longer exists.
func (e *Engine) Remove(secret Secret) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clients[secret]
	if !ok {
		return ErrInvalidSession
	}
	c.fail(ErrSessionRemoved)
	delete(e.clients, secret)
	return nil
}

// Auth redeems a one-time key for the session secret it was bound to. The
// key is consumed even when redemption fails. On success any outstanding poll
// is woken with the current values at the unchanged revision — this is how a
// device learns immediately that the operator has logged in.
func (e *Engine) Auth(key string) (Secret, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	secret, err := e.keys.take(key)
	if err != nil {
		return "", err
	}
	c, ok := e.clients[secret]
	if !ok {
		// The device ended the session after the key was issued; the key was
		// valid but there is nothing left to configure.
		return "", ErrSessionExpired
	}
	c.wake()
	return secret, nil
}

// Settings returns a snapshot of a session's items for form rendering.
func (e *Engine) Settings(secret Secret) ([]settings.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clients[secret]
	if !ok {
		return nil, ErrInvalidSession
	}
	return settings.CloneItems(c.items), nil
}

// Update applies submitted form values to a session. The whole batch is
// validated against cloned values before anything is stored: one bad field
// rejects the call and leaves every item and the revision untouched. Fields
// absent from the payload keep their current value. On success the revision
// advances by exactly one and any outstanding poll is woken with the result.
func (e *Engine) Update(secret Secret, form map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clients[secret]
	if !ok {
		return ErrInvalidSession
	}

	staged := make(map[int]settings.Value)
	for i := range c.items {
		raw, submitted := form[c.items[i].Name]
		if !submitted {
			continue
		}
		v := c.items[i].Value.Clone()
		if err := v.Set(raw); err != nil {
			return fmt.Errorf("%s: %w", c.items[i].Name, err)
		}
		staged[i] = v
	}
	for i, v := range staged {
		c.items[i].Value = v
	}
	c.revision++
	c.state = stateSubmitted
	c.wake()
	return nil
}

// Values implements the revision long-poll. A caller behind the session's
// revision gets the current snapshot immediately; a caller at the current
// revision parks until Auth or Update signals it, pre-empting any poll that
// was already parked (which resolves with ErrSuperseded); a caller claiming a
// future revision gets ErrFutureRevision instead of blocking forever.
//
// The wait respects ctx: cancellation deregisters the waiter without touching
// the session's items or revision.
func (e *Engine) Values(ctx context.Context, secret Secret, revision uint64) (Values, error) {
	e.mu.Lock()
	c, ok := e.clients[secret]
	if !ok {
		e.mu.Unlock()
		return Values{}, ErrInvalidSession
	}
	switch {
	case revision < c.revision:
		v := c.snapshot()
		e.mu.Unlock()
		return v, nil
	case revision > c.revision:
		e.mu.Unlock()
		return Values{}, ErrFutureRevision
	}

	// Caller is current: install a fresh single-shot waiter. At most one poll
	// per session is meaningful, so the last registrant wins.
	c.fail(ErrSuperseded)
	ch := make(chan waitResult, 1)
	c.waiter = ch
	e.mu.Unlock()

	select {
	case res := <-ch:
		return res.values, res.err
	case <-ctx.Done():
		e.mu.Lock()
		if cur, ok := e.clients[secret]; ok && cur.waiter == ch {
			cur.waiter = nil
		}
		e.mu.Unlock()
		// A wake may have raced with cancellation; prefer the result.
		select {
		case res := <-ch:
			return res.values, res.err
		default:
		}
		return Values{}, ctx.Err()
	}
}

func randomSecret() Secret {
	b, err := util.RandomBytes(secretBytes)
	if err != nil {
		panic("session: crypto/rand failed: " + err.Error())
	}
	return Secret(base64.RawURLEncoding.EncodeToString(b))
}
