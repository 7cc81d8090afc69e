package session

import (
	"encoding/base64"
	"time"

	"github.com/stb-lab/websettings/internal/util"
)

const (
	// keyBytes keeps one-time keys short enough for a human to copy from a
	// television screen into a browser form.
	keyBytes = 4
	// keyAttempts bounds collision retries; every collision triggers a sweep
	// of expired entries before the next attempt.
	keyAttempts = 5

	// DefaultKeyTTL is the redemption window for one-time keys.
	DefaultKeyTTL = 10 * time.Minute
)

// keyStore maps one-time keys to the session secret they unlock. Entries are
// single-use: redemption removes them. Expiry is lazy — an expired entry is
// detected and discarded on lookup, and collision handling sweeps the rest.
//
// keyStore has no lock of its own; the owning Engine serializes all access.
type keyStore struct {
	ttl     time.Duration
	entries map[string]keyEntry
	now     func() time.Time
}

type keyEntry struct {
	secret   Secret
	issuedAt time.Time
}

func newKeyStore(ttl time.Duration) *keyStore {
	return &keyStore{
		ttl:     ttl,
		entries: make(map[string]keyEntry),
		now:     time.Now,
	}
}

// newKey mints a key for the given secret, unique among currently stored
// keys. Collisions are resolved by sweeping expired entries and retrying; if
// the keyspace is genuinely full after keyAttempts tries the RNG or the
// deployment is broken and the process cannot continue.
func (s *keyStore) newKey(secret Secret) string {
	for i := 0; i < keyAttempts; i++ {
		key := s.randomKey()
		if _, taken := s.entries[key]; taken {
			s.sweep()
			continue
		}
		s.entries[key] = keyEntry{secret: secret, issuedAt: s.now()}
		return key
	}
	panic("keystore: cannot allocate a unique one-time key")
}

// take atomically redeems a key. The entry is removed whether or not it is
// still inside the expiration window, so a second redemption always reports
// ErrInvalidKey.
func (s *keyStore) take(key string) (Secret, error) {
	e, ok := s.entries[key]
	if !ok {
		return "", ErrInvalidKey
	}
	delete(s.entries, key)
	if s.now().Sub(e.issuedAt) >= s.ttl {
		return "", ErrKeyExpired
	}
	return e.secret, nil
}

// sweep drops expired entries so unredeemed keys cannot grow the map forever.
func (s *keyStore) sweep() {
	now := s.now()
	for key, e := range s.entries {
		if now.Sub(e.issuedAt) >= s.ttl {
			delete(s.entries, key)
		}
	}
}

func (s *keyStore) randomKey() string {
	b, err := util.RandomBytes(keyBytes)
	if err != nil {
		panic("keystore: crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
