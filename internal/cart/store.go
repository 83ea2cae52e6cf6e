package cart

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"checkout-service/internal/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "cart").Logger()

// StorageKeys are the candidate storage locations, oldest reader last.
// Old and new code paths wrote carts under different keys; every write
// fans out to all of them so readers observing either key converge.
var StorageKeys = []string{"cart", "food_cart"}

// KV is the string key-value storage the cart lives in. A missing key
// reads as ("", nil).
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

// Store materializes carts from the candidate keys, keeps them in sync,
// and notifies subscribers whenever a user's cart changes.
type Store struct {
	kv   KV
	keys []string

	mu   sync.Mutex
	subs map[string][]chan struct{}
}

func NewStore(kv KV) *Store {
	return &Store{
		kv:   kv,
		keys: StorageKeys,
		subs: make(map[string][]chan struct{}),
	}
}

func storageKey(key, userID string) string {
	return key + ":" + userID
}

// Load reads every candidate key, normalizes the union, writes the
// cleaned result back to all keys and notifies subscribers. Storage or
// parse failures degrade silently to an empty cart.
func (s *Store) Load(ctx context.Context, userID string) models.Cart {
	raws := make([]string, len(s.keys))
	for i, k := range s.keys {
		raw, err := s.kv.Get(ctx, storageKey(k, userID))
		if err != nil {
			logger.Warn().Err(err).Str("key", k).Msg("cart storage read failed")
			continue
		}
		raws[i] = raw
	}

	var lines []models.CartLine
	if identical(raws) {
		lines = parseLines(raws[0])
	} else {
		for _, raw := range raws {
			lines = append(lines, parseLines(raw)...)
		}
	}

	cart := Normalize(lines)
	if s.writeAll(ctx, userID, cart) {
		s.notify(userID)
	}
	return cart
}

// Save re-applies the sanitation pass, fans the result out to all keys
// and notifies subscribers.
func (s *Store) Save(ctx context.Context, userID string, cart models.Cart) models.Cart {
	cart = Normalize(cart)
	if s.writeAll(ctx, userID, cart) {
		s.notify(userID)
	}
	return cart
}

// Clear empties the cart across all keys.
func (s *Store) Clear(ctx context.Context, userID string) {
	s.Save(ctx, userID, nil)
}

// Subscribe registers for change notifications on one user's cart. The
// returned cancel func must be called when the watcher goes away.
func (s *Store) Subscribe(userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[userID] = append(s.subs[userID], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[userID]
		for i, c := range subs {
			if c == ch {
				s.subs[userID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// writeAll fans the serialized cart out to every key, skipping keys
// that already hold the exact value. Change notifications fire only
// when stored state actually changed, so a read-normalize-write cycle
// on an already-clean cart stays quiet.
func (s *Store) writeAll(ctx context.Context, userID string, cart models.Cart) bool {
	if cart == nil {
		cart = models.Cart{}
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		logger.Error().Err(err).Msg("cart serialize failed")
		return false
	}
	changed := false
	for _, k := range s.keys {
		key := storageKey(k, userID)
		cur, err := s.kv.Get(ctx, key)
		if err == nil && cur == string(raw) {
			continue
		}
		if err := s.kv.Set(ctx, key, string(raw)); err != nil {
			logger.Warn().Err(err).Str("key", k).Msg("cart storage write failed")
			continue
		}
		changed = true
	}
	return changed
}

func (s *Store) notify(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func identical(raws []string) bool {
	if len(raws) == 0 {
		return false
	}
	first := raws[0]
	if first == "" {
		return false
	}
	for _, r := range raws[1:] {
		if r != first {
			return false
		}
	}
	return true
}
