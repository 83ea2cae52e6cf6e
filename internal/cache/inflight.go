package cache

import "sync"

// InflightGuard is the advisory single-flight guard for checkout: a
// second submit for the same key while one is outstanding is rejected.
// It is not a database-level lock; a concurrent second client on a
// different node is out of scope.
type InflightGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewInflightGuard() *InflightGuard {
	return &InflightGuard{active: make(map[string]struct{})}
}

// Begin marks key as busy. It returns false when an earlier Begin for
// the same key has not yet been matched by End.
func (g *InflightGuard) Begin(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

func (g *InflightGuard) End(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, key)
}
