package docstore

import "sync"

// registry hands out one mutex per collection key for the whole process.
// Entries are created lazily and never removed, so the set grows with the
// number of distinct collections ever touched.
var registry = struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}{locks: make(map[string]*sync.Mutex)}

// lockFor returns the mutex guarding the collection identified by key.
func lockFor(key string) *sync.Mutex {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	l, ok := registry.locks[key]
	if !ok {
		l = &sync.Mutex{}
		registry.locks[key] = l
	}
	return l
}
