package persistence

import (
	"sync"

	"go.uber.org/zap"

	"voxtrace/internal/world"
)

// Saver writes one store through a backend and skips the write when the
// store has not changed since the last successful save.
type Saver struct {
	backend Backend
	store   *world.ChunkStore
	log     *zap.Logger

	mu    sync.Mutex
	saved uint64
}

// NewSaver treats the store's current content as already saved.
func NewSaver(backend Backend, store *world.ChunkStore, log *zap.Logger) *Saver {
	return &Saver{
		backend: backend,
		store:   store,
		log:     log,
		saved:   store.GetModCount(),
	}
}

// Save writes the store if it changed. It reports whether a write happened.
func (s *Saver) Save() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Read before writing so edits made during the save mark it dirty again.
	mod := s.store.GetModCount()
	if mod == s.saved {
		s.log.Debug("world unchanged, skipping save", zap.Uint64("mods", mod))
		return false, nil
	}
	if err := s.backend.Save(s.store); err != nil {
		return false, err
	}
	s.saved = mod
	return true, nil
}
