package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vitos/crypto_signal_bot/internal/domain"
)

// PositionFile persists open positions as a single JSON file. Every mutation
// rewrites the file through a temp-file rename so a crash mid-write can never
// leave a truncated state behind; a corrupt file fails loudly at startup
// instead of being silently reset.
type PositionFile struct {
	path string

	mu        sync.Mutex
	positions map[string]*domain.Position // keyed by symbol
}

func NewPositionFile(path string) (*PositionFile, error) {
	s := &PositionFile{
		path:      path,
		positions: make(map[string]*domain.Position),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return s, nil
	}
	var list []*domain.Position
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("position state %s is corrupt: %w", path, err)
	}
	for _, p := range list {
		s.positions[p.Symbol] = p
	}
	return s, nil
}

func (s *PositionFile) Save(position *domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[position.Symbol] = position
	return s.flush()
}

func (s *PositionFile) Get(symbol string) (*domain.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[symbol]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (s *PositionFile) Delete(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positions[symbol]; !ok {
		return nil
	}
	delete(s.positions, symbol)
	return s.flush()
}

func (s *PositionFile) List() []*domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

// flush writes the whole map. Caller holds the lock.
func (s *PositionFile) flush() error {
	list := make([]*domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		list = append(list, p)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
