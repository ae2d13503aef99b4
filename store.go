package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

const (
	defaultGridID = "default"

	// Games untouched for this long are dropped by PruneGames.
	gameIdleTTL = 24 * time.Hour
)

var (
	ErrGridNotFound = errors.New("grid not found")
	ErrGameNotFound = errors.New("game not found")
)

// Store keeps puzzles and the games played on them in memory.
type Store struct {
	mu    sync.RWMutex
	grids map[string]*Grid
	games map[string]*GameSession
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		grids: make(map[string]*Grid),
		games: make(map[string]*GameSession),
	}
}

// SaveGrid stores a grid under its ID, generating one when empty. Saving
// under an existing ID replaces that grid; running games keep the old one.
func (s *Store) SaveGrid(g *Grid) *Grid {
	if g.ID == "" {
		g.ID = generateID()
	}
	g.CreatedAt = time.Now()

	s.mu.Lock()
	s.grids[g.ID] = g
	s.mu.Unlock()

	return g
}

// GetGrid returns a grid by ID, or nil if not found.
func (s *Store) GetGrid(id string) *Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grids[id]
}

// ListGrids returns all grids, most recent first.
func (s *Store) ListGrids() []*Grid {
	s.mu.RLock()
	list := make([]*Grid, 0, len(s.grids))
	for _, g := range s.grids {
		list = append(list, g)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b *Grid) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}

// CreateGame starts an empty game on a grid.
func (s *Store) CreateGame(gridID string) (*GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid := s.grids[gridID]
	if grid == nil {
		return nil, fmt.Errorf("%w: %s", ErrGridNotFound, gridID)
	}
	game := newGameSession(generateID(), grid)
	s.games[game.ID] = game
	return game, nil
}

// GetGame returns a game session by ID, or nil if not found.
func (s *Store) GetGame(id string) *GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[id]
}

// DeleteGame forgets a game session.
func (s *Store) DeleteGame(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	delete(s.games, id)
	return nil
}

// ListGames returns all game sessions, oldest first.
func (s *Store) ListGames() []*GameSession {
	s.mu.RLock()
	list := make([]*GameSession, 0, len(s.games))
	for _, g := range s.games {
		list = append(list, g)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b *GameSession) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return list
}

// PruneGames drops games last touched before now minus ttl and returns
// their IDs.
func (s *Store) PruneGames(now time.Time, ttl time.Duration) []string {
	cutoff := now.Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned []string
	for id, g := range s.games {
		if g.LastActive().Before(cutoff) {
			delete(s.games, id)
			pruned = append(pruned, id)
		}
	}
	slices.Sort(pruned)
	return pruned
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
