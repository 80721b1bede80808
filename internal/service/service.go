// Package service coordinates the pure board and habit logic with the store.
// Every write is followed by a re-fetch, and the re-fetched state is what callers
// display; local state is never rolled back by hand.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandeepkv93/czar/internal/storage"
)

// BoardResolver finds (or creates) the board that owns everything a user stores.
type BoardResolver interface {
	EnsureBoard(ctx context.Context, owner string) (storage.Board, error)
}

// boardRef resolves the owner's board once and caches its id.
type boardRef struct {
	mu       sync.Mutex
	owner    string
	resolver BoardResolver
	id       string
}

func (b *boardRef) get(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.id != "" {
		return b.id, nil
	}
	board, err := b.resolver.EnsureBoard(ctx, b.owner)
	if err != nil {
		return "", fmt.Errorf("ensure board: %w", err)
	}
	b.id = board.ID
	return b.id, nil
}

type clock func() time.Time

func (c clock) in(loc *time.Location) time.Time {
	return c().In(loc)
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
