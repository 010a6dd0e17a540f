package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/p-n-ai/dia-canvas/internal/progress"
)

// BlobKind names one of the persisted blobs of a learner profile.
type BlobKind string

const (
	BlobState  BlobKind = "state"
	BlobLadder BlobKind = "ladder"
)

// BlobStore loads and saves opaque blobs for one learner profile. Load
// returns nil, nil when nothing has been saved yet.
type BlobStore interface {
	Load(ctx context.Context, kind BlobKind) ([]byte, error)
	Save(ctx context.Context, kind BlobKind, data []byte) error
}

// Namespace scopes blobs to a profile and a storage generation. Bumping the
// generation starts every profile from defaults.
func Namespace(profileID string, generation int) string {
	return fmt.Sprintf("%s:v%d", profileID, generation)
}

// MemoryStore is an in-memory BlobStore.
type MemoryStore struct {
	blobs map[BlobKind][]byte
	saves int
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[BlobKind][]byte),
	}
}

func (s *MemoryStore) Load(_ context.Context, kind BlobKind) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[kind]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryStore) Save(_ context.Context, kind BlobKind, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[kind] = append([]byte(nil), data...)
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// LoadTracker restores a tracker from store, merging saved blobs over the
// defaults built from topics. Corrupt blobs are discarded with a warning;
// only a store read failure is returned as an error.
func LoadTracker(ctx context.Context, store BlobStore, topics []progress.TopicContent, opts progress.Options) (*progress.Tracker, error) {
	defaults := progress.DefaultState(topics)

	stateBlob, err := store.Load(ctx, BlobState)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	state, err := progress.DecodeState(defaults, stateBlob)
	if err != nil {
		slog.Warn("discarding corrupt saved state", "error", err)
	}

	ladderBlob, err := store.Load(ctx, BlobLadder)
	if err != nil {
		return nil, fmt.Errorf("load ladder: %w", err)
	}
	ladder, err := progress.DecodeLadder(ladderBlob)
	if err != nil {
		slog.Warn("discarding corrupt arena ladder", "error", err)
	}

	return progress.NewTracker(state, ladder, opts), nil
}

// SaveTracker writes both blobs of a tracker.
func SaveTracker(ctx context.Context, store BlobStore, t *progress.Tracker) error {
	state, err := progress.EncodeState(t.Snapshot())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	ladder, err := progress.EncodeLadder(t.LadderSnapshot())
	if err != nil {
		return fmt.Errorf("encode ladder: %w", err)
	}
	if err := store.Save(ctx, BlobState, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := store.Save(ctx, BlobLadder, ladder); err != nil {
		return fmt.Errorf("save ladder: %w", err)
	}
	return nil
}
