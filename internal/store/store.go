package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tatianab/nexus/internal/models"
)

const (
	// SaveKey identifies the single save slot.
	SaveKey = "current_game"

	// MinMessagesToKeep is how much history survives a quota trim.
	MinMessagesToKeep = 20
)

// Outcome reports how a save went.
type Outcome int

const (
	Failed Outcome = iota
	Saved
	// SavedTrimmed means the record was written only after dropping the
	// oldest messages.
	SavedTrimmed
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case SavedTrimmed:
		return "saved (history trimmed)"
	}
	return "failed"
}

// Store owns the save slot. The backend is opened on first use; all methods
// are safe for concurrent use and the last completed write wins.
type Store struct {
	mu      sync.Mutex
	open    Opener
	backend Backend
	logger  *slog.Logger
}

// New returns a Store that opens its backend lazily with open.
func New(open Opener) *Store {
	return &Store{
		open:   open,
		logger: slog.Default().With("component", "store"),
	}
}

// handle returns the open backend. s.mu must be held.
func (s *Store) handle() (Backend, error) {
	if s.backend != nil {
		return s.backend, nil
	}
	b, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	s.backend = b
	return b, nil
}

// Save writes state to the save slot, replacing any previous record.
//
// When the backend reports ErrQuotaExceeded and the history is longer than
// MinMessagesToKeep, the save is retried once with only the most recent
// messages. Only the stored copy is trimmed; state itself is not modified.
// If nothing could be written the previous record stays in place and the
// outcome is Failed; the error is returned for reporting only.
func (s *Store) Save(ctx context.Context, state models.GameState) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.handle()
	if err != nil {
		s.logger.Error("save failed", "error", err)
		return Failed, err
	}

	err = put(ctx, b, state)
	if err == nil {
		return Saved, nil
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		s.logger.Error("save failed", "error", err)
		return Failed, err
	}

	count := len(state.Messages)
	if count <= MinMessagesToKeep {
		s.logger.Error("quota exceeded with nothing to trim", "messages", count, "error", err)
		return Failed, err
	}

	trimmed := state
	trimmed.Messages = append([]models.Message{}, state.Messages[count-MinMessagesToKeep:]...)
	s.logger.Warn("quota exceeded, trimming history", "dropped", count-MinMessagesToKeep, "kept", MinMessagesToKeep)

	if err := put(ctx, b, trimmed); err != nil {
		s.logger.Error("save failed after trimming history", "error", err)
		return Failed, fmt.Errorf("save after trimming history: %w", err)
	}
	s.logger.Info("saved after trimming history")
	return SavedTrimmed, nil
}

func put(ctx context.Context, b Backend, state models.GameState) error {
	data, err := models.EncodeGameState(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return b.Put(ctx, SaveKey, data)
}

// Load returns the saved game. It reports false when there is no save, the
// storage cannot be read, or the record is not a compatible game state.
func (s *Store) Load(ctx context.Context) (*models.GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.handle()
	if err != nil {
		s.logger.Error("load failed", "error", err)
		return nil, false
	}

	data, err := b.Get(ctx, SaveKey)
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		s.logger.Error("load failed", "error", err)
		return nil, false
	}

	state, err := models.DecodeGameState(data)
	if err != nil {
		s.logger.Warn("ignoring unreadable save", "error", err)
		return nil, false
	}
	return state, true
}

// Clear removes the save slot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.handle()
	if err != nil {
		s.logger.Error("clear failed", "error", err)
		return err
	}
	if err := b.Delete(ctx, SaveKey); err != nil {
		s.logger.Error("clear failed", "error", err)
		return err
	}
	return nil
}

// Close releases the backend if it was opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	return err
}
