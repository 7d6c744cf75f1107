// Package memory provides in-process implementations of the persistence
// ports. It is safe for concurrent use and is intended for tests and local
// development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
)

// Store holds loan configurations and income snapshots in maps.
type Store struct {
	mu         sync.RWMutex
	now        func() time.Time
	configs    map[string]model.LoanConfiguration // by ID
	byBorrower map[string]string                  // borrower ID -> config ID
	snapshots  map[string][]model.IncomeSnapshot
}

var _ port.LoanConfigurationRepository = (*Store)(nil)
var _ port.IncomeSignalSource = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		now:        time.Now,
		configs:    make(map[string]model.LoanConfiguration),
		byBorrower: make(map[string]string),
		snapshots:  make(map[string][]model.IncomeSnapshot),
	}
}

// LoanConfigurationRepository implementation ---------------------------------

func (s *Store) FindOrCreate(_ context.Context, borrowerID string) (model.LoanConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byBorrower[borrowerID]; ok {
		return s.configs[id], nil
	}
	cfg, err := model.NewLoanConfiguration(borrowerID, s.now().UTC())
	if err != nil {
		return model.LoanConfiguration{}, err
	}
	s.configs[cfg.ID()] = cfg
	s.byBorrower[borrowerID] = cfg.ID()
	return cfg, nil
}

func (s *Store) FindByBorrowerID(_ context.Context, borrowerID string) (model.LoanConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byBorrower[borrowerID]
	if !ok {
		return model.LoanConfiguration{}, model.ErrConfigurationNotFound
	}
	return s.configs[id], nil
}

func (s *Store) Update(_ context.Context, id string, expectedVersion int, patch model.ConfigurationPatch) (model.LoanConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[id]
	if !ok {
		return model.LoanConfiguration{}, model.ErrConfigurationNotFound
	}
	if cfg.Version() != expectedVersion {
		return model.LoanConfiguration{}, model.ErrVersionConflict
	}
	next := cfg.Apply(patch, s.now().UTC())
	s.configs[id] = next
	return next, nil
}

// IncomeSignalSource implementation ------------------------------------------

// LatestIncomeSnapshot returns the most recently captured snapshot, or nil.
func (s *Store) LatestIncomeSnapshot(_ context.Context, borrowerID string) (*model.IncomeSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.snapshots[borrowerID]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[len(snaps)-1]
	return &latest, nil
}

// AddIncomeSnapshot records a snapshot for the borrower. A zero CapturedAt is
// stamped with the current time.
func (s *Store) AddIncomeSnapshot(borrowerID string, snap model.IncomeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = s.now().UTC()
	}
	snaps := append(s.snapshots[borrowerID], snap)
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].CapturedAt.Before(snaps[j].CapturedAt)
	})
	s.snapshots[borrowerID] = snaps
}
