package state_managers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/benmeehan/fieldcase/internal/models"
	"github.com/benmeehan/fieldcase/pkg/file"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// caseState is the on-disk layout of the case file.
type caseState struct {
	Cases    map[string]*models.Case `json:"cases"`
	Counters map[string]int          `json:"counters"`
}

// CaseStateManager handles file-based case persistence
type CaseStateManager struct {
	filePath   string
	fileClient file.FileOperations
	logger     zerolog.Logger
	now        func() time.Time
	mu         sync.Mutex
}

// NewCaseStateManager initializes a new CaseStateManager
func NewCaseStateManager(filePath string, fileClient file.FileOperations, logger zerolog.Logger) *CaseStateManager {
	return &CaseStateManager{
		filePath:   filePath,
		fileClient: fileClient,
		logger:     logger,
		now:        time.Now,
	}
}

// loadState reads the case file. A missing file is an empty store. Callers hold sm.mu.
func (sm *CaseStateManager) loadState() (*caseState, error) {
	state := &caseState{
		Cases:    make(map[string]*models.Case),
		Counters: make(map[string]int),
	}

	exists, err := sm.fileClient.IsFileExists(sm.filePath)
	if err != nil {
		sm.logger.Error().Err(err).Msg("Failed to stat case file")
		return nil, err
	}
	if !exists {
		return state, nil
	}

	if err := sm.fileClient.ReadJsonFile(sm.filePath, state); err != nil {
		sm.logger.Error().Err(err).Msg("Failed to read case file")
		return nil, err
	}
	if state.Cases == nil {
		state.Cases = make(map[string]*models.Case)
	}
	if state.Counters == nil {
		state.Counters = make(map[string]int)
	}
	return state, nil
}

// saveState writes the case file. Callers hold sm.mu.
func (sm *CaseStateManager) saveState(state *caseState) error {
	if err := sm.fileClient.WriteJsonFile(sm.filePath, state); err != nil {
		sm.logger.Error().Err(err).Msg("Failed to write case file")
		return err
	}
	return nil
}

// CreateCase stores a new case and returns its generated id.
func (sm *CaseStateManager) CreateCase(_ context.Context, c *models.Case) (string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, err := sm.loadState()
	if err != nil {
		return "", err
	}

	stored := *c
	stored.ID = uuid.New().String()
	now := sm.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	state.Cases[stored.ID] = &stored

	if err := sm.saveState(state); err != nil {
		return "", err
	}
	return stored.ID, nil
}

// LoadCase returns the case with the given id.
func (sm *CaseStateManager) LoadCase(_ context.Context, id string) (*models.Case, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, err := sm.loadState()
	if err != nil {
		return nil, err
	}

	c, ok := state.Cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCaseNotFound, id)
	}
	return c, nil
}

// UpdateCase merges fields into the stored case.
func (sm *CaseStateManager) UpdateCase(_ context.Context, id string, fields map[string]any) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, err := sm.loadState()
	if err != nil {
		return err
	}

	c, ok := state.Cases[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrCaseNotFound, id)
	}
	if err := c.ApplyFields(fields); err != nil {
		return err
	}
	c.ID = id

	return sm.saveState(state)
}

// NextCounter increments and returns the case counter for valuer, starting at 1.
func (sm *CaseStateManager) NextCounter(_ context.Context, valuer string) (int, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, err := sm.loadState()
	if err != nil {
		return 0, err
	}

	next := state.Counters[valuer] + 1
	state.Counters[valuer] = next

	if err := sm.saveState(state); err != nil {
		return 0, err
	}
	return next, nil
}

// ListCases returns the stored cases matching query, newest first.
func (sm *CaseStateManager) ListCases(_ context.Context, query models.CaseQuery) ([]*models.Case, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, err := sm.loadState()
	if err != nil {
		return nil, err
	}

	cases := make([]*models.Case, 0, len(state.Cases))
	for id, c := range state.Cases {
		c.ID = id
		if query.Matches(c) {
			cases = append(cases, c)
		}
	}

	slices.SortFunc(cases, func(a, b *models.Case) int {
		if n := b.CreatedAt.Compare(a.CreatedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return cases, nil
}
