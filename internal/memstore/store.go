// Package memstore is an in-memory core.Store, selected with
// STORE_DRIVER=memory for local runs without PostgreSQL and used by tests.
//
// Every batch is staged on a copy of the table and swapped in only when all
// rows apply, so UpsertClaims is as atomic as a database transaction.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/claims/internal/core"
)

// Store holds claims keyed by claim_id.
type Store struct {
	mu     sync.RWMutex
	claims map[string]core.Claim
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{claims: make(map[string]core.Claim)}
}

func clone(c core.Claim) core.Claim {
	if c.UpdatedAt != nil {
		u := *c.UpdatedAt
		c.UpdatedAt = &u
	}
	return c
}

func (s *Store) GetClaim(ctx context.Context, claimID string) (core.Claim, error) {
	if err := ctx.Err(); err != nil {
		return core.Claim{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.claims[claimID]
	if !ok {
		return core.Claim{}, core.ErrNotFound
	}
	return clone(c), nil
}

func (s *Store) ListClaims(ctx context.Context, filter core.ClaimFilter) ([]core.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]core.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		if filter.Matches(c) {
			matched = append(matched, c)
		}
	}
	slices.SortFunc(matched, func(a, b core.Claim) int {
		return strings.Compare(a.ClaimID, b.ClaimID)
	})

	if filter.Skip >= len(matched) {
		return []core.Claim{}, nil
	}
	end := len(matched)
	if filter.Limit > 0 {
		end = min(filter.Skip+filter.Limit, len(matched))
	}

	page := make([]core.Claim, 0, end-filter.Skip)
	for _, c := range matched[filter.Skip:end] {
		page = append(page, clone(c))
	}
	return page, nil
}

func (s *Store) CountClaims(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.claims)), nil
}

// ScanClaims visits claims in claim_id order on a snapshot taken at call time.
func (s *Store) ScanClaims(ctx context.Context, fn func(core.Claim) error) error {
	s.mu.RLock()
	snapshot := make([]core.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		snapshot = append(snapshot, clone(c))
	}
	s.mu.RUnlock()

	slices.SortFunc(snapshot, func(a, b core.Claim) int {
		return strings.Compare(a.ClaimID, b.ClaimID)
	})
	for _, c := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) InsertClaim(ctx context.Context, c core.Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[c.ClaimID]; ok {
		return core.ErrConflict
	}
	s.claims[c.ClaimID] = clone(c)
	return nil
}

func (s *Store) UpdateClaim(ctx context.Context, c core.Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[c.ClaimID]; !ok {
		return core.ErrNotFound
	}
	s.claims[c.ClaimID] = clone(c)
	return nil
}

func (s *Store) DeleteClaim(ctx context.Context, claimID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claimID]; !ok {
		return core.ErrNotFound
	}
	delete(s.claims, claimID)
	return nil
}

func (s *Store) DeleteAllClaims(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.claims))
	s.claims = make(map[string]core.Claim)
	return n, nil
}

// UpsertClaims applies the batch to a copy of the table and publishes the
// copy only if every row succeeds.
func (s *Store) UpsertClaims(ctx context.Context, batch []core.Claim, key core.ConflictKey, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := maps.Clone(s.claims)
	byPolicy := make(map[string][]string)
	if key == core.ConflictPolicyID {
		for id, c := range staged {
			byPolicy[c.PolicyID] = append(byPolicy[c.PolicyID], id)
		}
	}

	for i, in := range batch {
		var matches []string
		switch key {
		case core.ConflictPolicyID:
			matches = byPolicy[in.PolicyID]
		case core.ConflictClaimID:
			if _, ok := staged[in.ClaimID]; ok {
				matches = []string{in.ClaimID}
			}
		default:
			return fmt.Errorf("unsupported conflict key %q", key)
		}

		if len(matches) > 0 {
			for _, id := range matches {
				staged[id] = overwrite(staged[id], in, now)
			}
			continue
		}

		if _, ok := staged[in.ClaimID]; ok {
			return fmt.Errorf("row %d: claim %s: %w", i+1, in.ClaimID, core.ErrConflict)
		}
		c := clone(in)
		c.CreatedAt = now
		c.UpdatedAt = nil
		staged[c.ClaimID] = c
		if key == core.ConflictPolicyID {
			byPolicy[c.PolicyID] = append(byPolicy[c.PolicyID], c.ClaimID)
		}
	}

	s.claims = staged
	return nil
}

// overwrite copies the upsert-mutable fields of in onto existing.
func overwrite(existing, in core.Claim, now time.Time) core.Claim {
	existing.ClaimAmount = in.ClaimAmount
	existing.ClaimStatus = in.ClaimStatus
	existing.AnnualPremium = in.AnnualPremium
	existing.IsFraud = in.IsFraud
	if now.Before(existing.CreatedAt) {
		now = existing.CreatedAt
	}
	existing.UpdatedAt = &now
	return existing
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
