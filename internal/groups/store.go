// Package groups is the display-side group store: a cache of projected groups
// in front of the savings ledger, and the two-phase join protocol that keeps the
// cache consistent with the ledger.
package groups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AbdoViper23/halaqa-Save/internal/allocation"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
)

// Store caches display groups built from the ledger.
//
// The ledger stays the only authority: every join re-reads the group before
// applying it locally, and every ledger answer replaces the cached record
// wholesale. Store is safe for concurrent use.
type Store struct {
	repo   Repository
	rng    allocation.Rand
	logger *slog.Logger

	mu       sync.RWMutex
	groups   map[string]*models.Group
	order    []string // listing order; created groups first
	loaded   bool
	stale    bool
	inFlight map[string]bool

	// gen increases on every cache write. written holds the generation of the
	// last write per group ID, including drops; staleAt the one of the last
	// stale mark. A refresh keeps whatever was written after it started.
	gen     uint64
	written map[string]uint64
	staleAt uint64

	refreshes      singleflight.Group
	refreshTimeout time.Duration
}

// DefaultRefreshTimeout bounds one shared listing round trip.
const DefaultRefreshTimeout = 15 * time.Second

// NewStore creates a store over repo. A nil rng uses the package-level random
// source for payout months past the group duration.
func NewStore(repo Repository, rng allocation.Rand, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repo:     repo,
		rng:      rng,
		logger:   logger,
		groups:   make(map[string]*models.Group),
		inFlight: make(map[string]bool),
		written:  make(map[string]uint64),

		refreshTimeout: DefaultRefreshTimeout,
	}
}

// Stale reports whether the cache must be re-read before it is trusted.
func (s *Store) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale || !s.loaded
}

// Refresh replaces the cache with the ledger's current listing.
//
// Concurrent calls share one ledger round trip. The shared call does not inherit
// the cancellation of whichever caller started it; each caller still stops
// waiting when its own ctx is done. Records written while the listing was in
// flight are newer than it and survive, and a stale mark set meanwhile stays.
func (s *Store) Refresh(ctx context.Context) error {
	ch := s.refreshes.DoChan("available", func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()

		s.mu.RLock()
		start := s.gen
		s.mu.RUnlock()

		remote, err := s.repo.ListAvailableGroups(shared)
		if err != nil {
			s.markStale()
			return nil, unavailable("list groups", err)
		}

		groups := make(map[string]*models.Group, len(remote))
		order := make([]string, 0, len(remote))
		for i := range remote {
			g, ok := s.project(&remote[i])
			if !ok {
				continue
			}
			if _, dup := groups[g.ID]; !dup {
				order = append(order, g.ID)
			}
			groups[g.ID] = g
		}

		s.commit(start, groups, order)
		s.logger.Debug("Group cache refreshed", "groups", len(order))
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("list groups: %w: %w", allocation.ErrRepositoryUnavailable, ctx.Err())
	}
}

// commit installs a listing read at generation start, keeping newer writes.
func (s *Store) commit(start uint64, groups map[string]*models.Group, order []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []string
	for _, id := range s.order {
		if s.written[id] <= start {
			continue
		}
		if _, listed := groups[id]; !listed {
			kept = append(kept, id)
		}
		groups[id] = s.groups[id]
	}
	for id, at := range s.written {
		if at <= start {
			delete(s.written, id)
			continue
		}
		if _, ok := s.groups[id]; !ok {
			// Dropped during the flight.
			delete(groups, id)
		}
	}

	merged := append(kept, order...)
	s.order = merged[:0]
	for _, id := range merged {
		if _, ok := groups[id]; ok {
			s.order = append(s.order, id)
		}
	}
	s.groups = groups
	s.loaded = true
	s.stale = s.staleAt > start
}

// GetAvailableGroups returns the joinable groups in listing order.
func (s *Store) GetAvailableGroups(ctx context.Context) ([]models.Group, error) {
	if s.Stale() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.snapshot(allocation.Joinable), nil
}

// ActiveGroups returns the cached groups that are running their cycles.
func (s *Store) ActiveGroups() []models.Group {
	return s.snapshot(func(g *models.Group) bool {
		return g.Status == models.GroupActive
	})
}

// Filter returns the joinable groups matching c.
func (s *Store) Filter(ctx context.Context, c Criteria) ([]models.Group, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	available, err := s.GetAvailableGroups(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(available, c), nil
}

// GetGroupByID returns the group, reading it from the ledger when it is not
// cached or the cache is stale. A group the ledger does not know is nil, nil.
func (s *Store) GetGroupByID(ctx context.Context, groupID string) (*models.Group, error) {
	if !s.Stale() {
		s.mu.RLock()
		g, ok := s.groups[groupID]
		s.mu.RUnlock()
		if ok {
			return g.Clone(), nil
		}
	}

	g, err := s.fetch(ctx, groupID)
	if errors.Is(err, allocation.ErrGroupNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.put(g, false)
	return g.Clone(), nil
}

// UserGroups returns the groups with the given IDs, in the order given.
// Unknown IDs are skipped.
func (s *Store) UserGroups(ctx context.Context, ids []string) ([]models.Group, error) {
	out := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		g, err := s.GetGroupByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if g != nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

// Create registers a new group with the ledger and caches it first in the listing.
func (s *Store) Create(ctx context.Context, spec models.GroupSpec) (*models.Group, error) {
	if spec.TotalMembers <= 0 || spec.DurationCycles <= 0 {
		return nil, &CreationError{Reason: "group size and duration must be positive", Err: allocation.ErrInvalidGroupDimensions}
	}
	if spec.MonthlyAmount <= 0 {
		return nil, &CreationError{Reason: "monthly amount must be positive"}
	}

	remote, err := s.repo.CreateGroup(ctx, spec)
	if err != nil {
		var ce *CreationError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, unavailable("create group", err)
	}

	g, ok := s.project(remote)
	if !ok {
		return nil, &CreationError{Reason: "ledger returned an invalid group", Err: allocation.ErrInvalidGroupDimensions}
	}
	s.put(g, true)
	s.logger.Info("Group created", "group_id", g.ID, "name", g.Name)
	return g.Clone(), nil
}

// Join places memberID in a slot of the group and returns the group as the
// ledger reports it afterwards.
//
// The join is applied to a fresh copy of the group first, so local rejections
// (ErrAlreadyMember, ErrGroupNotJoinable, ErrSlotUnavailable) never reach the
// ledger. The ledger then commits or refuses it. Only one join per group may be
// outstanding; a second one fails with ErrJoinInFlight. If the ledger cannot be
// reached the cache is left as it was and marked stale, and the next join
// refreshes the whole cache before it proceeds.
func (s *Store) Join(ctx context.Context, groupID, memberID string, preferredSlot *int) (*models.Group, error) {
	if err := s.begin(groupID); err != nil {
		return nil, err
	}
	defer s.end(groupID)

	if s.failed() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	current, err := s.fetch(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.put(current, false)

	tentative, slot, err := allocation.Apply(current, memberID, preferredSlot)
	if err != nil {
		s.logJoin(groupID, memberID, err)
		return nil, err
	}
	s.put(tentative, false)

	membership, err := s.repo.JoinGroup(ctx, groupID, preferredSlot)
	if err != nil {
		var je *allocation.JoinError
		if errors.As(err, &je) {
			s.logJoin(groupID, memberID, err)
			s.reconcile(ctx, groupID, current)
			return nil, err
		}
		s.put(current, false)
		s.markStale()
		s.logger.Warn("Join failed", "group_id", groupID, "member_id", memberID, "error", err)
		return nil, unavailable("join group", err)
	}

	if membership.SlotNumber != slot {
		s.logger.Info("Ledger assigned a different slot",
			"group_id", groupID,
			"tentative_slot", slot,
			"slot", membership.SlotNumber,
		)
	}

	confirmed, err := s.fetch(ctx, groupID)
	if err != nil {
		// The join is committed; only the read-back failed. Show the committed
		// slot and re-read on next access.
		s.markStale()
		s.logger.Warn("Join committed but refresh failed", "group_id", groupID, "error", err)
		if applied, _, aerr := allocation.Apply(current, memberID, &membership.SlotNumber); aerr == nil {
			tentative = applied
		}
		s.put(tentative, false)
		return tentative.Clone(), nil
	}
	s.put(confirmed, false)

	s.logger.Info("Joined group",
		"group_id", groupID,
		"member_id", memberID,
		"slot", membership.SlotNumber,
		"status", confirmed.Status,
	)
	return confirmed.Clone(), nil
}

// fetch reads one group and its occupants from the ledger.
func (s *Store) fetch(ctx context.Context, groupID string) (*models.Group, error) {
	remote, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, allocation.ErrGroupNotFound) {
			s.drop(groupID)
			return nil, err
		}
		s.markStale()
		return nil, unavailable("get group", err)
	}

	g, ok := s.project(remote)
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, allocation.ErrInvalidGroupDimensions)
	}

	memberships, err := s.repo.GroupMemberships(ctx, groupID)
	if err != nil {
		s.markStale()
		return nil, unavailable("get memberships", err)
	}
	allocation.ResolveOccupants(g.Slots, memberships)
	return g, nil
}

// reconcile re-reads a group after the ledger refused a join. On failure the
// pre-join record is restored and the cache marked stale.
func (s *Store) reconcile(ctx context.Context, groupID string, previous *models.Group) {
	g, err := s.fetch(ctx, groupID)
	if err != nil {
		if !errors.Is(err, allocation.ErrGroupNotFound) {
			s.put(previous, false)
		}
		return
	}
	s.put(g, false)
}

// project builds the display record; invalid records are skipped with a warning.
func (s *Store) project(rg *models.RemoteGroup) (*models.Group, bool) {
	g, err := allocation.Project(rg, s.rng)
	switch {
	case g == nil:
		s.logger.Warn("Skipping invalid group", "group_id", rg.ID, "error", err)
		return nil, false
	case err != nil:
		s.logger.Warn("Unknown group status, showing as Pending", "group_id", rg.ID, "status", rg.Status)
	}
	return g, true
}

func (s *Store) snapshot(keep func(*models.Group) bool) []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Group, 0, len(s.order))
	for _, id := range s.order {
		g := s.groups[id]
		if keep(g) {
			out = append(out, *g.Clone())
		}
	}
	return out
}

func (s *Store) put(g *models.Group, first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[g.ID]; !ok {
		if first {
			s.order = append([]string{g.ID}, s.order...)
		} else {
			s.order = append(s.order, g.ID)
		}
	}
	s.groups[g.ID] = g
	s.gen++
	s.written[g.ID] = s.gen
}

func (s *Store) drop(groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return
	}
	delete(s.groups, groupID)
	s.gen++
	s.written[groupID] = s.gen
	for i, id := range s.order {
		if id == groupID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// failed reports whether a ledger call failed since the last full refresh.
func (s *Store) failed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

func (s *Store) markStale() {
	s.mu.Lock()
	s.stale = true
	s.gen++
	s.staleAt = s.gen
	s.mu.Unlock()
}

func (s *Store) begin(groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[groupID] {
		return allocation.ErrJoinInFlight
	}
	s.inFlight[groupID] = true
	return nil
}

func (s *Store) end(groupID string) {
	s.mu.Lock()
	delete(s.inFlight, groupID)
	s.mu.Unlock()
}

func (s *Store) logJoin(groupID, memberID string, err error) {
	if allocation.Expected(err) {
		s.logger.Info("Join rejected", "group_id", groupID, "member_id", memberID, "reason", allocation.Message(err))
		return
	}
	s.logger.Warn("Join rejected", "group_id", groupID, "member_id", memberID, "error", err)
}

// unavailable wraps a ledger failure so it matches ErrRepositoryUnavailable.
func unavailable(op string, err error) error {
	if errors.Is(err, allocation.ErrRepositoryUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, allocation.ErrRepositoryUnavailable, err)
}
