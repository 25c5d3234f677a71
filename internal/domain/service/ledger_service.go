// Package service provides implementations of domain services that implement core business logic
// This package depends only on domain models and repository interfaces (not implementations)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/repository"
	"github.com/Insanely-69/CelestialSword2/internal/domain/useCases"
)

// WindowDuration is the length of every player's rolling donation window.
// The same continuous duration is used for the reset decision and for
// remaining-time displays.
const WindowDuration = 7 * 24 * time.Hour

// ErrNegativeAmount is returned when a caller tries to record a negative donation.
var ErrNegativeAmount = errors.New("donation amount must not be negative")

// LedgerService maintains two aggregates per player: a rolling 7-day window
// anchored to that player's own first donation since the last reset, and an
// all-time total that is never reset. All mutation funnels through Record and
// SweepExpired; both serialize on a single mutex and are durably persisted
// before they return. Reads hand out copies.
type LedgerService struct {
	mu      sync.RWMutex
	ledger  model.LedgerDocument
	targets model.TargetDocument

	store   repository.LedgerPersistence // durable document store (can be nil for in-memory use)
	cache   repository.SnapshotCache     // fast snapshot mirror (optional)
	archive repository.EventArchive      // analytical event archive (optional)
	log     *slog.Logger
}

// NewLedgerService creates a LedgerService backed by the given store, cache
// and archive. Store, cache and archive may each be nil; a nil store makes
// the service purely in-memory, which the tests rely on.
//
// sweepInterval > 0 starts a background goroutine that periodically expires
// stale windows even when their players stop donating.
func NewLedgerService(store repository.LedgerPersistence, cache repository.SnapshotCache, archive repository.EventArchive, log *slog.Logger, sweepInterval time.Duration) (*LedgerService, error) {
	s := &LedgerService{
		ledger:  make(model.LedgerDocument),
		targets: model.TargetDocument{Targets: make(map[string]int64)},
		store:   store,
		cache:   cache,
		archive: archive,
		log:     log,
	}

	if store != nil {
		ledger, err := store.LoadLedger()
		if err != nil {
			return nil, fmt.Errorf("load ledger document: %w", err)
		}
		s.ledger = ledger

		targets, err := store.LoadTargets()
		if err != nil {
			return nil, fmt.Errorf("load targets document: %w", err)
		}
		if targets.Targets == nil {
			targets.Targets = make(map[string]int64)
		}
		s.targets = targets
	}

	if sweepInterval > 0 {
		go s.periodicSweep(sweepInterval)
	}

	return s, nil
}

func (s *LedgerService) periodicSweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		swept, err := s.SweepExpired(time.Now().UTC())
		if err != nil {
			s.log.Error("sweep failed", slog.String("error", err.Error()))
			continue
		}
		if swept > 0 {
			s.log.Info("expired windows swept", slog.Int("count", swept))
		}
	}
}

// Record appends one donation to both of the player's aggregates, creating
// them lazily on first donation. If the player's window has aged past
// WindowDuration the window is reset first, with the new donation as the sole
// member and its timestamp as the fresh anchor - so a read immediately after
// a post-expiry donation sees the new window even if no sweep has run yet.
//
// The mutation is rolled back and an error returned if the durable write
// fails; callers must not assume an unacknowledged donation is visible.
func (s *LedgerService) Record(ctx context.Context, guild, identity, name string, amount int64, now time.Time) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()

	g, guildExisted := s.ledger[guild]
	if !guildExisted {
		g = &model.GuildLedger{
			Weekly: make(map[string]*model.WindowAggregate),
			Totals: make(map[string]*model.TotalAggregate),
		}
		s.ledger[guild] = g
	}

	// Keep rollback state so a failed persist leaves no trace.
	prevWeekly := cloneWindow(g.Weekly[identity])
	prevTotal := cloneTotal(g.Totals[identity])
	prevOrderLen := len(g.Order)

	w, ok := g.Weekly[identity]
	if !ok {
		w = &model.WindowAggregate{Name: name, WeekStart: now}
		g.Weekly[identity] = w
	} else if now.Sub(w.WeekStart) >= WindowDuration {
		// Window expired: reset in place, anchored to this donation.
		w.Name = name
		w.Amount = 0
		w.Donations = nil
		w.WeekStart = now
	}

	t, ok := g.Totals[identity]
	if !ok {
		t = &model.TotalAggregate{Name: name}
		g.Totals[identity] = t
		g.Order = append(g.Order, identity)
	}

	ev := model.DonationEvent{Amount: amount, Timestamp: now}
	w.Name = name
	w.Amount += amount
	w.Donations = append(w.Donations, ev)
	t.Name = name
	t.Amount += amount
	t.Donations = append(t.Donations, ev)

	if s.store != nil {
		if err := s.store.SaveLedger(s.ledger); err != nil {
			// Roll back so readers never observe the unacknowledged donation.
			restoreAggregate(g.Weekly, identity, prevWeekly)
			restoreTotal(g.Totals, identity, prevTotal)
			g.Order = g.Order[:prevOrderLen]
			if !guildExisted {
				delete(s.ledger, guild)
			}
			s.mu.Unlock()
			return fmt.Errorf("persist donation: %w", err)
		}
	}

	snap := s.buildSnapshotLocked(guild, now)
	s.mu.Unlock()

	// Cache and archive mirrors are best-effort and never gate the ack.
	if s.cache != nil {
		if err := s.cache.SaveSnapshot(ctx, snap); err != nil {
			s.log.Warn("snapshot cache write failed", slog.String("guild", guild), slog.String("error", err.Error()))
		}
	}
	if s.archive != nil {
		row := &model.ArchivedDonation{Guild: guild, Identity: identity, Name: name, Amount: amount, Timestamp: now}
		if err := s.archive.ArchiveDonation(ctx, row); err != nil {
			s.log.Warn("event archive write failed", slog.String("guild", guild), slog.String("error", err.Error()))
		}
	}

	return nil
}

// SweepExpired removes every window whose anchor has aged past WindowDuration,
// across all guilds. The next donation of a swept player starts a fresh window
// anchored to that donation. Idempotent: a second call with no intervening
// donations changes nothing. Returns the number of windows swept.
func (s *LedgerService) SweepExpired(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for guild, g := range s.ledger {
		for identity, w := range g.Weekly {
			if now.Sub(w.WeekStart) >= WindowDuration {
				delete(g.Weekly, identity)
				swept++
				s.log.Info("weekly window expired",
					slog.String("guild", guild),
					slog.String("player", w.Name))
			}
		}
	}

	if swept == 0 {
		return 0, nil
	}

	if s.store != nil {
		if err := s.store.SaveLedger(s.ledger); err != nil {
			return swept, fmt.Errorf("persist sweep: %w", err)
		}
	}

	return swept, nil
}

// Snapshot returns a copy-on-read view of one guild's ledger. Guilds unknown
// to the in-memory ledger fall back to the snapshot cache before reporting an
// empty snapshot.
func (s *LedgerService) Snapshot(ctx context.Context, guild string) (*model.GuildSnapshot, error) {
	s.mu.RLock()
	_, known := s.ledger[guild]
	var snap *model.GuildSnapshot
	if known {
		snap = s.buildSnapshotLocked(guild, time.Now().UTC())
	}
	s.mu.RUnlock()

	if snap != nil {
		return snap, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetSnapshot(ctx, guild)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	return &model.GuildSnapshot{Guild: guild, TakenAt: time.Now().UTC()}, nil
}

// PlayerStats returns one player's standing, or nil if the player has never
// donated in this guild.
func (s *LedgerService) PlayerStats(ctx context.Context, guild, identity string) (*model.PlayerStanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.ledger[guild]
	if !ok {
		return nil, nil
	}
	t, ok := g.Totals[identity]
	if !ok {
		return nil, nil
	}

	standing := &model.PlayerStanding{
		Identity:    identity,
		Name:        t.Name,
		TotalAmount: t.Amount,
		TotalCount:  len(t.Donations),
	}
	if w, ok := g.Weekly[identity]; ok {
		standing.WeeklyAmount = w.Amount
		standing.WeeklyCount = len(w.Donations)
		standing.WeekStart = w.WeekStart
	}
	return standing, nil
}

// Guilds lists every guild with at least one recorded donation.
func (s *LedgerService) Guilds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	guilds := make([]string, 0, len(s.ledger))
	for guild := range s.ledger {
		guilds = append(guilds, guild)
	}
	return guilds
}

// SetTarget sets the guild's weekly donation target. Zero clears it.
func (s *LedgerService) SetTarget(guild string, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.targets.Targets[guild]
	s.targets.Targets[guild] = amount

	if s.store != nil {
		if err := s.store.SaveTargets(s.targets); err != nil {
			if had {
				s.targets.Targets[guild] = prev
			} else {
				delete(s.targets.Targets, guild)
			}
			return fmt.Errorf("persist target: %w", err)
		}
	}
	return nil
}

// Target returns the guild's weekly target, zero when unset.
func (s *LedgerService) Target(guild string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targets.Targets[guild]
}

// buildSnapshotLocked assembles a deep-copied snapshot of one guild.
// Callers must hold at least the read lock.
func (s *LedgerService) buildSnapshotLocked(guild string, now time.Time) *model.GuildSnapshot {
	snap := &model.GuildSnapshot{
		Guild:   guild,
		Target:  s.targets.Targets[guild],
		TakenAt: now,
	}

	g, ok := s.ledger[guild]
	if !ok {
		return snap
	}

	// Order preserves first-donation sequence, which is what makes
	// leaderboard ties deterministic downstream.
	for _, identity := range g.Order {
		t, ok := g.Totals[identity]
		if !ok {
			continue
		}
		standing := model.PlayerStanding{
			Identity:    identity,
			Name:        t.Name,
			TotalAmount: t.Amount,
			TotalCount:  len(t.Donations),
		}
		if w, ok := g.Weekly[identity]; ok {
			standing.WeeklyAmount = w.Amount
			standing.WeeklyCount = len(w.Donations)
			standing.WeekStart = w.WeekStart
		}
		snap.Players = append(snap.Players, standing)
		snap.WeeklySum += standing.WeeklyAmount
		snap.AllTimeSum += standing.TotalAmount
	}

	return snap
}

func cloneWindow(w *model.WindowAggregate) *model.WindowAggregate {
	if w == nil {
		return nil
	}
	c := *w
	c.Donations = append([]model.DonationEvent(nil), w.Donations...)
	return &c
}

func cloneTotal(t *model.TotalAggregate) *model.TotalAggregate {
	if t == nil {
		return nil
	}
	c := *t
	c.Donations = append([]model.DonationEvent(nil), t.Donations...)
	return &c
}

func restoreAggregate(m map[string]*model.WindowAggregate, identity string, prev *model.WindowAggregate) {
	if prev == nil {
		delete(m, identity)
		return
	}
	m[identity] = prev
}

func restoreTotal(m map[string]*model.TotalAggregate, identity string, prev *model.TotalAggregate) {
	if prev == nil {
		delete(m, identity)
		return
	}
	m[identity] = prev
}

// Ensure interface compliance
var _ useCases.DonationLedger = (*LedgerService)(nil)
