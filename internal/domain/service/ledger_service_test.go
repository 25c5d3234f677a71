package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/service"
)

// failingStore implements LedgerPersistence with loads that succeed and
// saves that error once armed, to exercise the rollback paths.
type failingStore struct {
	failSaves bool
}

func (s *failingStore) LoadLedger() (model.LedgerDocument, error) {
	return make(model.LedgerDocument), nil
}

func (s *failingStore) SaveLedger(model.LedgerDocument) error {
	if s.failSaves {
		return errors.New("disk full")
	}
	return nil
}

func (s *failingStore) LoadRoster() (model.RosterDocument, error) {
	return make(model.RosterDocument), nil
}

func (s *failingStore) SaveRoster(model.RosterDocument) error {
	if s.failSaves {
		return errors.New("disk full")
	}
	return nil
}

func (s *failingStore) LoadTargets() (model.TargetDocument, error) {
	return model.TargetDocument{Targets: make(map[string]int64)}, nil
}

func (s *failingStore) SaveTargets(model.TargetDocument) error {
	if s.failSaves {
		return errors.New("disk full")
	}
	return nil
}

func newTestLedger(t *testing.T) *service.LedgerService {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger, err := service.NewLedgerService(nil, nil, nil, log, 0)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	return ledger
}

func TestLedgerRecordAndStats(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	now := time.Now().UTC()

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, now); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}
	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 250, now.Add(time.Hour)); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	standing, err := ledger.PlayerStats(ctx, "guild1", "111")
	if err != nil {
		t.Fatalf("failed to get player stats: %v", err)
	}
	if standing == nil {
		t.Fatal("expected standing for registered donor")
	}
	if standing.WeeklyAmount != 350 {
		t.Errorf("expected weekly amount 350, got %d", standing.WeeklyAmount)
	}
	if standing.WeeklyCount != 2 {
		t.Errorf("expected weekly count 2, got %d", standing.WeeklyCount)
	}
	if standing.TotalAmount != 350 {
		t.Errorf("expected total amount 350, got %d", standing.TotalAmount)
	}
	if !standing.WeekStart.Equal(now) {
		t.Errorf("expected window anchored to first donation %v, got %v", now, standing.WeekStart)
	}
}

func TestLedgerRejectsNegativeAmount(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", -5, time.Now().UTC())
	if err != service.ErrNegativeAmount {
		t.Errorf("expected ErrNegativeAmount, got %v", err)
	}

	standing, _ := ledger.PlayerStats(ctx, "guild1", "111")
	if standing != nil {
		t.Error("rejected donation must leave no trace")
	}
}

func TestLedgerWindowJoinsBeforeExpiry(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	anchor := time.Now().UTC()

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, anchor); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}
	// Just inside the window: joins the existing one.
	inside := anchor.Add(service.WindowDuration - time.Hour)
	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 50, inside); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	standing, _ := ledger.PlayerStats(ctx, "guild1", "111")
	if standing.WeeklyAmount != 150 {
		t.Errorf("expected weekly amount 150, got %d", standing.WeeklyAmount)
	}
	if !standing.WeekStart.Equal(anchor) {
		t.Errorf("expected anchor unchanged at %v, got %v", anchor, standing.WeekStart)
	}
}

func TestLedgerWindowResetsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	anchor := time.Now().UTC()

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, anchor); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}
	// Exactly at expiry: the window resets with this donation as sole member.
	after := anchor.Add(service.WindowDuration)
	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 30, after); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	standing, _ := ledger.PlayerStats(ctx, "guild1", "111")
	if standing.WeeklyAmount != 30 {
		t.Errorf("expected fresh window amount 30, got %d", standing.WeeklyAmount)
	}
	if standing.WeeklyCount != 1 {
		t.Errorf("expected fresh window count 1, got %d", standing.WeeklyCount)
	}
	if !standing.WeekStart.Equal(after) {
		t.Errorf("expected new anchor %v, got %v", after, standing.WeekStart)
	}
	// The all-time total is never reset.
	if standing.TotalAmount != 130 {
		t.Errorf("expected total amount 130, got %d", standing.TotalAmount)
	}
	if standing.TotalCount != 2 {
		t.Errorf("expected total count 2, got %d", standing.TotalCount)
	}
}

func TestLedgerSweepExpired(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	anchor := time.Now().UTC()

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, anchor); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}
	if err := ledger.Record(ctx, "guild1", "222", "DragonFist", 200, anchor.Add(6*24*time.Hour)); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	// Only ShadowBlade's window has aged past the duration.
	swept, err := ledger.SweepExpired(anchor.Add(service.WindowDuration))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if swept != 1 {
		t.Errorf("expected 1 swept window, got %d", swept)
	}

	standing, _ := ledger.PlayerStats(ctx, "guild1", "111")
	if standing.WeeklyAmount != 0 || standing.WeeklyCount != 0 {
		t.Errorf("expected swept player's weekly aggregate to be empty, got %d/%d", standing.WeeklyAmount, standing.WeeklyCount)
	}
	if standing.TotalAmount != 100 {
		t.Errorf("expected total untouched at 100, got %d", standing.TotalAmount)
	}

	other, _ := ledger.PlayerStats(ctx, "guild1", "222")
	if other.WeeklyAmount != 200 {
		t.Errorf("expected unexpired window untouched at 200, got %d", other.WeeklyAmount)
	}

	// Idempotent: nothing left to sweep.
	swept, err = ledger.SweepExpired(anchor.Add(service.WindowDuration))
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if swept != 0 {
		t.Errorf("expected second sweep to find nothing, got %d", swept)
	}
}

func TestLedgerDonationAfterSweepStartsFreshWindow(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	anchor := time.Now().UTC()

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, anchor); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}
	if _, err := ledger.SweepExpired(anchor.Add(service.WindowDuration)); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	later := anchor.Add(service.WindowDuration + 2*time.Hour)
	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 40, later); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	standing, _ := ledger.PlayerStats(ctx, "guild1", "111")
	if standing.WeeklyAmount != 40 || standing.WeeklyCount != 1 {
		t.Errorf("expected fresh window 40/1, got %d/%d", standing.WeeklyAmount, standing.WeeklyCount)
	}
	if !standing.WeekStart.Equal(later) {
		t.Errorf("expected new anchor %v, got %v", later, standing.WeekStart)
	}
}

func TestLedgerRecordRollsBackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger, err := service.NewLedgerService(store, nil, nil, log, 0)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	now := time.Now().UTC()

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, now); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	store.failSaves = true

	// Failed persist of a follow-up donation for an existing player.
	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 50, now.Add(time.Hour)); err == nil {
		t.Fatal("expected persist failure to propagate")
	}
	standing, _ := ledger.PlayerStats(ctx, "guild1", "111")
	if standing.WeeklyAmount != 100 || standing.WeeklyCount != 1 {
		t.Errorf("expected weekly aggregate rolled back to 100/1, got %d/%d", standing.WeeklyAmount, standing.WeeklyCount)
	}
	if standing.TotalAmount != 100 || standing.TotalCount != 1 {
		t.Errorf("expected total rolled back to 100/1, got %d/%d", standing.TotalAmount, standing.TotalCount)
	}

	// Failed persist of a brand-new player: aggregates and order entry gone.
	if err := ledger.Record(ctx, "guild1", "222", "DragonFist", 75, now.Add(time.Hour)); err == nil {
		t.Fatal("expected persist failure to propagate")
	}
	if standing, _ := ledger.PlayerStats(ctx, "guild1", "222"); standing != nil {
		t.Errorf("expected no trace of the unacknowledged player, got %+v", standing)
	}
	snap, _ := ledger.Snapshot(ctx, "guild1")
	if len(snap.Players) != 1 {
		t.Errorf("expected snapshot to hold 1 player after rollback, got %d", len(snap.Players))
	}
	if snap.WeeklySum != 100 {
		t.Errorf("expected weekly sum rolled back to 100, got %d", snap.WeeklySum)
	}

	// Failed persist of a brand-new guild: the guild itself must vanish.
	if err := ledger.Record(ctx, "guild2", "333", "MoonArcher", 10, now); err == nil {
		t.Fatal("expected persist failure to propagate")
	}
	for _, guild := range ledger.Guilds() {
		if guild == "guild2" {
			t.Error("expected the unacknowledged guild to be removed")
		}
	}

	// Recovered store: recording works again.
	store.failSaves = false
	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 50, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("expected recovery after store heals: %v", err)
	}
	standing, _ = ledger.PlayerStats(ctx, "guild1", "111")
	if standing.WeeklyAmount != 150 {
		t.Errorf("expected weekly amount 150 after recovery, got %d", standing.WeeklyAmount)
	}
}

func TestLedgerSetTargetRollsBackOnPersistFailure(t *testing.T) {
	store := &failingStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger, err := service.NewLedgerService(store, nil, nil, log, 0)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}

	if err := ledger.SetTarget("guild1", 5000); err != nil {
		t.Fatalf("failed to set target: %v", err)
	}

	store.failSaves = true
	if err := ledger.SetTarget("guild1", 9000); err == nil {
		t.Fatal("expected persist failure to propagate")
	}
	if ledger.Target("guild1") != 5000 {
		t.Errorf("expected target rolled back to 5000, got %d", ledger.Target("guild1"))
	}
	if err := ledger.SetTarget("guild2", 100); err == nil {
		t.Fatal("expected persist failure to propagate")
	}
	if ledger.Target("guild2") != 0 {
		t.Errorf("expected fresh target removed on rollback, got %d", ledger.Target("guild2"))
	}
}

func TestLedgerSnapshotPreservesFirstDonationOrder(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	now := time.Now().UTC()

	// D donates twice; the order records the first donation only.
	donors := []struct {
		identity string
		name     string
		amount   int64
	}{
		{"1", "A", 50},
		{"2", "B", 200},
		{"3", "C", 200},
		{"4", "D", 10},
	}
	for i, d := range donors {
		if err := ledger.Record(ctx, "guild1", d.identity, d.name, d.amount, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("failed to record donation: %v", err)
		}
	}
	if err := ledger.Record(ctx, "guild1", "4", "D", 5, now.Add(time.Hour)); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	snap, err := ledger.Snapshot(ctx, "guild1")
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}
	if len(snap.Players) != 4 {
		t.Fatalf("expected 4 players, got %d", len(snap.Players))
	}
	for i, want := range []string{"A", "B", "C", "D"} {
		if snap.Players[i].Name != want {
			t.Errorf("expected player %d to be %s, got %s", i, want, snap.Players[i].Name)
		}
	}
	if snap.WeeklySum != 465 {
		t.Errorf("expected weekly sum 465, got %d", snap.WeeklySum)
	}
	if snap.AllTimeSum != 465 {
		t.Errorf("expected all-time sum 465, got %d", snap.AllTimeSum)
	}
}

func TestLedgerSnapshotUnknownGuildIsEmpty(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	snap, err := ledger.Snapshot(ctx, "nowhere")
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}
	if len(snap.Players) != 0 || snap.WeeklySum != 0 {
		t.Errorf("expected empty snapshot, got %d players, sum %d", len(snap.Players), snap.WeeklySum)
	}
}

func TestLedgerGuildsAreIsolated(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	now := time.Now().UTC()

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, now); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}
	if err := ledger.Record(ctx, "guild2", "111", "ShadowBlade", 999, now); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}

	one, _ := ledger.PlayerStats(ctx, "guild1", "111")
	two, _ := ledger.PlayerStats(ctx, "guild2", "111")
	if one.TotalAmount != 100 || two.TotalAmount != 999 {
		t.Errorf("expected per-guild isolation, got %d and %d", one.TotalAmount, two.TotalAmount)
	}
}

func TestLedgerTarget(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)

	if ledger.Target("guild1") != 0 {
		t.Error("expected zero target when unset")
	}
	if err := ledger.SetTarget("guild1", 10000); err != nil {
		t.Fatalf("failed to set target: %v", err)
	}
	if ledger.Target("guild1") != 10000 {
		t.Errorf("expected target 10000, got %d", ledger.Target("guild1"))
	}
	if err := ledger.SetTarget("guild1", -1); err != service.ErrNegativeAmount {
		t.Errorf("expected ErrNegativeAmount, got %v", err)
	}

	if err := ledger.Record(ctx, "guild1", "111", "ShadowBlade", 100, time.Now().UTC()); err != nil {
		t.Fatalf("failed to record donation: %v", err)
	}
	snap, _ := ledger.Snapshot(ctx, "guild1")
	if snap.Target != 10000 {
		t.Errorf("expected snapshot to carry target 10000, got %d", snap.Target)
	}
}
