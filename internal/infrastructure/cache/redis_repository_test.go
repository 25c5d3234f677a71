package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/Insanely-69/CelestialSword2/config"
	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/infrastructure/cache"
)

func TestRedisRepository(t *testing.T) {
	t.Skip("Skipping Redis test - requires live Redis instance")

	// Load test config
	cfg := config.LoadConfig()

	// Initialize repository
	repo := cache.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Create test snapshot
	ctx := context.Background()
	snap := &model.GuildSnapshot{
		Guild: "test-guild",
		Players: []model.PlayerStanding{
			{Identity: "111", Name: "ShadowBlade", WeeklyAmount: 1000, WeeklyCount: 3, TotalAmount: 5000, TotalCount: 12},
		},
		WeeklySum:  1000,
		AllTimeSum: 5000,
		TakenAt:    time.Now().UTC(),
	}

	// Test SaveSnapshot
	err := repo.SaveSnapshot(ctx, snap)
	if err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	// Test GetSnapshot
	retrieved, err := repo.GetSnapshot(ctx, "test-guild")
	if err != nil {
		t.Fatalf("Failed to get snapshot: %v", err)
	}

	if retrieved == nil {
		t.Fatal("Retrieved snapshot is nil")
	}

	if retrieved.Guild != snap.Guild {
		t.Errorf("Expected guild %s, got %s", snap.Guild, retrieved.Guild)
	}

	if retrieved.WeeklySum != snap.WeeklySum {
		t.Errorf("Expected WeeklySum %d, got %d", snap.WeeklySum, retrieved.WeeklySum)
	}

	// Test GetAllSnapshots
	all, err := repo.GetAllSnapshots(ctx)
	if err != nil {
		t.Fatalf("Failed to get all snapshots: %v", err)
	}

	if len(all) < 1 {
		t.Error("Expected at least one snapshot entry")
	}

	// Test cache miss
	missing, err := repo.GetSnapshot(ctx, "no-such-guild")
	if err != nil {
		t.Fatalf("Cache miss must not error: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil snapshot for unknown guild")
	}
}
