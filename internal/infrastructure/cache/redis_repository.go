package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/repository"
)

// RedisRepository implements the SnapshotCache interface using Redis as the
// backend. Guild snapshots are stored as JSON values under ledger:<guild>.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(addr, password string, db int) *RedisRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: client}
}

// Ensure RedisRepository implements the SnapshotCache interface
var _ repository.SnapshotCache = (*RedisRepository)(nil)

func snapshotKey(guild string) string {
	return fmt.Sprintf("ledger:%s", guild)
}

func (r *RedisRepository) SaveSnapshot(ctx context.Context, snap *model.GuildSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return r.client.Set(ctx, snapshotKey(snap.Guild), data, 0).Err()
}

func (r *RedisRepository) GetSnapshot(ctx context.Context, guild string) (*model.GuildSnapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey(guild)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Guild not cached
		}
		return nil, err
	}

	var snap model.GuildSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

func (r *RedisRepository) GetAllSnapshots(ctx context.Context) ([]*model.GuildSnapshot, error) {
	keys, err := r.client.Keys(ctx, "ledger:*").Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.GuildSnapshot{}, nil
	}

	// Get all values in a pipeline for efficiency
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))

	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}

	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, err
	}

	result := make([]*model.GuildSnapshot, 0, len(keys))
	for _, cmd := range cmds {
		if cmd.Err() != nil && cmd.Err() != redis.Nil {
			continue // Skip failed keys
		}

		data, err := cmd.Result()
		if err != nil {
			continue
		}

		var snap model.GuildSnapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			continue // Skip malformed data
		}

		result = append(result, &snap)
	}

	return result, nil
}
