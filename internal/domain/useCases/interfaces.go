package useCases

import (
	"context"
	"net/http"
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
)

// DonationLedger defines the interface for recording and querying donations.
type DonationLedger interface {
	Record(ctx context.Context, guild, identity, name string, amount int64, now time.Time) error
	SweepExpired(now time.Time) (int, error)
	Snapshot(ctx context.Context, guild string) (*model.GuildSnapshot, error)
	PlayerStats(ctx context.Context, guild, identity string) (*model.PlayerStanding, error)
}

// Broadcaster defines an interface for pushing updates to WebSocket/API layers.
type Broadcaster interface {
	BroadcastLeaderboard(snap *model.GuildSnapshot)
	Handler() func(http.ResponseWriter, *http.Request)
}
