// Package repository defines all the repository interfaces used by domain services
// Following the dependency inversion principle, domain logic depends on these interfaces,
// and infrastructure implementations provide concrete implementations
package repository

import (
	"context"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
)

// SnapshotCache defines the interface for caching guild ledger snapshots
// This is used for high-performance, near-memory storage
// Implementations should prioritize speed over durability
type SnapshotCache interface {
	// SaveSnapshot stores a guild snapshot in the cache
	SaveSnapshot(ctx context.Context, snap *model.GuildSnapshot) error

	// GetSnapshot retrieves the snapshot for a specific guild from the cache
	GetSnapshot(ctx context.Context, guild string) (*model.GuildSnapshot, error)

	// GetAllSnapshots retrieves all cached guild snapshots
	GetAllSnapshots(ctx context.Context) ([]*model.GuildSnapshot, error)
}

// LedgerPersistence defines the interface for the durable document store.
// A mutation is not acknowledged to its caller until the matching Save call
// has returned. Loads must tolerate missing files (fresh start), corrupt
// files (empty store plus a warning) and legacy single-guild documents
// (wrapped under a synthetic default guild).
type LedgerPersistence interface {
	LoadLedger() (model.LedgerDocument, error)
	SaveLedger(doc model.LedgerDocument) error

	LoadRoster() (model.RosterDocument, error)
	SaveRoster(doc model.RosterDocument) error

	LoadTargets() (model.TargetDocument, error)
	SaveTargets(doc model.TargetDocument) error
}

// EventArchive defines the interface for the analytical donation archive.
// This is optional infrastructure: writes are best-effort and never gate
// the acknowledgement of a recorded donation.
type EventArchive interface {
	// ArchiveDonation persists a single donation row for later analysis
	ArchiveDonation(ctx context.Context, row *model.ArchivedDonation) error

	// DonationsSince retrieves archived donations after the given unix timestamp
	DonationsSince(ctx context.Context, since int64) ([]*model.ArchivedDonation, error)
}
