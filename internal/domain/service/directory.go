package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/repository"
)

const maxPlayerNameLength = 50

var ErrInvalidPlayerName = errors.New("player name is empty or too long")

// DirectoryService owns the per-guild mapping of player identity to display
// name. Entries are only ever created through Register - the ledger never
// auto-registers players.
type DirectoryService struct {
	mu     sync.RWMutex
	roster model.RosterDocument
	store  repository.LedgerPersistence
	log    *slog.Logger
}

// NewDirectoryService loads the roster document from the store. A nil store
// keeps the directory purely in-memory.
func NewDirectoryService(store repository.LedgerPersistence, log *slog.Logger) (*DirectoryService, error) {
	d := &DirectoryService{
		roster: make(model.RosterDocument),
		store:  store,
		log:    log,
	}

	if store != nil {
		roster, err := store.LoadRoster()
		if err != nil {
			return nil, fmt.Errorf("load roster document: %w", err)
		}
		d.roster = roster
	}

	return d, nil
}

// Register adds or replaces a player's directory entry. The display name is
// sanitized before storage and rejected when empty or over the length bound.
func (d *DirectoryService) Register(guild, identity, name string) error {
	name = SanitizePlayerName(name)
	if name == "" || len(name) > maxPlayerNameLength {
		return ErrInvalidPlayerName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.roster[guild]
	if !ok {
		g = make(map[string]string)
		d.roster[guild] = g
	}
	prev, had := g[identity]
	g[identity] = name

	if d.store != nil {
		if err := d.store.SaveRoster(d.roster); err != nil {
			if had {
				g[identity] = prev
			} else {
				delete(g, identity)
			}
			return fmt.Errorf("persist roster: %w", err)
		}
	}

	d.log.Info("player registered",
		slog.String("guild", guild),
		slog.String("player", name),
		slog.String("identity", identity))
	return nil
}

// Unregister removes a player's entry. Returns false when the player was not
// registered in this guild.
func (d *DirectoryService) Unregister(guild, identity string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.roster[guild]
	if !ok {
		return false, nil
	}
	name, ok := g[identity]
	if !ok {
		return false, nil
	}
	delete(g, identity)

	if d.store != nil {
		if err := d.store.SaveRoster(d.roster); err != nil {
			g[identity] = name
			return false, fmt.Errorf("persist roster: %w", err)
		}
	}

	d.log.Info("player unregistered",
		slog.String("guild", guild),
		slog.String("player", name),
		slog.String("identity", identity))
	return true, nil
}

// Roster returns a copy of the guild's identity -> display name mapping.
func (d *DirectoryService) Roster(guild string) map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]string, len(d.roster[guild]))
	for id, name := range d.roster[guild] {
		out[id] = name
	}
	return out
}

// IsRegistered reports whether the identity has a directory entry in the guild.
func (d *DirectoryService) IsRegistered(guild, identity string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.roster[guild][identity]
	return ok
}

// DisplayName returns the registered name for an identity.
func (d *DirectoryService) DisplayName(guild, identity string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	name, ok := d.roster[guild][identity]
	return name, ok
}

// FindByName looks a player up by display name, case-insensitively.
// The scan order is sorted by identity so lookups are deterministic.
func (d *DirectoryService) FindByName(guild, name string) (identity, displayName string, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.roster[guild]))
	for id := range d.roster[guild] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if strings.EqualFold(d.roster[guild][id], name) {
			return id, d.roster[guild][id], true
		}
	}
	return "", "", false
}

// SanitizePlayerName collapses whitespace, strips characters outside
// letters/digits/space/dash/underscore/dot and truncates to the length bound.
func SanitizePlayerName(name string) string {
	name = strings.TrimSpace(name)
	name = multiSpaceRE.ReplaceAllString(name, " ")
	name = decorationRE.ReplaceAllString(name, "")
	if len(name) > maxPlayerNameLength {
		name = strings.TrimSpace(name[:maxPlayerNameLength])
	}
	return name
}
