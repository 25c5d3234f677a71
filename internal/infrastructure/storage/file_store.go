package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/repository"
)

const (
	donationsFile = "donations.json"
	playersFile   = "registered_players.json"
	targetsFile   = "weekly_target.json"
)

// LegacyGuildKey is the synthetic guild that single-guild legacy documents
// are wrapped under on load.
const LegacyGuildKey = "0"

// FileStore is the durable document store: three JSON files under a data
// directory. Loads are tolerant - a missing file is a fresh start, a corrupt
// file is logged and treated as empty, and legacy flat documents are wrapped
// under LegacyGuildKey transparently on every load. The on-disk shape only
// changes once a guild-keyed document is re-saved.
type FileStore struct {
	dir string
	log *slog.Logger
}

func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

// Ensure FileStore implements the LedgerPersistence interface
var _ repository.LedgerPersistence = (*FileStore)(nil)

func (s *FileStore) LoadLedger() (model.LedgerDocument, error) {
	raw, ok := s.read(donationsFile)
	if !ok {
		return make(model.LedgerDocument), nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		s.log.Warn("could not load donations data, starting fresh", slog.String("error", err.Error()))
		return make(model.LedgerDocument), nil
	}

	if _, legacy := keyed["weekly_donations"]; legacy && !hasGuildKey(keyed) {
		// Pre-multi-guild document: the whole file is one guild's ledger.
		s.log.Info("migrating legacy donation document to guild-keyed format")
		var g model.GuildLedger
		if err := json.Unmarshal(raw, &g); err != nil {
			s.log.Warn("could not migrate legacy donations data, starting fresh", slog.String("error", err.Error()))
			return make(model.LedgerDocument), nil
		}
		doc := model.LedgerDocument{LegacyGuildKey: &g}
		normalizeLedger(doc)
		return doc, nil
	}

	var doc model.LedgerDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("could not load donations data, starting fresh", slog.String("error", err.Error()))
		return make(model.LedgerDocument), nil
	}
	if doc == nil {
		doc = make(model.LedgerDocument)
	}
	normalizeLedger(doc)
	return doc, nil
}

func (s *FileStore) SaveLedger(doc model.LedgerDocument) error {
	return s.write(donationsFile, doc)
}

func (s *FileStore) LoadRoster() (model.RosterDocument, error) {
	raw, ok := s.read(playersFile)
	if !ok {
		return make(model.RosterDocument), nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		s.log.Warn("could not load registered players, starting fresh", slog.String("error", err.Error()))
		return make(model.RosterDocument), nil
	}

	if len(keyed) > 0 && !hasGuildKey(keyed) {
		// Legacy flat document: identity -> name, no guild level.
		s.log.Info("migrating legacy players document to guild-keyed format")
		var flat map[string]string
		if err := json.Unmarshal(raw, &flat); err != nil {
			s.log.Warn("could not migrate legacy players data, starting fresh", slog.String("error", err.Error()))
			return make(model.RosterDocument), nil
		}
		return model.RosterDocument{LegacyGuildKey: flat}, nil
	}

	var doc model.RosterDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("could not load registered players, starting fresh", slog.String("error", err.Error()))
		return make(model.RosterDocument), nil
	}
	if doc == nil {
		doc = make(model.RosterDocument)
	}
	return doc, nil
}

func (s *FileStore) SaveRoster(doc model.RosterDocument) error {
	return s.write(playersFile, doc)
}

func (s *FileStore) LoadTargets() (model.TargetDocument, error) {
	empty := model.TargetDocument{Targets: make(map[string]int64)}

	raw, ok := s.read(targetsFile)
	if !ok {
		return empty, nil
	}

	var doc model.TargetDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("could not load weekly targets, starting fresh", slog.String("error", err.Error()))
		return empty, nil
	}
	if doc.Targets == nil {
		doc.Targets = make(map[string]int64)
	}
	return doc, nil
}

func (s *FileStore) SaveTargets(doc model.TargetDocument) error {
	return s.write(targetsFile, doc)
}

// read returns the file contents, reporting ok=false when the file is absent.
func (s *FileStore) read(name string) ([]byte, bool) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("could not read document", slog.String("file", name), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return raw, true
}

// write marshals the document and replaces the file atomically via rename,
// so a crash mid-write never leaves a truncated document behind.
func (s *FileStore) write(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// hasGuildKey reports whether any top-level key looks like a guild snowflake:
// a numeric string longer than ten digits. Player identities in legacy
// documents were short or non-numeric.
func hasGuildKey(keyed map[string]json.RawMessage) bool {
	for k := range keyed {
		if len(k) > 10 && isDigits(k) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeLedger backfills nil maps and missing player order on freshly
// decoded documents, so downstream code can assume both unconditionally.
func normalizeLedger(doc model.LedgerDocument) {
	for _, g := range doc {
		if g == nil {
			continue
		}
		if g.Weekly == nil {
			g.Weekly = make(map[string]*model.WindowAggregate)
		}
		if g.Totals == nil {
			g.Totals = make(map[string]*model.TotalAggregate)
		}
		if len(g.Order) == 0 && len(g.Totals) > 0 {
			g.Order = orderFromTotals(g.Totals)
		}
	}
}

// orderFromTotals derives a deterministic player order for documents written
// before the order field existed: earliest first donation wins.
func orderFromTotals(totals map[string]*model.TotalAggregate) []string {
	type first struct {
		id string
		at int64
	}
	firsts := make([]first, 0, len(totals))
	for id, t := range totals {
		f := first{id: id}
		if len(t.Donations) > 0 {
			f.at = t.Donations[0].Timestamp.UnixNano()
		}
		firsts = append(firsts, f)
	}
	sort.Slice(firsts, func(i, j int) bool {
		if firsts[i].at != firsts[j].at {
			return firsts[i].at < firsts[j].at
		}
		return firsts[i].id < firsts[j].id
	})
	order := make([]string, len(firsts))
	for i, f := range firsts {
		order[i] = f.id
	}
	return order
}
