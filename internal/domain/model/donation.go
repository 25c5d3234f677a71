package model

import "time"

// ChatMessage represents an inbound chat event from the upstream game bot.
// All string fields are untrusted free text.
type ChatMessage struct {
	ID               string
	Guild            string
	Channel          string
	Sender           string
	Content          string
	Mentions         []string
	EmbedTitle       string
	EmbedDescription string
	Timestamp        time.Time
}

// DonationEvent is a single recorded donation. Immutable once appended;
// events are only removed in bulk when a weekly window resets.
type DonationEvent struct {
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// WindowAggregate accumulates a player's donations inside their own rolling
// 7-day window. WeekStart anchors the window to the first donation after the
// last reset; it is not calendar-aligned.
type WindowAggregate struct {
	Name      string          `json:"name"`
	Amount    int64           `json:"amount"`
	Donations []DonationEvent `json:"donations"`
	WeekStart time.Time       `json:"week_start"`
}

// TotalAggregate accumulates a player's donations since forever. Never reset.
type TotalAggregate struct {
	Name      string          `json:"name"`
	Amount    int64           `json:"amount"`
	Donations []DonationEvent `json:"donations"`
}

// GuildLedger holds both aggregates for every player of one guild.
// Order preserves the sequence in which players first donated, so ranking
// ties resolve deterministically.
type GuildLedger struct {
	Weekly    map[string]*WindowAggregate `json:"weekly_donations"`
	Totals    map[string]*TotalAggregate  `json:"total_donations"`
	Order     []string                    `json:"player_order,omitempty"`
	LastReset *time.Time                  `json:"last_reset,omitempty"`
}

// LedgerDocument is the durable on-disk shape: guild ID -> ledger.
type LedgerDocument map[string]*GuildLedger

// RosterDocument maps guild ID -> player identity -> display name.
type RosterDocument map[string]map[string]string

// TargetDocument holds the optional weekly donation target per guild.
type TargetDocument struct {
	Targets map[string]int64 `json:"targets"`
}

// PlayerStanding is a copy-on-read view of one player's aggregates.
type PlayerStanding struct {
	Identity     string    `json:"identity"`
	Name         string    `json:"name"`
	WeeklyAmount int64     `json:"weekly_amount"`
	WeeklyCount  int       `json:"weekly_count"`
	TotalAmount  int64     `json:"total_amount"`
	TotalCount   int       `json:"total_count"`
	WeekStart    time.Time `json:"week_start"`
}

// GuildSnapshot is a consistent read of one guild's ledger, in player
// first-donation order.
type GuildSnapshot struct {
	Guild      string           `json:"guild"`
	Players    []PlayerStanding `json:"players"`
	WeeklySum  int64            `json:"weekly_sum"`
	AllTimeSum int64            `json:"all_time_sum"`
	Target     int64            `json:"target"`
	TakenAt    time.Time        `json:"taken_at"`
}

// LeaderboardRow is one ranked row derived from a GuildSnapshot.
type LeaderboardRow struct {
	Rank     string
	Standing PlayerStanding
	TimeLeft time.Duration
}

// ArchivedDonation is the analytical archive row for one donation.
type ArchivedDonation struct {
	Guild     string
	Identity  string
	Name      string
	Amount    int64
	Timestamp time.Time
}
