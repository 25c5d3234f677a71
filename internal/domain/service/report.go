package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/pkg/utils"
)

var medals = []string{"🥇", "🥈", "🥉"}

// ReportService derives ranked leaderboard views and formatted summaries
// from ledger snapshots. It is stateless.
type ReportService struct{}

func NewReportService() *ReportService {
	return &ReportService{}
}

// Leaderboard ranks the snapshot's players by weekly amount, descending.
// The sort is stable, so ties keep the snapshot's first-donation order.
// limit <= 0 means no limit.
func (r *ReportService) Leaderboard(snap *model.GuildSnapshot, limit int) []model.LeaderboardRow {
	players := append([]model.PlayerStanding(nil), snap.Players...)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].WeeklyAmount > players[j].WeeklyAmount
	})

	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}

	rows := make([]model.LeaderboardRow, len(players))
	for i, p := range players {
		rows[i] = model.LeaderboardRow{
			Rank:     rankMarker(i + 1),
			Standing: p,
			TimeLeft: windowTimeLeft(p, snap.TakenAt),
		}
	}
	return rows
}

// WeeklySummary renders the periodic clan report: every active donor ranked,
// clan-wide sums, and target progress when a target is set.
func (r *ReportService) WeeklySummary(snap *model.GuildSnapshot) string {
	rows := r.Leaderboard(snap, 0)

	active := 0
	for _, row := range rows {
		if row.Standing.WeeklyCount > 0 {
			active++
		}
	}
	if active == 0 {
		return "No donations recorded this week."
	}

	var b strings.Builder
	b.WriteString("**Weekly Donation Summary:**\n")

	for _, row := range rows {
		if row.Standing.WeeklyCount == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s **%s**: %s coins (%d donations) - %s left",
			row.Rank,
			row.Standing.Name,
			utils.FormatNumber(row.Standing.WeeklyAmount),
			row.Standing.WeeklyCount,
			utils.FormatDuration(row.TimeLeft))
	}

	fmt.Fprintf(&b, "\n\n**Total Clan Donations**: %s coins", utils.FormatNumber(snap.WeeklySum))
	fmt.Fprintf(&b, "\n**All-Time Total**: %s coins", utils.FormatNumber(snap.AllTimeSum))
	fmt.Fprintf(&b, "\n**Active Donors**: %d players", active)

	// A zero target means no target; never divide by it.
	if snap.Target > 0 {
		fmt.Fprintf(&b, "\n**Weekly Target**: %s / %s coins %s",
			utils.FormatNumber(snap.WeeklySum),
			utils.FormatNumber(snap.Target),
			utils.ProgressBar(snap.WeeklySum, snap.Target, 10))
	}

	return b.String()
}

// PlayerRank returns the player's position on the weekly leaderboard as an
// English ordinal ("1st", "4th"). ok is false when the player is not on the
// board.
func (r *ReportService) PlayerRank(snap *model.GuildSnapshot, identity string) (string, bool) {
	rows := r.Leaderboard(snap, 0)
	for i, row := range rows {
		if row.Standing.Identity == identity {
			return utils.Ordinal(i + 1), true
		}
	}
	return "", false
}

// rankMarker returns the distinguished marker for podium positions and a
// numeric rank afterwards.
func rankMarker(rank int) string {
	if rank >= 1 && rank <= len(medals) {
		return medals[rank-1]
	}
	return fmt.Sprintf("%d.", rank)
}

// windowTimeLeft is the remaining time in the player's rolling window,
// computed from the same continuous duration that drives window resets.
func windowTimeLeft(p model.PlayerStanding, now time.Time) time.Duration {
	if p.WeeklyCount == 0 || p.WeekStart.IsZero() {
		return 0
	}
	left := WindowDuration - now.Sub(p.WeekStart)
	if left < 0 {
		return 0
	}
	return left
}
