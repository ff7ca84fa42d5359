// Package stats computes win/loss leaderboards from the match log.
package stats

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"league-tracker/internal/domain"
)

// PlayerStats holds one player's aggregated record within a time window.
type PlayerStats struct {
	Wins    int
	Losses  int
	Total   int
	WinRate float64
}

// FilterMatches keeps matches whose date falls within the window ending at
// now. Week is a trailing 7 days, month is a trailing calendar month
// (AddDate normalization applies at month ends, matching a plain
// set-month-minus-one), today is the local start of day.
func FilterMatches(matches []domain.Match, filter domain.TimeFilter, now time.Time) []domain.Match {
	if filter == domain.FilterAll {
		return matches
	}

	var cutoff time.Time
	switch filter {
	case domain.FilterToday:
		cutoff = domain.DayOf(now)
	case domain.FilterWeek:
		cutoff = now.AddDate(0, 0, -7)
	case domain.FilterMonth:
		cutoff = now.AddDate(0, -1, 0)
	}

	filtered := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if !m.Date.Before(cutoff) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Aggregate computes one player's record over the given matches. A match
// counts once per player; the player's team result decides win or loss.
func Aggregate(matches []domain.Match, playerID string) PlayerStats {
	var s PlayerStats
	for _, m := range matches {
		team, ok := teamOf(m, playerID)
		if !ok {
			continue
		}
		s.Total++
		if team.Result == domain.ResultWin {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	if s.Total > 0 {
		s.WinRate = domain.Round1(float64(s.Wins) / float64(s.Total) * 100)
	}
	return s
}

func teamOf(m domain.Match, playerID string) (domain.MatchTeam, bool) {
	for _, team := range m.Teams {
		for _, id := range team.PlayerIDs {
			if id == playerID {
				return team, true
			}
		}
	}
	return domain.MatchTeam{}, false
}

// Leaderboard ranks players by their record within the filtered window.
// Players with no matches in the window are excluded. The sort is stable and
// descending on the requested key, so tied players keep roster order.
//
// Matches referencing ids with no roster entry cannot contribute to anyone's
// record; they are reported as warnings rather than failing the computation.
func Leaderboard(matches []domain.Match, players []domain.Player, filter domain.TimeFilter, sortBy domain.SortKey, now time.Time, logger zerolog.Logger) []domain.LeaderboardEntry {
	windowed := FilterMatches(matches, filter, now)
	warnUnknownPlayers(windowed, players, logger)

	entries := make([]domain.LeaderboardEntry, 0, len(players))
	for _, p := range players {
		s := Aggregate(windowed, p.ID)
		if s.Total == 0 {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Player:  p,
			Wins:    s.Wins,
			Losses:  s.Losses,
			Total:   s.Total,
			WinRate: s.WinRate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		switch sortBy {
		case domain.SortByWins:
			return entries[i].Wins > entries[j].Wins
		case domain.SortByTotal:
			return entries[i].Total > entries[j].Total
		default:
			return entries[i].WinRate > entries[j].WinRate
		}
	})

	return entries
}

func warnUnknownPlayers(matches []domain.Match, players []domain.Player, logger zerolog.Logger) {
	known := make(map[string]struct{}, len(players))
	for _, p := range players {
		known[p.ID] = struct{}{}
	}
	for _, m := range matches {
		for _, team := range m.Teams {
			for _, id := range team.PlayerIDs {
				if _, ok := known[id]; !ok {
					logger.Warn().
						Int64("match_id", m.ID).
						Str("player_id", id).
						Msg("match references unknown player, skipping for that lookup")
				}
			}
		}
	}
}
