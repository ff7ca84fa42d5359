package domain

import (
	"math"
	"time"
)

type Player struct {
	ID        string
	Name      string
	Reflexes  int
	Setting   int
	Defense   int
	Spike     int
	GameIQ    int
	Average   float64
	Available bool
	IsIcon    bool
	HasImage  bool
	History   []RatingSnapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingSnapshot is one append-only history entry, recorded whenever a
// player's attributes change.
type RatingSnapshot struct {
	ID       string
	Date     time.Time
	Reflexes int
	Setting  int
	Defense  int
	Spike    int
	GameIQ   int
	Average  float64
	Reason   string
}

const (
	ReasonInitialRating = "Initial rating"
	ReasonStatsUpdated  = "Stats updated"
)

// ComputeAverage returns the mean of the five skill attributes rounded to
// one decimal.
func (p Player) ComputeAverage() float64 {
	return Round1(float64(p.Reflexes+p.Setting+p.Defense+p.Spike+p.GameIQ) / 5)
}

// Snapshot captures the player's current attributes as a history entry.
func (p Player) Snapshot(id string, date time.Time, reason string) RatingSnapshot {
	return RatingSnapshot{
		ID:       id,
		Date:     date,
		Reflexes: p.Reflexes,
		Setting:  p.Setting,
		Defense:  p.Defense,
		Spike:    p.Spike,
		GameIQ:   p.GameIQ,
		Average:  p.Average,
		Reason:   reason,
	}
}

// SameRating reports whether the snapshot carries the same attributes and
// average as the player's current values.
func (s RatingSnapshot) SameRating(p Player) bool {
	return s.Reflexes == p.Reflexes &&
		s.Setting == p.Setting &&
		s.Defense == p.Defense &&
		s.Spike == p.Spike &&
		s.GameIQ == p.GameIQ &&
		s.Average == p.Average
}

type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultLoss MatchResult = "loss"
)

type MatchTeam struct {
	PlayerIDs []string
	// Average is the team's rating snapshot taken at record time; it never
	// updates when a member's rating later changes.
	Average float64
	Result  MatchResult
}

type Match struct {
	ID        int64
	Date      time.Time // calendar day, local midnight
	Teams     []MatchTeam
	Notes     string
	CreatedAt time.Time
}

// TeamPartition is the ephemeral output of a draft: teams in draft order with
// their per-team averages and the balance summary shown to the user.
type TeamPartition struct {
	Teams    [][]Player
	Averages []float64
	Highest  float64
	Lowest   float64
	Spread   float64
}

type LeaderboardEntry struct {
	Player  Player
	Wins    int
	Losses  int
	Total   int
	WinRate float64
}

type TimeFilter string

const (
	FilterAll   TimeFilter = "all"
	FilterToday TimeFilter = "today"
	FilterWeek  TimeFilter = "week"
	FilterMonth TimeFilter = "month"
)

func ParseTimeFilter(s string) TimeFilter {
	switch TimeFilter(s) {
	case FilterToday, FilterWeek, FilterMonth:
		return TimeFilter(s)
	default:
		return FilterAll
	}
}

type SortKey string

const (
	SortByWinRate SortKey = "winRate"
	SortByWins    SortKey = "wins"
	SortByTotal   SortKey = "total"
)

func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortByWins, SortByTotal:
		return SortKey(s)
	default:
		return SortByWinRate
	}
}

type CardCategory string

const (
	CardIcon   CardCategory = "icon"
	CardWood   CardCategory = "wood"
	CardBronze CardCategory = "bronze"
	CardSilver CardCategory = "silver"
	CardGold   CardCategory = "gold"
)

// Card returns the presentational category for the player's rating. It has
// no effect on any numeric computation.
func (p Player) Card() CardCategory {
	if p.IsIcon {
		return CardIcon
	}
	switch {
	case p.Average < 60:
		return CardWood
	case p.Average < 70:
		return CardBronze
	case p.Average < 80:
		return CardSilver
	default:
		return CardGold
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DayOf truncates a time to local midnight.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
