// Package snapshot defines the export/import payload: the full dataset as
// exchanged by file export, file import and peer sync. Import is always a
// destructive replace of the local dataset.
package snapshot

import (
	"fmt"
	"time"

	"league-tracker/internal/domain"
)

const dateLayout = "2006-01-02"

type Payload struct {
	Players    []Player  `json:"players"`
	Matches    []Match   `json:"matches"`
	ExportDate time.Time `json:"exportDate"`
}

type Player struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Reflexes  int            `json:"reflexes"`
	Setting   int            `json:"setting"`
	Defense   int            `json:"defense"`
	Spike     int            `json:"spike"`
	GameIQ    int            `json:"gameIq"`
	Average   float64        `json:"average"`
	Available bool           `json:"available"`
	IsIcon    bool           `json:"isIcon"`
	HasImage  bool           `json:"hasImage"`
	History   []HistoryEntry `json:"history"`
}

type HistoryEntry struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Reflexes int     `json:"reflexes"`
	Setting  int     `json:"setting"`
	Defense  int     `json:"defense"`
	Spike    int     `json:"spike"`
	GameIQ   int     `json:"gameIq"`
	Average  float64 `json:"average"`
	Reason   string  `json:"reason"`
}

type Match struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Teams []Team `json:"teams"`
	Notes string `json:"notes"`
}

type Team struct {
	Players []string `json:"players"`
	Average float64  `json:"average"`
	Result  string   `json:"result"`
}

// FromDomain builds an export payload from the in-memory dataset.
func FromDomain(players []domain.Player, matches []domain.Match, exportDate time.Time) *Payload {
	p := &Payload{
		Players:    make([]Player, 0, len(players)),
		Matches:    make([]Match, 0, len(matches)),
		ExportDate: exportDate,
	}
	for _, pl := range players {
		history := make([]HistoryEntry, 0, len(pl.History))
		for _, s := range pl.History {
			history = append(history, HistoryEntry{
				ID:       s.ID,
				Date:     s.Date.Format(dateLayout),
				Reflexes: s.Reflexes,
				Setting:  s.Setting,
				Defense:  s.Defense,
				Spike:    s.Spike,
				GameIQ:   s.GameIQ,
				Average:  s.Average,
				Reason:   s.Reason,
			})
		}
		p.Players = append(p.Players, Player{
			ID:        pl.ID,
			Name:      pl.Name,
			Reflexes:  pl.Reflexes,
			Setting:   pl.Setting,
			Defense:   pl.Defense,
			Spike:     pl.Spike,
			GameIQ:    pl.GameIQ,
			Average:   pl.Average,
			Available: pl.Available,
			IsIcon:    pl.IsIcon,
			HasImage:  pl.HasImage,
			History:   history,
		})
	}
	for _, m := range matches {
		teams := make([]Team, 0, len(m.Teams))
		for _, t := range m.Teams {
			teams = append(teams, Team{
				Players: t.PlayerIDs,
				Average: t.Average,
				Result:  string(t.Result),
			})
		}
		p.Matches = append(p.Matches, Match{
			ID:    m.ID,
			Date:  m.Date.Format(dateLayout),
			Teams: teams,
			Notes: m.Notes,
		})
	}
	return p
}

// ToDomain validates the payload and converts it back to domain values.
// A payload without a players array is rejected; ids and field values
// round-trip unchanged.
func (p *Payload) ToDomain(now time.Time) ([]domain.Player, []domain.Match, error) {
	if p.Players == nil {
		return nil, nil, fmt.Errorf("%w: missing players", domain.ErrInvalidSnapshot)
	}

	players := make([]domain.Player, 0, len(p.Players))
	for _, pl := range p.Players {
		if pl.ID == "" {
			return nil, nil, fmt.Errorf("%w: player without id", domain.ErrInvalidSnapshot)
		}
		history := make([]domain.RatingSnapshot, 0, len(pl.History))
		for _, h := range pl.History {
			date, err := time.ParseInLocation(dateLayout, h.Date, time.Local)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: bad history date %q: %v", domain.ErrInvalidSnapshot, h.Date, err)
			}
			history = append(history, domain.RatingSnapshot{
				ID:       h.ID,
				Date:     date,
				Reflexes: h.Reflexes,
				Setting:  h.Setting,
				Defense:  h.Defense,
				Spike:    h.Spike,
				GameIQ:   h.GameIQ,
				Average:  h.Average,
				Reason:   h.Reason,
			})
		}
		players = append(players, domain.Player{
			ID:        pl.ID,
			Name:      pl.Name,
			Reflexes:  pl.Reflexes,
			Setting:   pl.Setting,
			Defense:   pl.Defense,
			Spike:     pl.Spike,
			GameIQ:    pl.GameIQ,
			Average:   pl.Average,
			Available: pl.Available,
			IsIcon:    pl.IsIcon,
			HasImage:  pl.HasImage,
			History:   history,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	matches := make([]domain.Match, 0, len(p.Matches))
	for _, m := range p.Matches {
		date, err := time.ParseInLocation(dateLayout, m.Date, time.Local)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: bad match date %q: %v", domain.ErrInvalidSnapshot, m.Date, err)
		}
		teams := make([]domain.MatchTeam, 0, len(m.Teams))
		for _, t := range m.Teams {
			teams = append(teams, domain.MatchTeam{
				PlayerIDs: t.Players,
				Average:   t.Average,
				Result:    domain.MatchResult(t.Result),
			})
		}
		matches = append(matches, domain.Match{
			ID:        m.ID,
			Date:      date,
			Teams:     teams,
			Notes:     m.Notes,
			CreatedAt: now,
		})
	}

	return players, matches, nil
}
