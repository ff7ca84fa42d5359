// Package draft partitions rated players into balanced teams using a snake
// draft with a randomized pick order each round.
package draft

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"league-tracker/internal/domain"
)

// Source yields uniform integers in [0, n). Injecting it keeps the draft
// deterministic under test; production code passes NewSource().
type Source interface {
	Intn(n int) int
}

// NewSource returns a time-seeded random source.
func NewSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Balance partitions players into numTeams teams. Callers must pass only
// available players; when there are fewer players than teams it fails with
// domain.ErrInsufficientPlayers carrying both counts.
//
// Players are stable-sorted descending by average (ties keep input order),
// then dealt one per team per round. Each round's pick order is an
// independent Fisher-Yates shuffle of the team indices, so no team gets
// first pick at every skill tier. The last round may be partial, leaving
// team sizes differing by at most one.
func Balance(players []domain.Player, numTeams int, src Source) (domain.TeamPartition, error) {
	if numTeams < 1 {
		return domain.TeamPartition{}, fmt.Errorf("%w: need at least 1 team, got %d", domain.ErrInvalidSelection, numTeams)
	}
	if len(players) < numTeams {
		return domain.TeamPartition{}, fmt.Errorf("%w: need %d, have %d", domain.ErrInsufficientPlayers, numTeams, len(players))
	}

	sorted := make([]domain.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Average > sorted[j].Average
	})

	teams := make([][]domain.Player, numTeams)
	for i := range teams {
		teams[i] = []domain.Player{}
	}

	rounds := (len(sorted) + numTeams - 1) / numTeams
	next := 0
	for round := 0; round < rounds; round++ {
		order := shuffledOrder(numTeams, src)
		for i := 0; i < numTeams && next < len(sorted); i++ {
			teams[order[i]] = append(teams[order[i]], sorted[next])
			next++
		}
	}

	return buildPartition(teams), nil
}

func shuffledOrder(n int, src Source) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func buildPartition(teams [][]domain.Player) domain.TeamPartition {
	p := domain.TeamPartition{
		Teams:    teams,
		Averages: make([]float64, len(teams)),
	}
	for i, team := range teams {
		p.Averages[i] = TeamAverage(team)
	}
	p.Highest = p.Averages[0]
	p.Lowest = p.Averages[0]
	for _, avg := range p.Averages[1:] {
		if avg > p.Highest {
			p.Highest = avg
		}
		if avg < p.Lowest {
			p.Lowest = avg
		}
	}
	p.Spread = domain.Round1(p.Highest - p.Lowest)
	return p
}

// TeamAverage is the mean of the members' averages rounded to one decimal,
// 0 for an empty team.
func TeamAverage(team []domain.Player) float64 {
	if len(team) == 0 {
		return 0
	}
	var sum float64
	for _, p := range team {
		sum += p.Average
	}
	return domain.Round1(sum / float64(len(team)))
}
