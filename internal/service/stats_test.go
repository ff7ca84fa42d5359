package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-tracker/internal/domain"
	"league-tracker/internal/service"
)

func recordedMatch(id int64, date time.Time, winners, losers []string) domain.Match {
	return domain.Match{
		ID:   id,
		Date: date,
		Teams: []domain.MatchTeam{
			{PlayerIDs: winners, Result: domain.ResultWin},
			{PlayerIDs: losers, Result: domain.ResultLoss},
		},
	}
}

func TestStatsServiceLeaderboard(t *testing.T) {
	today := domain.DayOf(time.Now())

	players := &fakePlayerStore{players: []domain.Player{
		ratedPlayer("a", 80, true),
		ratedPlayer("b", 70, true),
		ratedPlayer("idle", 60, true),
	}}
	matches := &fakeMatchStore{matches: []domain.Match{
		recordedMatch(1, today, []string{"a"}, []string{"b"}),
		recordedMatch(2, today.AddDate(0, 0, -30), []string{"b"}, []string{"a"}),
	}}

	svc := service.NewStatsService(players, matches, zerolog.Nop())

	entries, err := svc.Leaderboard(context.Background(), domain.FilterAll, domain.SortByWinRate)
	require.NoError(t, err)
	require.Len(t, entries, 2, "idle player excluded")
	assert.Equal(t, "a", entries[0].Player.ID)
	assert.Equal(t, 50.0, entries[0].WinRate)

	entries, err = svc.Leaderboard(context.Background(), domain.FilterWeek, domain.SortByWinRate)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 100.0, entries[0].WinRate)
	assert.Equal(t, "a", entries[0].Player.ID)
}

func TestStatsServicePlayerRecord(t *testing.T) {
	today := domain.DayOf(time.Now())

	players := &fakePlayerStore{players: []domain.Player{ratedPlayer("a", 80, true)}}
	matches := &fakeMatchStore{matches: []domain.Match{
		recordedMatch(1, today, []string{"a"}, []string{"b"}),
		recordedMatch(2, today.AddDate(0, 0, -2), []string{"b"}, []string{"a"}),
	}}

	svc := service.NewStatsService(players, matches, zerolog.Nop())

	record, err := svc.PlayerRecord(context.Background(), "a", domain.FilterToday)
	require.NoError(t, err)
	assert.Equal(t, 1, record.Wins)
	assert.Equal(t, 0, record.Losses)
	assert.Equal(t, 100.0, record.WinRate)

	_, err = svc.PlayerRecord(context.Background(), "ghost", domain.FilterAll)
	require.ErrorIs(t, err, domain.ErrPlayerNotFound)
}
