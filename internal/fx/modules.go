package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"league-tracker/internal/config"
	"league-tracker/internal/database"
	"league-tracker/internal/draft"
	"league-tracker/internal/logger"
	"league-tracker/internal/peer"
	"league-tracker/internal/repository"
	"league-tracker/internal/server"
	"league-tracker/internal/service"
)

func ProvidePlayerService(repo *repository.PlayerRepository, log zerolog.Logger) *service.PlayerService {
	return service.NewPlayerService(repo, log)
}

func ProvideMatchService(players *repository.PlayerRepository, matches *repository.MatchRepository, log zerolog.Logger) *service.MatchService {
	return service.NewMatchService(players, matches, draft.NewSource(), log)
}

func ProvideStatsService(players *repository.PlayerRepository, matches *repository.MatchRepository, log zerolog.Logger) *service.StatsService {
	return service.NewStatsService(players, matches, log)
}

func ProvideSnapshotService(players *repository.PlayerRepository, matches *repository.MatchRepository, snapshots *repository.SnapshotRepository, log zerolog.Logger) *service.SnapshotService {
	return service.NewSnapshotService(players, matches, snapshots, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewSnapshotRepository),
	// peer sync
	fx.Provide(peer.NewClient),
	// svc
	fx.Provide(ProvidePlayerService),
	fx.Provide(ProvideMatchService),
	fx.Provide(ProvideStatsService),
	fx.Provide(ProvideSnapshotService),
	// server
	fx.Provide(server.NewTrackerServer),
)
