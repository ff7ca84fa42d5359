package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"league-tracker/internal/domain"
)

// SnapshotRepository replaces the whole dataset in one transaction. Import
// is destructive-replace, never merge, and can never leave the database
// partially replaced.
type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: sqlDB, logger: logger}
}

func (r *SnapshotRepository) ReplaceAll(ctx context.Context, players []domain.Player, matches []domain.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"match_team_players", "match_teams", "matches", "rating_history", "players"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i := range players {
		p := &players[i]
		if err := insertPlayer(ctx, tx, p); err != nil {
			return err
		}
		for seq, s := range p.History {
			if err := insertHistory(ctx, tx, p.ID, s, seq); err != nil {
				return err
			}
		}
	}

	for i := range matches {
		m := &matches[i]
		if err := insertMatch(ctx, tx, m.ID, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot import: %w", err)
	}

	r.logger.Info().
		Int("players", len(players)).
		Int("matches", len(matches)).
		Msg("dataset replaced from snapshot")
	return nil
}
