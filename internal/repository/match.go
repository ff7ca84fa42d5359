package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"league-tracker/internal/domain"
)

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: sqlDB, logger: logger}
}

// Insert persists a new match atomically and assigns its id inside the
// transaction: the millisecond timestamp, bumped past the current maximum so
// two recordings in the same millisecond (or a clock step backwards) can
// never collide. Matches are append-only; nothing here updates.
func (r *MatchRepository) Insert(ctx context.Context, m *domain.Match) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxID int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM matches`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to read max match id: %w", err)
	}

	id := time.Now().UnixMilli()
	if id <= maxID {
		id = maxID + 1
	}

	if err := insertMatch(ctx, tx, id, m); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit match: %w", err)
	}

	r.logger.Info().Int64("match_id", id).Int("teams", len(m.Teams)).Msg("match recorded")
	return id, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, date, notes, created_at FROM matches ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	index := make(map[int64]int)
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.Date, &m.Notes, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		index[m.ID] = len(matches)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	teamRows, err := r.db.QueryContext(ctx,
		`SELECT match_id, team_idx, average, result FROM match_teams ORDER BY match_id, team_idx`)
	if err != nil {
		return nil, fmt.Errorf("failed to load match teams: %w", err)
	}
	defer teamRows.Close()

	for teamRows.Next() {
		var matchID int64
		var teamIdx int
		var team domain.MatchTeam
		if err := teamRows.Scan(&matchID, &teamIdx, &team.Average, &team.Result); err != nil {
			return nil, fmt.Errorf("failed to scan match team: %w", err)
		}
		if i, ok := index[matchID]; ok {
			matches[i].Teams = append(matches[i].Teams, team)
		}
	}
	if err := teamRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load match teams: %w", err)
	}

	playerRows, err := r.db.QueryContext(ctx,
		`SELECT match_id, team_idx, player_id FROM match_team_players ORDER BY match_id, team_idx, slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to load match players: %w", err)
	}
	defer playerRows.Close()

	for playerRows.Next() {
		var matchID int64
		var teamIdx int
		var playerID string
		if err := playerRows.Scan(&matchID, &teamIdx, &playerID); err != nil {
			return nil, fmt.Errorf("failed to scan match player: %w", err)
		}
		if i, ok := index[matchID]; ok && teamIdx < len(matches[i].Teams) {
			team := &matches[i].Teams[teamIdx]
			team.PlayerIDs = append(team.PlayerIDs, playerID)
		}
	}
	if err := playerRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load match players: %w", err)
	}

	return matches, nil
}

func insertMatch(ctx context.Context, tx *sql.Tx, id int64, m *domain.Match) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches (id, date, notes, created_at) VALUES (?, ?, ?, ?)`,
		id, m.Date, m.Notes, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert match %d: %w", id, err)
	}

	for teamIdx, team := range m.Teams {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_teams (match_id, team_idx, average, result) VALUES (?, ?, ?, ?)`,
			id, teamIdx, team.Average, team.Result); err != nil {
			return fmt.Errorf("failed to insert team %d of match %d: %w", teamIdx, id, err)
		}
		for slot, playerID := range team.PlayerIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO match_team_players (match_id, team_idx, slot, player_id) VALUES (?, ?, ?, ?)`,
				id, teamIdx, slot, playerID); err != nil {
				return fmt.Errorf("failed to insert player %s into match %d: %w", playerID, id, err)
			}
		}
	}
	return nil
}
