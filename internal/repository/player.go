package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"league-tracker/internal/domain"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

const playerColumns = `id, name, reflexes, setting, defense, spike, game_iq, average, available, is_icon, has_image, created_at, updated_at`

func scanPlayer(row interface{ Scan(...any) error }) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.Name, &p.Reflexes, &p.Setting, &p.Defense, &p.Spike,
		&p.GameIQ, &p.Average, &p.Available, &p.IsIcon, &p.HasImage, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", id, err)
	}

	history, err := r.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	p.History = history
	return &p, nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []domain.Player
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		index[p.ID] = len(players)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	histRows, err := r.db.QueryContext(ctx,
		`SELECT player_id, id, date, reflexes, setting, defense, spike, game_iq, average, reason
		 FROM rating_history ORDER BY player_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}
	defer histRows.Close()

	for histRows.Next() {
		var playerID string
		var s domain.RatingSnapshot
		if err := histRows.Scan(&playerID, &s.ID, &s.Date, &s.Reflexes, &s.Setting,
			&s.Defense, &s.Spike, &s.GameIQ, &s.Average, &s.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan rating history: %w", err)
		}
		if i, ok := index[playerID]; ok {
			players[i].History = append(players[i].History, s)
		}
	}
	if err := histRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}

	return players, nil
}

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertPlayer(ctx, tx, p); err != nil {
		return err
	}
	for seq, s := range p.History {
		if err := insertHistory(ctx, tx, p.ID, s, seq); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update rewrites the player row and appends the trailing `appended` history
// entries. Existing history rows are never touched.
func (r *PlayerRepository) Update(ctx context.Context, p *domain.Player, appended []domain.RatingSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE players SET name = ?, reflexes = ?, setting = ?, defense = ?, spike = ?,
		 game_iq = ?, average = ?, available = ?, is_icon = ?, has_image = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Reflexes, p.Setting, p.Defense, p.Spike, p.GameIQ, p.Average,
		p.Available, p.IsIcon, p.HasImage, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, p.ID)
	}

	base := len(p.History) - len(appended)
	for i, s := range appended {
		if err := insertHistory(ctx, tx, p.ID, s, base+i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PlayerRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET available = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, available, id)
	if err != nil {
		return fmt.Errorf("failed to set availability for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
	}
	return nil
}

// Delete removes the player; rating history cascades.
func (r *PlayerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
	}
	r.logger.Debug().Str("player_id", id).Msg("player deleted")
	return nil
}

func (r *PlayerRepository) loadHistory(ctx context.Context, playerID string) ([]domain.RatingSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, reflexes, setting, defense, spike, game_iq, average, reason
		 FROM rating_history WHERE player_id = ? ORDER BY seq`, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history for %s: %w", playerID, err)
	}
	defer rows.Close()

	var history []domain.RatingSnapshot
	for rows.Next() {
		var s domain.RatingSnapshot
		if err := rows.Scan(&s.ID, &s.Date, &s.Reflexes, &s.Setting, &s.Defense,
			&s.Spike, &s.GameIQ, &s.Average, &s.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan rating history: %w", err)
		}
		history = append(history, s)
	}
	return history, rows.Err()
}

func insertPlayer(ctx context.Context, tx *sql.Tx, p *domain.Player) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO players (`+playerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Reflexes, p.Setting, p.Defense, p.Spike, p.GameIQ,
		p.Average, p.Available, p.IsIcon, p.HasImage, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert player %s: %w", p.ID, err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, playerID string, s domain.RatingSnapshot, seq int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO rating_history (id, player_id, date, reflexes, setting, defense, spike, game_iq, average, reason, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, playerID, s.Date, s.Reflexes, s.Setting, s.Defense, s.Spike, s.GameIQ, s.Average, s.Reason, seq)
	if err != nil {
		return fmt.Errorf("failed to insert rating history for %s: %w", playerID, err)
	}
	return nil
}
