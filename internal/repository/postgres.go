package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

// Schema 数据表结构，手牌单独存放在 game_players.hand
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	id                 TEXT PRIMARY KEY,
	state              TEXT        NOT NULL,
	rules              JSONB       NOT NULL,
	board              JSONB       NOT NULL,
	pool               JSONB       NOT NULL,
	current_turn_index INTEGER     NOT NULL DEFAULT 0,
	winner             TEXT        NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS game_players (
	game_id    TEXT    NOT NULL REFERENCES games (id) ON DELETE CASCADE,
	player_id  TEXT    NOT NULL,
	seat_order INTEGER NOT NULL,
	turn_slot  INTEGER NOT NULL,
	entered    BOOLEAN NOT NULL DEFAULT FALSE,
	hand       JSONB,
	score      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (game_id, player_id)
);

CREATE INDEX IF NOT EXISTS idx_game_players_player_id ON game_players (player_id);
`

// GameRepository PostgreSQL 游戏仓库
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository 创建游戏仓库
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// EnsureSchema 创建数据表
func (r *GameRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, Schema)
	return err
}

// LoadGame 加载游戏，玩家手牌不在这里加载
func (r *GameRepository) LoadGame(ctx context.Context, id string) (*rummikub.Game, error) {
	query := `
		SELECT id, state, rules, board, pool, current_turn_index, winner, created_at, updated_at
		FROM games WHERE id = $1
	`

	var (
		rec                     gameRecord
		rules, board, poolTiles []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.State,
		&rules,
		&board,
		&poolTiles,
		&rec.CurrentTurnIndex,
		&rec.Winner,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(rules, &rec.Rules); err != nil {
		return nil, fmt.Errorf("decode rules of game %s: %w", id, err)
	}
	if err := json.Unmarshal(board, &rec.Board); err != nil {
		return nil, fmt.Errorf("decode board of game %s: %w", id, err)
	}
	if err := json.Unmarshal(poolTiles, &rec.Pool); err != nil {
		return nil, fmt.Errorf("decode pool of game %s: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT player_id, turn_slot, entered
		FROM game_players WHERE game_id = $1
		ORDER BY seat_order
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p playerRecord
		if err := rows.Scan(&p.PlayerID, &p.TurnSlot, &p.Entered); err != nil {
			return nil, err
		}
		rec.Players = append(rec.Players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rec.toGame(), nil
}

// SaveState 在一个事务里写入游戏、玩家元数据和 playerIDs 的手牌
func (r *GameRepository) SaveState(ctx context.Context, game *rummikub.Game, playerIDs []string) error {
	rec := newGameRecord(game)

	rules, err := json.Marshal(rec.Rules)
	if err != nil {
		return err
	}
	board, err := json.Marshal(rec.Board)
	if err != nil {
		return err
	}
	poolTiles, err := json.Marshal(rec.Pool)
	if err != nil {
		return err
	}
	hands, err := encodeHands(game, playerIDs)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO games (id, state, rules, board, pool, current_turn_index, winner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			rules = EXCLUDED.rules,
			board = EXCLUDED.board,
			pool = EXCLUDED.pool,
			current_turn_index = EXCLUDED.current_turn_index,
			winner = EXCLUDED.winner,
			updated_at = EXCLUDED.updated_at
	`,
		rec.ID,
		rec.State,
		rules,
		board,
		poolTiles,
		rec.CurrentTurnIndex,
		rec.Winner,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, p := range rec.Players {
		batch.Queue(`
			INSERT INTO game_players (game_id, player_id, seat_order, turn_slot, entered)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (game_id, player_id) DO UPDATE SET
				seat_order = EXCLUDED.seat_order,
				turn_slot = EXCLUDED.turn_slot,
				entered = EXCLUDED.entered
		`, rec.ID, p.PlayerID, i, p.TurnSlot, p.Entered)
	}
	for _, h := range hands {
		batch.Queue(
			`UPDATE game_players SET hand = $3, score = $4 WHERE game_id = $1 AND player_id = $2`,
			rec.ID, h.PlayerID, h.Raw, h.Score,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// LoadHand 加载手牌
func (r *GameRepository) LoadHand(ctx context.Context, gameID, playerID string) (*rummikub.Hand, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT hand FROM game_players WHERE game_id = $1 AND player_id = $2`,
		gameID, playerID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHandNotFound
		}
		return nil, err
	}
	if raw == nil {
		return nil, ErrHandNotFound
	}

	hand, err := DecodeHand(raw)
	if err != nil {
		return nil, err
	}
	if hand.OwnerID == "" {
		hand.OwnerID = playerID
	}
	return hand, nil
}

// ListGames 列出玩家参与的游戏，最近更新的在前
func (r *GameRepository) ListGames(ctx context.Context, playerID string) ([]GameSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.id, g.state, g.current_turn_index, g.winner, g.updated_at,
			(SELECT COUNT(*) FROM game_players c WHERE c.game_id = g.id)
		FROM games g
		JOIN game_players p ON p.game_id = g.id
		WHERE p.player_id = $1
		ORDER BY g.updated_at DESC, g.id
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]GameSummary, 0)
	for rows.Next() {
		var s GameSummary
		if err := rows.Scan(&s.ID, &s.State, &s.CurrentTurnIndex, &s.Winner, &s.UpdatedAt, &s.PlayerCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteGame 删除游戏，玩家记录级联删除
func (r *GameRepository) DeleteGame(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}
