package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"stream-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RoundStore archives finished rounds as JSONB rows. There is deliberately no
// read path back into the engine; live round state never survives a restart.
type RoundStore struct {
	pool *pgxpool.Pool
}

func NewRoundStore(pool *pgxpool.Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

func (s *RoundStore) SaveRound(ctx context.Context, result domain.RoundResult) error {
	data, err := json.Marshal(result.Standings)
	if err != nil {
		return fmt.Errorf("marshal standings: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rounds (channel, username, questions, standings, finished_at) VALUES ($1, $2, $3, $4, $5)`,
		result.Channel, result.Username, result.Questions, data, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}
