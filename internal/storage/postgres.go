package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/vetddx/internal/model"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vetddx_cases (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	model      TEXT NOT NULL,
	case_data  JSONB NOT NULL,
	replies    JSONB NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS vetddx_cases_created_at_idx ON vetddx_cases (created_at DESC)`,
}

type PostgresStore struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool and verifies it with a short ping.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &PostgresStore{Pool: pool}, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *PostgresStore) Save(ctx context.Context, rec *model.CaseRecord) error {
	prepare(rec)
	caseJSON, err := json.Marshal(rec.Case)
	if err != nil {
		return fmt.Errorf("encode case: %w", err)
	}
	repliesJSON, err := json.Marshal(rec.Replies)
	if err != nil {
		return fmt.Errorf("encode replies: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO vetddx_cases (id, created_at, model, case_data, replies)
VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)
ON CONFLICT (id) DO UPDATE SET model = EXCLUDED.model, case_data = EXCLUDED.case_data, replies = EXCLUDED.replies`,
		rec.ID, rec.CreatedAt, rec.Selector, string(caseJSON), string(repliesJSON))
	if err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.CaseRecord, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, created_at, model, case_data, replies FROM vetddx_cases WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CaseRecord{}, ErrNotFound
	}
	if err != nil {
		return model.CaseRecord{}, fmt.Errorf("get case: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]model.CaseRecord, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, created_at, model, case_data, replies FROM vetddx_cases ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := []model.CaseRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (model.CaseRecord, error) {
	var (
		rec         model.CaseRecord
		caseJSON    []byte
		repliesJSON []byte
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Selector, &caseJSON, &repliesJSON); err != nil {
		return model.CaseRecord{}, err
	}
	if err := json.Unmarshal(caseJSON, &rec.Case); err != nil {
		return model.CaseRecord{}, fmt.Errorf("decode case: %w", err)
	}
	if err := json.Unmarshal(repliesJSON, &rec.Replies); err != nil {
		return model.CaseRecord{}, fmt.Errorf("decode replies: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
