package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cusdScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS contract_events (
	sequence          BIGINT PRIMARY KEY,
	kind              TEXT NOT NULL,
	owner             TEXT NOT NULL,
	liquidator        TEXT,
	amount            NUMERIC(78, 0),
	total_debt        NUMERIC(78, 0),
	total_collateral  NUMERIC(78, 0),
	collateral_seized NUMERIC(78, 0),
	cr_after_bps      BIGINT,
	ingested_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS contract_events_owner_idx ON contract_events (owner, sequence DESC);
CREATE TABLE IF NOT EXISTS event_decode_failures (
	contract   TEXT NOT NULL,
	sequence   BIGINT NOT NULL,
	raw        TEXT NOT NULL,
	error      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (contract, sequence)
);
CREATE TABLE IF NOT EXISTS indexer_state (
	name       TEXT PRIMARY KEY,
	next_index BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for the event archive.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the archive tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutEventBatch upserts event records and decode failures in one batch.
func (s *Store) PutEventBatch(ctx context.Context, records []model.EventRecord, failures []model.DecodeError) error {
	if len(records) == 0 && len(failures) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO contract_events (
				sequence, kind, owner, liquidator, amount, total_debt, total_collateral,
				collateral_seized, cr_after_bps, ingested_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamptz, now()))
			ON CONFLICT (sequence)
			DO UPDATE SET
				kind = EXCLUDED.kind,
				owner = EXCLUDED.owner,
				liquidator = EXCLUDED.liquidator,
				amount = EXCLUDED.amount,
				total_debt = EXCLUDED.total_debt,
				total_collateral = EXCLUDED.total_collateral,
				collateral_seized = EXCLUDED.collateral_seized,
				cr_after_bps = EXCLUDED.cr_after_bps
		`,
			int64(rec.Sequence),
			string(rec.Kind),
			rec.Owner,
			nullable(rec.Liquidator),
			nullable(rec.Amount),
			nullable(rec.TotalDebt),
			nullable(rec.TotalCollateral),
			nullable(rec.CollateralSeized),
			int64(rec.CRAfterBps),
			nullable(rec.IngestedAt),
		)
	}
	for _, f := range failures {
		batch.Queue(`
			INSERT INTO event_decode_failures (contract, sequence, raw, error)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (contract, sequence)
			DO UPDATE SET raw = EXCLUDED.raw, error = EXCLUDED.error
		`, f.Contract, int64(f.Sequence), f.Raw, f.Error)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentEvents returns up to limit archived events, newest first, optionally
// restricted to those involving account.
func (s *Store) RecentEvents(ctx context.Context, account string, limit int) ([]model.EventRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
		SELECT sequence, kind, owner, COALESCE(liquidator, ''), COALESCE(amount::text, ''),
			COALESCE(total_debt::text, ''), COALESCE(total_collateral::text, ''),
			COALESCE(collateral_seized::text, ''), COALESCE(cr_after_bps, 0)
		FROM contract_events`
	args := []interface{}{}
	if account = strings.TrimSpace(account); account != "" {
		query += ` WHERE owner = $1 OR liquidator = $1`
		args = append(args, account)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY sequence DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.EventRecord{}
	for rows.Next() {
		var (
			rec  model.EventRecord
			seq  int64
			kind string
			cr   int64
		)
		if err := rows.Scan(&seq, &kind, &rec.Owner, &rec.Liquidator, &rec.Amount,
			&rec.TotalDebt, &rec.TotalCollateral, &rec.CollateralSeized, &cr); err != nil {
			return nil, err
		}
		rec.Sequence = uint64(seq)
		rec.Kind = model.EventKind(kind)
		rec.CRAfterBps = uint64(cr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LoadState returns the next event index to read for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var next int64
	row := s.pool.QueryRow(ctx, `SELECT next_index FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(next), true, nil
}

// SaveState upserts the next event index for a name.
func (s *Store) SaveState(ctx context.Context, name string, next uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, next_index, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET next_index = EXCLUDED.next_index, updated_at = now()
	`, name, int64(next))
	return err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
