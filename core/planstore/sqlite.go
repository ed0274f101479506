package planstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/drplan/core/model"
)

// SQLiteStore persists plans and signals as JSON records indexed by status
// and creation time.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    status TEXT NOT NULL,
    strategy TEXT NOT NULL,
    record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS plans_status ON plans(status, created_at);
CREATE TABLE IF NOT EXISTS signals (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    status TEXT NOT NULL,
    record TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS signals_plan ON signals(plan_id);`

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SavePlan(ctx context.Context, p model.DRPlan) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO plans (id, created_at, status, strategy, record)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            record = excluded.record`,
		p.ID, p.CreatedAt.UnixNano(), string(p.Status), string(p.Strategy), string(b))
	return err
}

func (s *SQLiteStore) GetPlan(ctx context.Context, id string) (model.DRPlan, error) {
	var p model.DRPlan
	err := s.get(ctx, `SELECT record FROM plans WHERE id = ?`, id, &p)
	if errors.Is(err, ErrNotFound) {
		return p, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *SQLiteStore) ListPlans(ctx context.Context, q PlanQuery) ([]model.DRPlan, error) {
	var args []any
	query := `SELECT record FROM plans WHERE 1=1`
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limitOf(q.Limit))
	var res []model.DRPlan
	err := s.scan(ctx, query, args, func(data []byte) error {
		var p model.DRPlan
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal plan: %w", err)
		}
		res = append(res, p)
		return nil
	})
	return res, err
}

func (s *SQLiteStore) SaveSignal(ctx context.Context, sig model.DRSignal) error {
	b, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO signals (id, plan_id, created_at, status, record)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            record = excluded.record`,
		sig.ID, sig.PlanID, sig.CreatedAt.UnixNano(), string(sig.Status), string(b))
	return err
}

func (s *SQLiteStore) GetSignal(ctx context.Context, id string) (model.DRSignal, error) {
	var sig model.DRSignal
	err := s.get(ctx, `SELECT record FROM signals WHERE id = ?`, id, &sig)
	if errors.Is(err, ErrNotFound) {
		return sig, fmt.Errorf("signal %s: %w", id, ErrNotFound)
	}
	return sig, err
}

func (s *SQLiteStore) ListSignals(ctx context.Context, q SignalQuery) ([]model.DRSignal, error) {
	var args []any
	query := `SELECT record FROM signals WHERE 1=1`
	if q.PlanID != "" {
		query += ` AND plan_id = ?`
		args = append(args, q.PlanID)
	}
	if q.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(q.Status))
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ?`
	args = append(args, limitOf(q.Limit))
	var res []model.DRSignal
	err := s.scan(ctx, query, args, func(data []byte) error {
		var sig model.DRSignal
		if err := json.Unmarshal(data, &sig); err != nil {
			return fmt.Errorf("unmarshal signal: %w", err)
		}
		res = append(res, sig)
		return nil
	})
	return res, err
}

func (s *SQLiteStore) get(ctx context.Context, query, id string, out any) error {
	var data string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

func (s *SQLiteStore) scan(ctx context.Context, query string, args []any, each func([]byte) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return err
		}
		if err := each([]byte(data)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
