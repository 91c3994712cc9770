package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Run is one ledger row.
type Run struct {
	RunID      string            `json:"run_id"`
	ItemID     int64             `json:"item_id,omitempty"`
	HasItem    bool              `json:"has_item"`
	Subject    string            `json:"subject"`
	Category   string            `json:"category,omitempty"`
	Outcome    string            `json:"outcome"`
	Reference  string            `json:"reference,omitempty"`
	Error      string            `json:"error,omitempty"`
	Artifacts  map[string]string `json:"artifacts,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats counts runs by outcome.
type Stats struct {
	Total    int            `json:"total"`
	Outcomes map[string]int `json:"outcomes"`
}

const runColumns = "run_id, item_id, subject, category, outcome, reference, error_message, artifacts_json, started_at, finished_at"

// Record inserts or replaces a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	artifacts, err := json.Marshal(run.Artifacts)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}
	var itemID any
	if run.HasItem {
		itemID = run.ItemID
	}
	return retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID,
			itemID,
			run.Subject,
			nullableString(run.Category),
			run.Outcome,
			nullableString(run.Reference),
			nullableString(run.Error),
			string(artifacts),
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		if execErr != nil {
			return fmt.Errorf("insert run: %w", execErr)
		}
		return nil
	})
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY finished_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats counts runs per outcome.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(1) FROM runs GROUP BY outcome`)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{Outcomes: make(map[string]int)}
	for rows.Next() {
		var (
			outcome string
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Outcomes[outcome] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		itemID      sql.NullInt64
		category    sql.NullString
		reference   sql.NullString
		errMessage  sql.NullString
		artifacts   sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&run.RunID,
		&itemID,
		&run.Subject,
		&category,
		&run.Outcome,
		&reference,
		&errMessage,
		&artifacts,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return Run{}, err
	}
	run.ItemID = itemID.Int64
	run.HasItem = itemID.Valid
	run.Category = category.String
	run.Reference = reference.String
	run.Error = errMessage.String
	if artifacts.Valid && artifacts.String != "" && artifacts.String != "null" {
		if err := json.Unmarshal([]byte(artifacts.String), &run.Artifacts); err != nil {
			return Run{}, fmt.Errorf("decode artifacts: %w", err)
		}
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return run, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
