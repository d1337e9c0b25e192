package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/history"
)

// historyRepository implements history.Repository. Times are stored as Unix
// milliseconds.
type historyRepository struct {
	db *sql.DB
}

var _ history.Repository = (*historyRepository)(nil)

func (r *historyRepository) StartRun(ctx context.Context, command string, channels int, at time.Time) (history.Run, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (command, channels, started_at) VALUES (?, ?, ?)`,
		command, channels, at.UnixMilli())
	if err != nil {
		return history.Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return history.Run{}, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return history.Run{ID: id, Command: command, Channels: channels, StartedAt: time.UnixMilli(at.UnixMilli())}, nil
}

func (r *historyRepository) FinishRun(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &history.RunNotFoundError{ID: id}
	}
	return nil
}

func (r *historyRepository) Append(ctx context.Context, events []history.Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transitions (run_id, tick_time, handle, sound_id, sound_name, from_state, to_state, sample, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.RunID, int64(ev.Time), ev.Handle, int64(ev.SoundID),
			ev.SoundName, string(ev.From), string(ev.To), ev.Sample, ev.Err); err != nil {
			return fmt.Errorf("failed to insert transition: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transitions: %w", err)
	}
	return nil
}

func (r *historyRepository) Runs(ctx context.Context, limit int) ([]history.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, command, channels, started_at, finished_at FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []history.Run
	for rows.Next() {
		var run history.Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&run.ID, &run.Command, &run.Channels, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			run.FinishedAt = time.UnixMilli(finished.Int64)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *historyRepository) Events(ctx context.Context, runID int64) ([]history.Event, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) > 0 FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if !exists {
		return nil, &history.RunNotFoundError{ID: runID}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, tick_time, handle, sound_id, sound_name, from_state, to_state, sample, error
		 FROM transitions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []history.Event
	for rows.Next() {
		var ev history.Event
		var t, id int64
		var from, to string
		if err := rows.Scan(&ev.RunID, &t, &ev.Handle, &id, &ev.SoundName, &from, &to, &ev.Sample, &ev.Err); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		ev.Time = domain.WorldTime(t)
		ev.SoundID = domain.SoundID(id)
		ev.From = domain.RequestState(from)
		ev.To = domain.RequestState(to)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *historyRepository) Stats(ctx context.Context) ([]history.SoundStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sound_id, MAX(sound_name),
		       SUM(to_state = ?), SUM(to_state = ?), SUM(to_state = ?),
		       SUM(to_state = ?), SUM(to_state = ?)
		FROM transitions
		GROUP BY sound_id
		ORDER BY sound_id`,
		string(domain.StatePlaying), string(domain.StateCompleted), string(domain.StateEvicted),
		string(domain.StateSuperseded), string(domain.StateFailed))
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []history.SoundStats
	for rows.Next() {
		var s history.SoundStats
		var id int64
		if err := rows.Scan(&id, &s.Name, &s.Played, &s.Completed, &s.Evicted, &s.Superseded, &s.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		s.SoundID = domain.SoundID(id)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
