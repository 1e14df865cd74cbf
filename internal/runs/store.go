package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hardsub/internal/config"
	"hardsub/internal/cues"
)

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin records a new running extraction and returns it.
func (s *Store) Begin(ctx context.Context, videoPath string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		VideoPath: videoPath,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, video_path, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID,
		run.VideoPath,
		run.Status,
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Complete marks a run finished and persists its cues and detection record
// in one transaction.
func (s *Store) Complete(ctx context.Context, id string, detection any, framesSampled int64, cueList []cues.Cue) error {
	detectionJSON, err := json.Marshal(detection)
	if err != nil {
		return fmt.Errorf("marshal detection: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, phase = 'done', detection_json = ?, cue_count = ?,
             frames_sampled = ?, finished_at = ?
         WHERE id = ?`,
		StatusCompleted,
		string(detectionJSON),
		len(cueList),
		framesSampled,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	for _, cue := range cueList {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO run_cues (run_id, idx, start_ms, end_ms, text, box_x, box_y, box_w, box_h)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, cue.Index, cue.StartMS, cue.EndMS, cue.Text,
			cue.Box.X, cue.Box.Y, cue.Box.Width, cue.Box.Height,
		)
		if err != nil {
			return fmt.Errorf("insert cue %d: %w", cue.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Finish marks a run failed or cancelled with the phase it stopped in.
func (s *Store) Finish(ctx context.Context, id string, status Status, phase, errorMessage string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, phase = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status,
		nullableString(phase),
		nullableString(errorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Get fetches a run by identifier. Prefix matches are accepted when unique.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s.getByPrefix(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *Store) getByPrefix(ctx context.Context, prefix string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id LIKE ? LIMIT 2`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Cues returns a run's persisted cues in index order.
func (s *Store) Cues(ctx context.Context, runID string) ([]cues.Cue, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT idx, start_ms, end_ms, text, box_x, box_y, box_w, box_h
         FROM run_cues WHERE run_id = ? ORDER BY idx`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cues: %w", err)
	}
	defer rows.Close()

	var out []cues.Cue
	for rows.Next() {
		var cue cues.Cue
		if err := rows.Scan(
			&cue.Index, &cue.StartMS, &cue.EndMS, &cue.Text,
			&cue.Box.X, &cue.Box.Y, &cue.Box.Width, &cue.Box.Height,
		); err != nil {
			return nil, err
		}
		out = append(out, cue)
	}
	return out, rows.Err()
}

// Prune deletes terminal runs older than the cutoff and returns the count.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE status != ? AND started_at < ?`,
		StatusRunning,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = "id, video_path, status, phase, error_message, detection_json, cue_count, frames_sampled, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id            string
		videoPath     string
		statusStr     string
		phase         sql.NullString
		errorMessage  sql.NullString
		detectionJSON sql.NullString
		cueCount      int
		framesSampled int64
		startedRaw    string
		finishedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&videoPath,
		&statusStr,
		&phase,
		&errorMessage,
		&detectionJSON,
		&cueCount,
		&framesSampled,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:            id,
		VideoPath:     videoPath,
		Status:        Status(statusStr),
		Phase:         phase.String,
		ErrorMessage:  errorMessage.String,
		DetectionJSON: detectionJSON.String,
		CueCount:      cueCount,
		FramesSampled: framesSampled,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
