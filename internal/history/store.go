package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const runColumns = "id, tool, target, output, status, items, options_json, error_message, started_at, finished_at"

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Begin records a new run in the running state. options is stored as JSON so
// the history table shows exactly which engine options a run used.
func (s *Store) Begin(ctx context.Context, tool, target, output string, options any) (*Run, error) {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return nil, errors.New("begin run: tool is required")
	}

	var optionsJSON string
	if options != nil {
		data, err := json.Marshal(options)
		if err != nil {
			return nil, fmt.Errorf("encode run options: %w", err)
		}
		optionsJSON = string(data)
	}

	run := &Run{
		ID:          uuid.NewString(),
		Tool:        tool,
		Target:      target,
		Output:      output,
		Status:      StatusRunning,
		OptionsJSON: optionsJSON,
		StartedAt:   s.now().UTC(),
	}

	_, err := s.exec(ctx,
		`INSERT INTO runs (id, tool, target, output, status, items, options_json, started_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		run.ID, run.Tool, run.Target, run.Output, string(run.Status), nullString(run.OptionsJSON), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the terminal state of a run. runErr decides the status; items
// is the number of files the run produced.
func (s *Store) Finish(ctx context.Context, run *Run, items int, runErr error) error {
	if run == nil {
		return errors.New("finish run: nil run")
	}
	run.Status = StatusFor(runErr)
	run.Items = items
	run.FinishedAt = s.now().UTC()
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}

	// The run context may already be canceled; the final write must still land.
	ctx = context.WithoutCancel(ctx)
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, items = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(run.Status), run.Items, nullString(run.ErrorMessage), formatTime(run.FinishedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// MarkInterrupted closes runs of tool writing into output that are still in
// the running state. Callers hold the output directory lock, so any such row
// belongs to a process that died.
func (s *Store) MarkInterrupted(ctx context.Context, tool, output string) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ?
		 WHERE tool = ? AND output = ? AND status = ?`,
		string(StatusInterrupted), InterruptedReason, formatTime(s.now().UTC()), tool, output, string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Get loads a run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. An empty tool lists runs
// of every tool.
func (s *Store) List(ctx context.Context, tool string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := "SELECT " + runColumns + " FROM runs"
	args := []any{}
	if tool = strings.TrimSpace(tool); tool != "" {
		query += " WHERE tool = ?"
		args = append(args, tool)
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Clear deletes finished runs of tool and returns how many were removed.
// Running rows are kept.
func (s *Store) Clear(ctx context.Context, tool string) (int64, error) {
	res, err := s.exec(ctx,
		"DELETE FROM runs WHERE tool = ? AND status != ?", tool, string(StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		optionsJSON sql.NullString
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Tool,
		&run.Target,
		&run.Output,
		&status,
		&run.Items,
		&optionsJSON,
		&errorMsg,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.OptionsJSON = optionsJSON.String
	run.ErrorMessage = errorMsg.String
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return &run, nil
}

// timeLayout keeps nine fractional digits so stored timestamps sort
// correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
