package report

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/deixis/rxlaunch/internal/status"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the execution history in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			runner_name TEXT NOT NULL,
			runner_test_name TEXT NOT NULL,
			test_set_id INTEGER NOT NULL,
			test_case_id INTEGER NOT NULL,
			project_id INTEGER NOT NULL DEFAULT 0,
			start_date DATETIME,
			end_date DATETIME,
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			transcript TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL DEFAULT '',
			artifact_path TEXT NOT NULL DEFAULT '',
			exit_code INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS steps (
			execution_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			description TEXT NOT NULL,
			expected_result TEXT NOT NULL DEFAULT '',
			actual_result TEXT NOT NULL DEFAULT '',
			sample_data TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			PRIMARY KEY (execution_id, position),
			FOREIGN KEY(execution_id) REFERENCES executions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_start_date ON executions(start_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_test ON executions(test_set_id, test_case_id)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("executing schema query: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces an execution and its steps.
func (s *SQLiteStore) Save(e *Execution) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving execution %s: %w", e.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM steps WHERE execution_id = ?`, e.ID); err != nil {
		return fmt.Errorf("saving execution %s: %w", e.ID, err)
	}
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO executions (id, runner_name, runner_test_name, test_set_id, test_case_id,
			project_id, start_date, end_date, status, message, transcript, format, artifact_path, exit_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunnerName, e.RunnerTestName, e.TestSetID, e.TestCaseID,
		e.ProjectID, nullTime(e.StartDate), nullTime(e.EndDate), e.Status.String(), e.Message, e.Transcript,
		e.Format, e.ArtifactPath, e.ExitCode, e.Error,
	)
	if err != nil {
		return fmt.Errorf("saving execution %s: %w", e.ID, err)
	}

	for _, st := range e.Steps {
		_, err := tx.Exec(
			`INSERT INTO steps (execution_id, position, description, expected_result, actual_result, sample_data, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, st.Position, st.Description, st.ExpectedResult, st.ActualResult, st.SampleData, st.Status.String(),
		)
		if err != nil {
			return fmt.Errorf("saving step %d of execution %s: %w", st.Position, e.ID, err)
		}
	}
	return tx.Commit()
}

const executionColumns = `id, runner_name, runner_test_name, test_set_id, test_case_id, project_id,
	start_date, end_date, status, message, transcript, format, artifact_path, exit_code, error`

// Load reads an execution and its steps.
func (s *SQLiteStore) Load(id string) (*Execution, error) {
	row := s.db.QueryRow(`SELECT `+executionColumns+` FROM executions WHERE id = ?`, id)
	e, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loading execution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading execution %s: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT position, description, expected_result, actual_result, sample_data, status
		FROM steps WHERE execution_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("loading steps of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var st Step
		var name string
		if err := rows.Scan(&st.Position, &st.Description, &st.ExpectedResult, &st.ActualResult, &st.SampleData, &name); err != nil {
			return nil, fmt.Errorf("scanning step of %s: %w", id, err)
		}
		if st.Status, err = status.Parse(name); err != nil {
			return nil, fmt.Errorf("step %d of %s: %w", st.Position, id, err)
		}
		e.Steps = append(e.Steps, st)
	}
	return e, rows.Err()
}

// List returns up to limit executions, most recent first, without steps.
func (s *SQLiteStore) List(limit int) ([]*Execution, error) {
	rows, err := s.db.Query(`SELECT `+executionColumns+` FROM executions ORDER BY start_date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	var out []*Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(sc scanner) (*Execution, error) {
	var (
		e          Execution
		start, end sql.NullTime
		name       string
	)
	err := sc.Scan(&e.ID, &e.RunnerName, &e.RunnerTestName, &e.TestSetID, &e.TestCaseID, &e.ProjectID,
		&start, &end, &name, &e.Message, &e.Transcript, &e.Format, &e.ArtifactPath, &e.ExitCode, &e.Error)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		e.StartDate = start.Time
	}
	if end.Valid {
		e.EndDate = end.Time
	}
	if e.Status, err = status.Parse(name); err != nil {
		return nil, err
	}
	return &e, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
