package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gradewatch/internal/logger"
	"gradewatch/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists grade and error events to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.Get().With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS grades (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			filled_in       INTEGER NOT NULL,
			class_name      TEXT,
			grade           TEXT,
			grade_text      TEXT,
			is_pass         INTEGER,
			description     TEXT,
			weight          TEXT,
			class_average   TEXT,
			overall_average TEXT,
			overall_points  TEXT,
			first_name      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_grades_filled_in ON grades(filled_in)`,

		`CREATE TABLE IF NOT EXISTS errors (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			kind      TEXT,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_errors_ts ON errors(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordEvent stores evt in the table matching its kind.
func (r *SQLiteRecorder) RecordEvent(evt *model.Event) error {
	switch evt.Kind {
	case model.EventGrade:
		return r.recordGrade(evt)
	case model.EventError:
		return r.recordError(evt)
	default:
		return fmt.Errorf("unknown event kind %q", evt.Kind)
	}
}

func (r *SQLiteRecorder) recordGrade(evt *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := evt.Grade
	_, err := r.db.Exec(`INSERT INTO grades
		(id, timestamp, filled_in, class_name, grade, grade_text, is_pass, description,
		 weight, class_average, overall_average, overall_points, first_name)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.At.Unix(), g.FilledIn.Unix(), g.ClassName,
		nullString(g.Grade), g.Text, g.IsPass, g.Description,
		g.Weight.String(), nullString(g.ClassAverage), nullString(g.OverallAverage),
		nullString(g.OverallPoints), g.FirstName,
	)
	return err
}

func (r *SQLiteRecorder) recordError(evt *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO errors (id, timestamp, kind, message) VALUES (?,?,?,?)`,
		evt.ID, evt.At.Unix(), evt.Error.Kind, evt.Error.Message,
	)
	return err
}

// GradeRow is a stored grade.
type GradeRow struct {
	ID        string
	ClassName string
	Grade     sql.NullString
	FilledIn  time.Time
}

// RecentGrades returns the latest stored grades, newest first.
func (r *SQLiteRecorder) RecentGrades(limit int) ([]GradeRow, error) {
	rows, err := r.db.Query(`SELECT id, class_name, grade, filled_in FROM grades
		ORDER BY filled_in DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GradeRow
	for rows.Next() {
		var row GradeRow
		var filledIn int64
		if err := rows.Scan(&row.ID, &row.ClassName, &row.Grade, &filledIn); err != nil {
			return nil, err
		}
		row.FilledIn = time.Unix(filledIn, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func nullString(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}
