package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:quizsync.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/quizsync?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS students (
  id TEXT PRIMARY KEY,
  created_at INTEGER NOT NULL,
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS lectures (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  settings_json TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  lecture_id TEXT NOT NULL REFERENCES lectures(id),
  qn_type TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  last_update INTEGER NOT NULL,
  correct_choices_json TEXT NOT NULL DEFAULT '[]',
  choice_count INTEGER NOT NULL DEFAULT 0,
  times_answered INTEGER NOT NULL DEFAULT 0,
  times_correct INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS allocations (
  public_id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES students(id),
  lecture_id TEXT NOT NULL REFERENCES lectures(id),
  question_id TEXT NOT NULL REFERENCES questions(id),
  allocation_time INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_allocations_student_lecture ON allocations(student_id, lecture_id);

CREATE TABLE IF NOT EXISTS answers (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  allocation_id TEXT NOT NULL REFERENCES allocations(public_id),
  student_id TEXT NOT NULL,
  lecture_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  student_answer INTEGER NOT NULL,
  correct INTEGER NOT NULL,
  quiz_time INTEGER NOT NULL,
  answer_time INTEGER NOT NULL,
  grade_after REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_student_lecture ON answers(student_id, lecture_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_natural_key ON answers(allocation_id, quiz_time);

CREATE TABLE IF NOT EXISTS answer_summary (
  student_id TEXT NOT NULL,
  lecture_id TEXT NOT NULL,
  answered INTEGER NOT NULL,
  correct INTEGER NOT NULL,
  grade REAL NOT NULL,
  PRIMARY KEY (student_id, lecture_id)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS students (
  id TEXT PRIMARY KEY,
  created_at BIGINT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS lectures (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  settings_json TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  lecture_id TEXT NOT NULL REFERENCES lectures(id),
  qn_type TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  last_update BIGINT NOT NULL,
  correct_choices_json TEXT NOT NULL DEFAULT '[]',
  choice_count INTEGER NOT NULL DEFAULT 0,
  times_answered INTEGER NOT NULL DEFAULT 0,
  times_correct INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS allocations (
  public_id TEXT PRIMARY KEY,
  student_id TEXT NOT NULL REFERENCES students(id),
  lecture_id TEXT NOT NULL REFERENCES lectures(id),
  question_id TEXT NOT NULL REFERENCES questions(id),
  allocation_time BIGINT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_allocations_student_lecture ON allocations(student_id, lecture_id);

CREATE TABLE IF NOT EXISTS answers (
  seq BIGSERIAL PRIMARY KEY,
  allocation_id TEXT NOT NULL REFERENCES allocations(public_id),
  student_id TEXT NOT NULL,
  lecture_id TEXT NOT NULL,
  question_id TEXT NOT NULL,
  student_answer INTEGER NOT NULL,
  correct INTEGER NOT NULL,
  quiz_time BIGINT NOT NULL,
  answer_time BIGINT NOT NULL,
  grade_after DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_student_lecture ON answers(student_id, lecture_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_natural_key ON answers(allocation_id, quiz_time);

CREATE TABLE IF NOT EXISTS answer_summary (
  student_id TEXT NOT NULL,
  lecture_id TEXT NOT NULL,
  answered INTEGER NOT NULL,
  correct INTEGER NOT NULL,
  grade DOUBLE PRECISION NOT NULL,
  PRIMARY KEY (student_id, lecture_id)
);
`
