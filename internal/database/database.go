package database

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", withPragmas(dataSourceName))
	if err != nil {
		return nil, err
	}
	if dataSourceName == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT,
		password_hash TEXT,
		verified INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS llms (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		provider TEXT NOT NULL,
		endpoint TEXT,
		api_key TEXT,
		enabled INTEGER NOT NULL DEFAULT 1,
		-- Store generation parameters as JSON text
		config_json TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- llm_id is not a foreign key: prompts outlive the models they were sent to.
	CREATE TABLE IF NOT EXISTS prompts (
		id TEXT NOT NULL PRIMARY KEY,
		owner_kind TEXT NOT NULL DEFAULT 'none',
		owner_id TEXT,
		llm_id TEXT NOT NULL,
		prompt_text TEXT NOT NULL,
		response_text TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_prompts_created_at ON prompts(created_at DESC);

	CREATE TABLE IF NOT EXISTS prompt_histories (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		prompt TEXT NOT NULL,
		prompt_search TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		models_json TEXT,
		criteria_json TEXT,
		results_json TEXT,
		summary_json TEXT,
		feedback_json TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_prompt_histories_user ON prompt_histories(user_id, created_at DESC);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
