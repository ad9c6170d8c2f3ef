package journal

import "github.com/pkg/errors"

func (j *Journal) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price TEXT NOT NULL,
			amount TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_user ON trades(user_id, id)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "journal: migrate")
		}
	}
	return nil
}
