package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordSettlement(e Entry) error {
	_, err := j.db.Exec(`
		INSERT INTO settlements
		(entry_id, agent, date, action, symbol, amount, fill_price, cash, holding, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EntryID, e.Agent, e.Date, e.Action, e.Symbol,
		e.Amount, e.FillPrice, e.Cash, e.Holding, e.Time,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
