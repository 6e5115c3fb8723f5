package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const entryColumns = `entry_id, agent, date, action, symbol, amount, fill_price, cash, holding, time`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.EntryID,
		&e.Agent,
		&e.Date,
		&e.Action,
		&e.Symbol,
		&e.Amount,
		&e.FillPrice,
		&e.Cash,
		&e.Holding,
		&e.Time,
	)
	return e, err
}

// GetEntry returns a single settlement entry by id.
func (j *SQLite) GetEntry(entryID string) (Entry, error) {
	row := j.db.QueryRow(`
		SELECT `+entryColumns+`
		FROM settlements
		WHERE entry_id = ?`, entryID)

	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, fmt.Errorf("settlement %q not found", entryID)
		}
		return Entry{}, err
	}
	return e, nil
}

// ListByAgentDate returns an agent's settlements for one trading date,
// oldest first.
func (j *SQLite) ListByAgentDate(agent, date string) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT `+entryColumns+`
		FROM settlements
		WHERE agent = ? AND date = ?
		ORDER BY time ASC`, agent, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collect(rows)
}

// ListBetween returns settlements whose wall-clock time is within [start, end).
func (j *SQLite) ListBetween(start, end time.Time) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT `+entryColumns+`
		FROM settlements
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collect(rows)
}

// ListDay returns all settlements recorded during one UTC calendar day.
func (j *SQLite) ListDay(day string) ([]Entry, error) {
	start, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return j.ListBetween(start, start.AddDate(0, 0, 1))
}

func collect(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
