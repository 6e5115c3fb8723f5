package ledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rustyeddy/posledger/market"
)

// Store keeps one append-only position.jsonl per agent under a data
// directory. Ledger files are created lazily on first append and never
// truncated or compacted here.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the ledger file for an agent.
func (s *Store) Path(agent string) string {
	return filepath.Join(s.dir, agent, "position", "position.jsonl")
}

// scanLatest walks the whole file and keeps the record with the highest id
// for the given date. Blank lines and lines that fail to parse are skipped;
// the file is never repaired or rewritten. A missing file is an empty ledger.
func (s *Store) scanLatest(agent, date string) (Position, int, error) {
	f, err := os.Open(s.Path(agent))
	if err != nil {
		if os.IsNotExist(err) {
			return Position{}, -1, nil
		}
		return nil, -1, fmt.Errorf("open ledger for %s: %w", agent, err)
	}
	defer f.Close()

	latest := Position{}
	maxID := -1

	// No line-length cap: an embedded venue order can make a record
	// arbitrarily long, and an oversized line must not fail the scan.
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var rec Record
			if err := json.Unmarshal(line, &rec); err == nil &&
				rec.Date == date && rec.ID > maxID {
				maxID = rec.ID
				latest = rec.Positions
			}
			// corrupt line, lenient read: skip it
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, -1, fmt.Errorf("scan ledger for %s: %w", agent, readErr)
		}
	}
	if latest == nil {
		latest = Position{}
	}
	return latest, maxID, nil
}

// Latest returns the newest position snapshot and its record id for the given
// date, falling back to the previous calendar day when the date has no
// records. With no records under either date it returns an empty position and
// id -1.
func (s *Store) Latest(agent, date string) (Position, int, error) {
	pos, maxID, err := s.scanLatest(agent, date)
	if err != nil {
		return nil, -1, err
	}
	if maxID >= 0 {
		return pos, maxID, nil
	}

	prev, err := market.PreviousDay(date)
	if err != nil {
		return nil, -1, err
	}
	return s.scanLatest(agent, prev)
}

// Append writes one record to the agent's log. The caller is responsible for
// assigning rec.ID as Latest(agent, rec.Date)+1 while holding the agent's
// settlement lock.
func (s *Store) Append(agent string, rec Record) error {
	path := s.Path(agent)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir for %s: %w", agent, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for %s: %w", agent, err)
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ledger record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append ledger record for %s: %w", agent, err)
	}
	return nil
}

// InitialPosition returns the position that seeds a new trading day: the
// latest snapshot of the previous calendar day, or an empty position when no
// prior history exists.
func (s *Store) InitialPosition(agent, date string) (Position, error) {
	prev, err := market.PreviousDay(date)
	if err != nil {
		return nil, err
	}
	pos, _, err := s.Latest(agent, prev)
	if err != nil {
		return nil, err
	}
	return pos, nil
}

// RecordNoTrade appends a record marking a day without settlement, carrying
// the current latest snapshot unchanged. It preserves the continuity of the
// daily record chain; calling it twice appends two records with identical
// positions.
func (s *Store) RecordNoTrade(agent, date string) (Record, error) {
	pos, lastID, err := s.Latest(agent, date)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Date:       date,
		ID:         lastID + 1,
		ThisAction: Action{Name: ActionNoTrade, Symbol: "", Amount: 0},
		Positions:  pos.Clone(),
	}
	if err := s.Append(agent, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
