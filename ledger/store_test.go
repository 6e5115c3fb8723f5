package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func mustAppend(t *testing.T, s *Store, agent string, rec Record) {
	t.Helper()
	require.NoError(t, s.Append(agent, rec))
}

func TestLatestEmptyLedger(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	pos, lastID, err := s.Latest("agent-1", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, -1, lastID)
	assert.Empty(t, pos)
}

func TestLatestPicksMaxIDForDate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 0, Positions: Position{Cash: 10000}})
	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 1, Positions: Position{Cash: 5000, "BTC": 0.1}})

	pos, lastID, err := s.Latest("a", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, lastID)
	assert.Equal(t, Position{Cash: 5000, "BTC": 0.1}, pos)
}

func TestLatestMaxIDNotAppendOrder(t *testing.T) {
	t.Parallel()

	// A corrupted append order must not matter: latest means highest id,
	// not last line.
	s := newTestStore(t)
	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 1, Positions: Position{Cash: 5000}})
	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 0, Positions: Position{Cash: 10000}})

	pos, lastID, err := s.Latest("a", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, lastID)
	assert.Equal(t, Position{Cash: 5000}, pos)
}

func TestLatestFallsBackToPreviousDay(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	mustAppend(t, s, "a", Record{Date: "2024-03-01", ID: 0, Positions: Position{Cash: 10000, "BTC": 0}})

	pos, lastID, err := s.Latest("a", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 0, lastID)
	assert.Equal(t, Position{Cash: 10000, "BTC": 0}, pos)

	// Two days back is out of reach of the fallback.
	_, lastID, err = s.Latest("a", "2024-03-03")
	require.NoError(t, err)
	assert.Equal(t, -1, lastID)
}

func TestLatestSkipsCorruptAndBlankLines(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 0, Positions: Position{Cash: 10000}})

	// Inject garbage and trailing blank lines by hand; the reader must skip
	// them and never attempt a repair.
	path := s.Path("a")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 1, Positions: Position{Cash: 7000, "BTC": 0.05}})

	pos, lastID, err := s.Latest("a", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, lastID)
	assert.Equal(t, Position{Cash: 7000, "BTC": 0.05}, pos)
}

func TestLatestOversizedLine(t *testing.T) {
	t.Parallel()

	// A record dragging a huge raw venue order along must still be read;
	// the scan has no line-length cap to trip over.
	s := newTestStore(t)
	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 0, Positions: Position{Cash: 10000}})
	mustAppend(t, s, "a", Record{
		Date:      "2024-03-02",
		ID:        1,
		Positions: Position{Cash: 5000, "BTC": 0.1},
		Order:     json.RawMessage(`{"blob":"` + strings.Repeat("x", 2<<20) + `"}`),
	})

	pos, lastID, err := s.Latest("a", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, lastID)
	assert.Equal(t, Position{Cash: 5000, "BTC": 0.1}, pos)
}

func TestInitialPosition(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	mustAppend(t, s, "a", Record{Date: "2024-03-01", ID: 0, Positions: Position{Cash: 10000, "BTC": 0}})

	pos, err := s.InitialPosition("a", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, Position{Cash: 10000, "BTC": 0}, pos)

	pos, err = s.InitialPosition("fresh", "2024-03-02")
	require.NoError(t, err)
	assert.Empty(t, pos)
}

func TestRecordNoTradeIdempotentPositions(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	mustAppend(t, s, "a", Record{Date: "2024-03-02", ID: 0, Positions: Position{Cash: 5000, "BTC": 0.1}})

	first, err := s.RecordNoTrade("a", "2024-03-02")
	require.NoError(t, err)
	second, err := s.RecordNoTrade("a", "2024-03-02")
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, ActionNoTrade, first.ThisAction.Name)
	assert.Equal(t, first.Positions, second.Positions)
	assert.Equal(t, Position{Cash: 5000, "BTC": 0.1}, second.Positions)
}

func TestRecordNoTradeFreshAgent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	rec, err := s.RecordNoTrade("fresh", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ID)
	assert.Empty(t, rec.Positions)
}

func TestAppendWireFormat(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	rec := Record{
		Date: "2024-03-02",
		ID:   0,
		ThisAction: Action{
			Name:      ActionBuy,
			Symbol:    "BTC",
			Amount:    0.1,
			FillPrice: 50000,
		},
		Positions: Position{Cash: 5000, "BTC": 0.1},
		Order:     json.RawMessage(`{"mode":"paper"}`),
	}
	mustAppend(t, s, "a", rec)

	f, err := os.Open(s.Path("a"))
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	line := sc.Text()

	// The line format is shared with external readers: stable field names.
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &raw))
	assert.Equal(t, "2024-03-02", raw["date"])
	assert.Equal(t, 0.0, raw["id"])
	action := raw["this_action"].(map[string]any)
	assert.Equal(t, "buy", action["action"])
	assert.Equal(t, 50000.0, action["fill_price"])
	assert.Contains(t, raw, "positions")
	assert.Contains(t, raw, "order")
}

func TestStorePath(t *testing.T) {
	t.Parallel()

	s := NewStore("/data/agents")
	assert.Equal(t, filepath.Join("/data/agents", "a1", "position", "position.jsonl"), s.Path("a1"))
}
