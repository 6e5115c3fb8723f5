package prices

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotHistory persists the current bar window to
// <dir>/<symbol>_<timeframe>.jsonl, one bar per line, overwriting any previous
// snapshot for the same key. It returns the path written.
func (d *Daily) SnapshotHistory(ctx context.Context, dir string) (string, error) {
	bars, err := d.bars(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create history dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.jsonl", strings.ReplaceAll(d.symbol, "/", "_"), d.timeframe)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create history snapshot: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, bar := range bars {
		if err := enc.Encode(bar); err != nil {
			return "", fmt.Errorf("write history snapshot: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush history snapshot: %w", err)
	}
	return path, nil
}
