package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the runtime context the orchestration layer hands to the
// settlement entry points: which agent is trading, on which date, and whether
// a trade occurred today. It lives in a small JSON file next to the agent
// data.
type State struct {
	Signature   string `json:"signature"`
	TradingDate string `json:"trading_date"`
	IfTrade     bool   `json:"if_trade"`
}

// LoadState reads the state file; a missing file is an empty state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return st, nil
}

// Save writes the state file, creating parent directories as needed.
func (s *State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
