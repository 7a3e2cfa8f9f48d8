package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AlertState is the date of the last alerted signal per symbol.
type AlertState struct {
	LastAlerted map[string]time.Time `json:"last_alerted"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// LoadState reads the alert state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*AlertState, error) {
	state := &AlertState{LastAlerted: make(map[string]time.Time)}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, fmt.Errorf("read alert state: %w", err)
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode alert state: %w", err)
	}
	if state.LastAlerted == nil {
		state.LastAlerted = make(map[string]time.Time)
	}
	return state, nil
}

// SaveState writes the alert state to a JSON file via a temp file and rename.
func SaveState(filePath string, state *AlertState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alert state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write alert state: %w", err)
	}
	return os.Rename(tmp, filePath)
}

// RestoreState loads previously alerted signals from filePath and keeps
// the file updated on every new alert.
func (s *Scheduler) RestoreState(filePath string) error {
	state, err := LoadState(filePath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateFile = filePath
	for sym, t := range state.LastAlerted {
		s.lastAlerted[sym] = t
	}
	return nil
}
