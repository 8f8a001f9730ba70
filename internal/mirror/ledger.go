package mirror

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ledger records the remote etag last seen for every mirrored object. It
// lives at the store root and is never pushed; conditional puts compare
// against it to detect remote updates this machine has not synced yet.
type ledger struct {
	SyncedAt time.Time              `json:"synced_at"`
	Objects  map[string]ledgerEntry `json:"objects"`
}

type ledgerEntry struct {
	ETag     string    `json:"etag"`
	SyncedAt time.Time `json:"synced_at"`
}

func loadLedger(root string) (*ledger, error) {
	led := &ledger{Objects: map[string]ledgerEntry{}}
	data, err := os.ReadFile(filepath.Join(root, ledgerName))
	if os.IsNotExist(err) {
		return led, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror ledger: %w", err)
	}
	if err := json.Unmarshal(data, led); err != nil {
		return nil, fmt.Errorf("failed to parse mirror ledger: %w", err)
	}
	if led.Objects == nil {
		led.Objects = map[string]ledgerEntry{}
	}
	return led, nil
}

func (l *ledger) save(root string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode mirror ledger: %w", err)
	}
	path := filepath.Join(root, ledgerName)
	tmp, err := os.CreateTemp(root, ".mirror-*")
	if err != nil {
		return fmt.Errorf("failed to write mirror ledger: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write mirror ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write mirror ledger: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write mirror ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write mirror ledger: %w", err)
	}
	return nil
}
