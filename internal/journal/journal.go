// Package journal records which files an installation wrote so a failed
// or unwanted install can be inspected and rolled back later, and provides
// the per-environment lock that serializes installs.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// State represents the current state of an installation.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateRolledBack State = "rolled_back"
)

// InstallTxn tracks one wheel installation into one target environment.
type InstallTxn struct {
	Version      int       `json:"version" yaml:"-"` // Schema version for future evolution
	ID           string    `json:"id" yaml:"id"`
	Distribution string    `json:"distribution" yaml:"distribution"`
	DistVersion  string    `json:"dist_version" yaml:"version"`
	Target       string    `json:"target" yaml:"target"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	State        State     `json:"state" yaml:"state"`
	Files        []string  `json:"files" yaml:"files"` // Absolute paths, in write order
	// Backups maps a file that existed before the install to the path its
	// previous content was moved to.
	Backups   map[string]string `json:"backups,omitempty" yaml:"backups,omitempty"`
	LastError string            `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// New creates a pending transaction for installing distribution version
// into target.
func New(distribution, version, target string) *InstallTxn {
	return &InstallTxn{
		Version:      1,
		ID:           uuid.New().String(),
		Distribution: distribution,
		DistVersion:  version,
		Target:       target,
		Timestamp:    time.Now().UTC(),
		State:        StatePending,
		Files:        []string{},
	}
}

// Filename returns the base name Save writes to.
func (t *InstallTxn) Filename() string {
	return fmt.Sprintf("txn-install-%s-%s.json", t.Distribution, t.ID)
}

// Record notes that path was written. Repeated paths are kept once.
func (t *InstallTxn) Record(path string) {
	if t.wrote(path) {
		return
	}
	t.Files = append(t.Files, path)
}

// Preserve moves an existing file at path aside so Rollback can restore
// it. It must be called before path is overwritten. Paths this transaction
// already wrote, or that do not exist, are left alone.
func (t *InstallTxn) Preserve(path string) error {
	if _, ok := t.Backups[path]; ok || t.wrote(path) {
		return nil
	}
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	backup := t.backupPath(path)
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("back up %s: %w", path, err)
	}
	if t.Backups == nil {
		t.Backups = make(map[string]string)
	}
	t.Backups[path] = backup
	return nil
}

// Commit discards the backups taken by Preserve once the install is final.
func (t *InstallTxn) Commit() error {
	var firstErr error
	for path, backup := range t.Backups {
		if err := os.Remove(backup); err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = fmt.Errorf("remove backup of %s: %w", path, err)
		}
	}
	t.Backups = nil
	return firstErr
}

func (t *InstallTxn) wrote(path string) bool {
	for _, p := range t.Files {
		if p == path {
			return true
		}
	}
	return false
}

// backupPath names the hidden sibling that holds path's old content.
func (t *InstallTxn) backupPath(path string) string {
	id := t.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".wheelwright-"+id+".bak")
}

// SetState updates the transaction state, keeping the last error message.
func (t *InstallTxn) SetState(state State, err error) {
	t.State = state
	if err != nil {
		t.LastError = err.Error()
	} else {
		t.LastError = ""
	}
}

// Save writes the transaction to disk atomically.
// Uses write-then-rename pattern for atomicity.
func (t *InstallTxn) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	finalPath := filepath.Join(dir, t.Filename())
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temporary transaction file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename transaction file: %w", err)
	}

	// Sync directory for durability
	df, err := os.Open(dir)
	if err == nil {
		if syncErr := df.Sync(); syncErr != nil {
			df.Close()
			return fmt.Errorf("sync directory: %w", syncErr)
		}
		df.Close()
	}

	return nil
}

// Load reads a transaction from disk.
func Load(path string) (*InstallTxn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transaction file: %w", err)
	}

	var txn InstallTxn
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return &txn, nil
}

// Rollback removes every recorded file, newest first, and moves preserved
// files back into place. Files that are already gone are ignored. The
// first failure is returned after every file has been attempted.
func (t *InstallTxn) Rollback() error {
	var firstErr error
	for i := len(t.Files) - 1; i >= 0; i-- {
		err := os.Remove(t.Files[i])
		if err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = fmt.Errorf("remove %s: %w", t.Files[i], err)
		}
	}
	for path, backup := range t.Backups {
		if err := os.Rename(backup, path); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("restore %s: %w", path, err)
			}
			continue
		}
		delete(t.Backups, path)
	}
	if firstErr != nil {
		t.SetState(StateFailed, firstErr)
		return firstErr
	}
	t.State = StateRolledBack
	return nil
}

// WriteSummary writes a human-readable YAML summary of the transaction.
func (t *InstallTxn) WriteSummary(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}
