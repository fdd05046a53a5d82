// Package transaction records the steps of a package operation so a failure
// can be rolled back and reported precisely. It also provides the lock file
// used to serialize writers of shared state.
package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// State represents the current state of a step.
type State string

const (
	StatePending    State = "pending"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateRolledBack State = "rolled_back"
)

// Operation is the package operation a transaction belongs to.
type Operation string

const (
	OperationInstall Operation = "install"
	OperationUpdate  Operation = "update"
	OperationRemove  Operation = "remove"
)

// Step names one stage of an operation.
type Step string

const (
	StepPrepareBinDir Step = "prepare_bin_dir"
	StepDownload      Step = "download"
	StepBackup        Step = "backup"
	StepMove          Step = "move"
	StepChmod         Step = "chmod"
	StepRecord        Step = "record"
	StepCleanup       Step = "cleanup"
	StepDelete        Step = "delete"
	StepForget        Step = "forget"
)

// StepResult is the outcome of a single step.
type StepResult struct {
	Step      Step   `json:"step"`
	State     State  `json:"state"`
	LastError string `json:"last_error,omitempty"`
}

// Txn is the record of one package operation.
type Txn struct {
	Version   int          `json:"version"` // Schema version for future evolution
	ID        string       `json:"id"`
	Operation Operation    `json:"operation"`
	Name      string       `json:"name"`
	Timestamp time.Time    `json:"timestamp"`
	Steps     []StepResult `json:"steps"`
}

// StepError reports which step of an operation failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// New creates a transaction for operating on the package name.
func New(op Operation, name string, now time.Time) *Txn {
	return &Txn{
		Version:   1,
		ID:        uuid.New().String(),
		Operation: op,
		Name:      name,
		Timestamp: now.UTC(),
		Steps:     []StepResult{},
	}
}

// Run executes fn as the given step and records the outcome. A failure is
// returned as *StepError.
func (t *Txn) Run(step Step, fn func() error) error {
	t.Steps = append(t.Steps, StepResult{Step: step, State: StatePending})
	res := &t.Steps[len(t.Steps)-1]

	if err := fn(); err != nil {
		res.State = StateFailed
		res.LastError = err.Error()
		return &StepError{Step: step, Err: err}
	}

	res.State = StateCompleted
	return nil
}

// Completed reports whether step ran successfully.
func (t *Txn) Completed(step Step) bool {
	for _, s := range t.Steps {
		if s.Step == step && s.State == StateCompleted {
			return true
		}
	}
	return false
}

// Failed returns the first failed step.
func (t *Txn) Failed() (StepResult, bool) {
	for _, s := range t.Steps {
		if s.State == StateFailed {
			return s, true
		}
	}
	return StepResult{}, false
}

// MarkRolledBack moves the given completed steps to StateRolledBack.
func (t *Txn) MarkRolledBack(steps ...Step) {
	for i := range t.Steps {
		if t.Steps[i].State != StateCompleted {
			continue
		}
		for _, step := range steps {
			if t.Steps[i].Step == step {
				t.Steps[i].State = StateRolledBack
				break
			}
		}
	}
}

// RolledBack reports whether any step was rolled back.
func (t *Txn) RolledBack() bool {
	for _, s := range t.Steps {
		if s.State == StateRolledBack {
			return true
		}
	}
	return false
}

// Filename returns the journal file name for the transaction.
func (t *Txn) Filename() string {
	return fmt.Sprintf("txn-%s-%s.json", t.Operation, t.ID)
}

// Save writes the transaction to dir atomically.
// Uses write-then-rename pattern for atomicity.
func (t *Txn) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create transaction directory: %w", err)
	}

	finalPath := filepath.Join(dir, t.Filename())
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temporary transaction file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename transaction file: %w", err)
	}

	return SyncDir(dir)
}

// Load reads a transaction from disk.
func Load(path string) (*Txn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transaction file: %w", err)
	}

	var txn Txn
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return &txn, nil
}

// SyncDir fsyncs a directory so a preceding rename is durable. A directory
// that cannot be opened is skipped.
func SyncDir(dir string) error {
	df, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer df.Close()

	if err := df.Sync(); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}
