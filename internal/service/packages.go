// Package service provides the high-level package operations of unapt:
// install, update, remove, list and upload.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZebulonRouseFrantzich/unapt/internal/binary"
	"github.com/ZebulonRouseFrantzich/unapt/internal/logger"
	"github.com/ZebulonRouseFrantzich/unapt/internal/transaction"
)

// PackageService orchestrates install, update, remove and list.
type PackageService struct {
	fetcher    Fetcher
	files      BinaryStore
	history    History
	clock      Clock
	journalDir string
	log        *logger.Logger
}

// NewPackageService creates a package service with dependency injection.
// Failed transactions are written to journalDir; an empty journalDir turns
// journaling off.
func NewPackageService(
	fetcher Fetcher,
	files BinaryStore,
	history History,
	clock Clock,
	journalDir string,
	log *logger.Logger,
) *PackageService {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PackageService{
		fetcher:    fetcher,
		files:      files,
		history:    history,
		clock:      clock,
		journalDir: journalDir,
		log:        log.Component("packages"),
	}
}

// InstallResult describes a completed or failed install or update.
type InstallResult struct {
	Name    string
	Path    string
	BinDir  string
	Updated bool
	Txn     *transaction.Txn
}

// RemoveResult describes a remove.
type RemoveResult struct {
	Name     string
	NotFound bool
	Txn      *transaction.Txn
}

// Install downloads name into the binary directory, marks it executable and
// records it in the history. The history gains the name only if it was not
// already present.
func (s *PackageService) Install(ctx context.Context, name string) (*InstallResult, error) {
	return s.install(ctx, transaction.OperationInstall, name)
}

// Update force-reinstalls name. The installed copy is kept until the new one
// has been downloaded, and the history ends up with exactly one entry.
func (s *PackageService) Update(ctx context.Context, name string) (*InstallResult, error) {
	return s.install(ctx, transaction.OperationUpdate, name)
}

func (s *PackageService) install(ctx context.Context, op transaction.Operation, name string) (*InstallResult, error) {
	if err := binary.ValidateName(name); err != nil {
		return nil, err
	}

	txn := transaction.New(op, name, s.clock.Now())
	result := &InstallResult{
		Name:    name,
		Path:    s.files.Path(name),
		BinDir:  s.files.BinDir(),
		Updated: op == transaction.OperationUpdate,
		Txn:     txn,
	}
	log := s.log.With().Str("op", string(op)).Str("name", name).Str("txn", txn.ID).Logger()

	if err := txn.Run(transaction.StepPrepareBinDir, func() error {
		swept, err := s.files.PrepareDir()
		if swept > 0 {
			log.Debug().Int("files", swept).Msg("removed abandoned downloads")
		}
		return err
	}); err != nil {
		return result, s.fail(txn, err)
	}

	var tmpPath string
	if err := txn.Run(transaction.StepDownload, func() error {
		p, err := s.fetcher.FetchTemp(ctx, name, s.files.BinDir())
		tmpPath = p
		return err
	}); err != nil {
		return result, s.fail(txn, err)
	}

	var backupPath string
	if err := txn.Run(transaction.StepBackup, func() error {
		p, err := s.files.Backup(name)
		backupPath = p
		return err
	}); err != nil {
		s.discard(tmpPath)
		return result, s.fail(txn, err)
	}

	rollback := func() {
		if txn.Completed(transaction.StepMove) {
			s.discard(s.files.Path(name))
		} else {
			s.discard(tmpPath)
		}
		if backupPath != "" {
			if err := s.files.Restore(backupPath, name); err != nil {
				log.Error().Err(err).Msg("restore backup")
				return
			}
		}
		txn.MarkRolledBack(transaction.StepBackup, transaction.StepMove, transaction.StepChmod)
		log.Debug().Msg("rolled back")
	}

	if err := txn.Run(transaction.StepMove, func() error {
		return s.files.Place(tmpPath, name)
	}); err != nil {
		rollback()
		return result, s.fail(txn, err)
	}

	if err := txn.Run(transaction.StepChmod, func() error {
		return s.files.SetExecutable(name)
	}); err != nil {
		rollback()
		return result, s.fail(txn, err)
	}

	record := s.history.Add
	if op == transaction.OperationUpdate {
		record = s.history.Replace
	}
	if err := txn.Run(transaction.StepRecord, func() error {
		return record(ctx, name)
	}); err != nil {
		rollback()
		return result, s.fail(txn, err)
	}

	if err := txn.Run(transaction.StepCleanup, func() error {
		if backupPath == "" {
			return nil
		}
		return s.files.Discard(backupPath)
	}); err != nil {
		log.Warn().Err(err).Msg("cleanup failed")
	}

	log.Debug().Str("path", result.Path).Msg("installed")
	return result, nil
}

// Remove deletes name from the binary directory and the history. A package
// that is not in the binary directory yields NotFound and leaves the history
// unchanged.
func (s *PackageService) Remove(ctx context.Context, name string) (*RemoveResult, error) {
	if err := binary.ValidateName(name); err != nil {
		return nil, err
	}

	txn := transaction.New(transaction.OperationRemove, name, s.clock.Now())
	result := &RemoveResult{Name: name, Txn: txn}

	installed, err := s.files.IsInstalled(name)
	if err != nil {
		return result, err
	}
	if !installed {
		result.NotFound = true
		return result, nil
	}

	err = txn.Run(transaction.StepDelete, func() error {
		return s.files.Delete(name)
	})
	if errors.Is(err, binary.ErrNotInstalled) {
		result.NotFound = true
		return result, nil
	}
	if err != nil {
		return result, s.fail(txn, err)
	}

	if err := txn.Run(transaction.StepForget, func() error {
		_, err := s.history.Remove(ctx, name)
		return err
	}); err != nil {
		return result, s.fail(txn, err)
	}

	s.log.Debug().Str("name", name).Msg("removed")
	return result, nil
}

// List returns the recorded package names in history order. A missing or
// empty history is history.ErrNoHistory.
func (s *PackageService) List() ([]string, error) {
	return s.history.Entries()
}

// Download fetches name into dir without installing or recording it.
func (s *PackageService) Download(ctx context.Context, name, dir string) (string, error) {
	path, err := s.fetcher.Fetch(ctx, name, dir)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	return path, nil
}

// fail journals a failed transaction and returns err unchanged.
func (s *PackageService) fail(txn *transaction.Txn, err error) error {
	if s.journalDir != "" {
		if saveErr := txn.Save(s.journalDir); saveErr != nil {
			s.log.Warn().Err(saveErr).Msg("save transaction journal")
		}
	}
	step, _ := txn.Failed()
	s.log.Debug().
		Str("txn", txn.ID).
		Str("step", string(step.Step)).
		Bool("rolled_back", txn.RolledBack()).
		Err(err).
		Msg("operation failed")
	return err
}

func (s *PackageService) discard(path string) {
	if path == "" {
		return
	}
	if err := s.files.Discard(path); err != nil {
		s.log.Warn().Err(err).Msg("discard file")
	}
}
