package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/config"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/installer"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/journal"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/link"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/scheme"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/verify"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/wheel"
)

type installOptions struct {
	hash       string
	noVerify   bool
	keepFailed bool
	summary    bool
}

func newInstallCmd(a *app) *cobra.Command {
	opts := &installOptions{}
	cmd := &cobra.Command{
		Use:   "install <wheel>",
		Short: "Install a wheel into the configured environment",
		Long: `Install a wheel into the scheme directories named in the config file.

The archive is checked against --hash and any detached signature first, then
every RECORD entry is verified as it is written. A journal of written files is
kept under the cache directory; a failed install is rolled back unless
--keep-failed is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstall(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.hash, "hash", "", "Expected archive digest as <algo>=<hex>")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "Skip RECORD hash verification")
	cmd.Flags().BoolVar(&opts.keepFailed, "keep-failed", false, "Leave files from a failed install in place")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print the install journal as YAML")
	return cmd
}

func (a *app) runInstall(cmd *cobra.Command, wheelPath string, opts *installOptions) error {
	ctx := cmd.Context()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	paths := installer.Paths(cfg.SchemePaths())
	if err := paths.Validate(); err != nil {
		return fmt.Errorf("config paths: %w", err)
	}

	l, err := archiveLink(wheelPath, opts.hash)
	if err != nil {
		return err
	}
	results, err := verify.New(
		verify.WithKeyring(cfg.Keyring),
		verify.WithRequireSignatures(cfg.RequireSignatures),
		verify.WithLogger(a.logger),
	).Verify(l.Path(), l)
	if err != nil {
		return err
	}
	for _, r := range results {
		a.logger.Debug("archive verified", "method", r.Method, "detail", r.Detail)
	}

	w, err := wheel.Open(l.Path())
	if err != nil {
		return err
	}
	defer w.Close()

	target := paths[scheme.Data]
	lock, err := journal.AcquireLock(ctx, target)
	if err != nil {
		return fmt.Errorf("lock %s: %w", target, err)
	}
	defer lock.Release()

	journalDir := filepath.Join(cfg.CacheDir, "journal")
	txn := journal.New(w.Name(), w.Version(), target)
	txn.SetState(journal.StateInProgress, nil)
	if err := txn.Save(journalDir); err != nil {
		return err
	}

	h := &installer.FileHandler{
		Paths:      paths,
		Executable: cfg.Executable,
		Txn:        txn,
		Logger:     a.logger,
	}
	inst := installer.New(
		installer.WithHashCheck(cfg.CheckHashes && !opts.noVerify),
		installer.WithLogger(a.logger),
	)

	_, installErr := inst.Install(w, h)
	if installErr != nil {
		txn.SetState(journal.StateFailed, installErr)
		if !opts.keepFailed {
			if err := txn.Rollback(); err != nil {
				a.logger.Error("rollback failed", "error", err)
			}
		}
		if err := txn.Save(journalDir); err != nil {
			a.logger.Error("save journal", "error", err)
		}
		return fmt.Errorf("install %s: %w", filepath.Base(wheelPath), installErr)
	}

	if err := txn.Commit(); err != nil {
		a.logger.Warn("discard backups", "error", err)
	}
	txn.SetState(journal.StateCompleted, nil)
	if err := txn.Save(journalDir); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installed %s %s (%d files)\n", w.Name(), w.Version(), len(txn.Files))
	if opts.summary {
		return txn.WriteSummary(out)
	}
	return nil
}

// archiveLink turns a local path and optional "<algo>=<hex>" digest into a
// link carrying that digest in its fragment.
func archiveLink(path, hash string) (*link.Link, error) {
	l, err := link.FromPath(path)
	if err != nil {
		return nil, err
	}
	if hash == "" {
		return l, nil
	}
	withHash, err := link.Parse(l.String() + "#" + hash)
	if err != nil {
		return nil, err
	}
	if withHash.Hash() == "" {
		return nil, &config.ValidationError{Field: "hash", Message: fmt.Sprintf("expected <algo>=<hex>, got %q", hash)}
	}
	return withHash, nil
}
